package models

// AssetStatus is the outcome of acquiring one asset
type AssetStatus string

const (
	AssetSuccess AssetStatus = "success"
	AssetFailed  AssetStatus = "failed"
)

// AspectRatioSpec is a named output format with fixed pixel dimensions
type AspectRatioSpec struct {
	Key    string  `yaml:"key" json:"key"`
	Width  int     `yaml:"width" json:"width"`
	Height int     `yaml:"height" json:"height"`
	Ratio  float64 `yaml:"ratio" json:"ratio"`
}

// Bucket classifies the format as square, landscape or portrait.
func (a AspectRatioSpec) Bucket() string {
	switch {
	case a.Width == a.Height:
		return "square"
	case a.Width > a.Height:
		return "landscape"
	default:
		return "portrait"
	}
}

// AssetResult describes one (product, aspect ratio) asset. It is never
// mutated after acquisition.
type AssetResult struct {
	Path        string      `json:"path"`
	Status      AssetStatus `json:"status"`
	Provider    string      `json:"provider,omitempty"`
	AspectRatio float64     `json:"aspect_ratio,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Succeeded reports whether the asset has a usable file.
func (a AssetResult) Succeeded() bool {
	return a.Status == AssetSuccess && a.Path != ""
}
