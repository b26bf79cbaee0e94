package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// BriefTracker manages a persistent store of processed campaign briefs so a
// brief dropped into the inbox is processed once. Briefs are keyed by the
// SHA-256 of their contents, so editing a brief makes it eligible again.
type BriefTracker struct {
	filePath  string
	processed map[string]TrackedBrief
	mu        sync.RWMutex
	maxAge    time.Duration
	now       func() time.Time
}

// TrackedBrief represents a brief that has been processed
type TrackedBrief struct {
	Digest        string    `json:"digest"`
	Path          string    `json:"path"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NewBriefTracker creates a tracker persisted under dataDir
func NewBriefTracker(dataDir string, maxAge time.Duration) (*BriefTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &BriefTracker{
		filePath:  filepath.Join(dataDir, "processed_briefs.json"),
		processed: make(map[string]TrackedBrief),
		maxAge:    maxAge,
		now:       time.Now,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load brief tracker data: %w", err)
	}
	tracker.cleanup()

	return tracker, nil
}

// Digest returns the tracking key for brief contents.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsProcessed reports whether a brief with this digest was processed within
// the retention window.
func (bt *BriefTracker) IsProcessed(digest string) bool {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	entry, exists := bt.processed[digest]
	if !exists {
		return false
	}
	return bt.now().Sub(entry.ProcessedAt) < bt.maxAge
}

// MarkProcessed records a processed brief and persists the store.
func (bt *BriefTracker) MarkProcessed(entry TrackedBrief) error {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = bt.now()
	}
	bt.processed[entry.Digest] = entry
	return bt.save()
}

// Count returns the number of tracked briefs
func (bt *BriefTracker) Count() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.processed)
}

func (bt *BriefTracker) cleanup() {
	cutoff := bt.now().Add(-bt.maxAge)
	for digest, entry := range bt.processed {
		if entry.ProcessedAt.Before(cutoff) {
			delete(bt.processed, digest)
		}
	}
}

func (bt *BriefTracker) load() error {
	file, err := os.Open(bt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var entries []TrackedBrief
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, e := range entries {
		bt.processed[e.Digest] = e
	}
	return nil
}

// save writes the store atomically. Callers hold the write lock.
func (bt *BriefTracker) save() error {
	entries := make([]TrackedBrief, 0, len(bt.processed))
	for _, e := range bt.processed {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.Before(entries[j].ProcessedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}

	tmp := bt.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	return os.Rename(tmp, bt.filePath)
}
