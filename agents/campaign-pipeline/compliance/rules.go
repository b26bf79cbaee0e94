package compliance

import (
	"fmt"
	"regexp"
	"strings"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
)

const (
	ScopeContent  = "content"
	ScopeCultural = "cultural"
)

// Rule penalises every distinct phrase its pattern finds in the lower-cased
// campaign message. Cultural rules with an empty Region apply everywhere.
type Rule struct {
	Scope          string
	Region         string
	Pattern        *regexp.Regexp
	Penalty        float64
	Message        string
	Recommendation string
}

type ruleSpec struct {
	scope, region, pattern string
	penalty                float64
	message, rec           string
}

var defaultRuleSpecs = []ruleSpec{
	// aggressive sales
	{ScopeContent, "", `\b(free|buy now|limited time|click here)\b`, 20, "Prohibited content detected", "Remove prohibited marketing language"},
	// exaggerated claims
	{ScopeContent, "", `\b(guaranteed|miracle|instant)\b`, 20, "Prohibited content detected", "Remove prohibited marketing language"},
	// health claims
	{ScopeContent, "", `\b(lose weight|diet pill|supplement)\b`, 20, "Prohibited content detected", "Remove prohibited marketing language"},

	{ScopeCultural, "middle_east", `\b(alcohol|beer|wine|party)\b`, 25, "", ""},
	{ScopeCultural, "middle_east", `\b(revealing|bikini|shorts)\b`, 25, "", ""},
	{ScopeCultural, "japan", `\b(aggressive|loud|pushy)\b`, 25, "", ""},
	{ScopeCultural, "japan", `\b(individual|personal|me)\b`, 25, "", ""},
	{ScopeCultural, "india", `\b(beef|cow|leather)\b`, 25, "", ""},
	{ScopeCultural, "india", `\b(left hand|unclean)\b`, 25, "", ""},

	{ScopeCultural, "", `\b(exotic|primitive|backwards)\b`, 15, "Potentially insensitive language detected", "Use more inclusive language"},
	{ScopeCultural, "", `\b(crazy|insane|mad)\b`, 15, "Potentially insensitive language detected", "Use more inclusive language"},
	{ScopeCultural, "", `\b(disabled|handicapped|lame)\b`, 15, "Potentially insensitive language detected", "Use more inclusive language"},
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(defaultRuleSpecs))
	for _, s := range defaultRuleSpecs {
		rules = append(rules, newRule(s.scope, s.region, regexp.MustCompile("(?i)"+s.pattern), s.penalty, s.message, s.rec))
	}
	return rules
}

// BuildRules appends configured rules to the defaults.
func BuildRules(extra []config.RuleConfig) ([]Rule, error) {
	rules := DefaultRules()
	for i, rc := range extra {
		re, err := regexp.Compile("(?i)" + rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i+1, rc.Pattern, err)
		}
		penalty := rc.Penalty
		if penalty == 0 {
			penalty = 20
			if rc.Scope == ScopeCultural {
				penalty = 25
			}
		}
		rules = append(rules, newRule(rc.Scope, models.NormalizeRegion(rc.Region), re, penalty, rc.Message, rc.Recommendation))
	}
	return rules, nil
}

func newRule(scope, region string, re *regexp.Regexp, penalty float64, message, rec string) Rule {
	if message == "" {
		switch {
		case scope == ScopeContent:
			message = "Prohibited content detected"
		case region != "":
			message = "Culturally inappropriate content for " + region
		default:
			message = "Potentially insensitive language detected"
		}
	}
	if rec == "" {
		switch {
		case scope == ScopeContent:
			rec = "Remove prohibited marketing language"
		case region != "":
			rec = fmt.Sprintf("Adapt messaging for %s cultural norms", region)
		default:
			rec = "Use more inclusive language"
		}
	}
	return Rule{
		Scope:          scope,
		Region:         region,
		Pattern:        re,
		Penalty:        penalty,
		Message:        message,
		Recommendation: rec,
	}
}

// applies reports whether the rule runs for the given scope and region.
func (r Rule) applies(scope, region string) bool {
	return r.Scope == scope && (r.Region == "" || r.Region == region)
}

// matches returns the distinct phrases the rule finds, in order of first
// appearance.
func (r Rule) matches(message string) []string {
	found := r.Pattern.FindAllString(message, -1)
	seen := make(map[string]bool, len(found))
	var phrases []string
	for _, f := range found {
		f = strings.ToLower(f)
		if seen[f] {
			continue
		}
		seen[f] = true
		phrases = append(phrases, f)
	}
	return phrases
}
