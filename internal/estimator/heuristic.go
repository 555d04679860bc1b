package estimator

import (
	"fmt"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/types"
)

// KeywordTier assigns a status and an end-of-life horizon to product names
// containing any of its keywords. A tier without keywords matches everything.
type KeywordTier struct {
	Keywords   []string     `yaml:"keywords"`
	Status     types.Status `yaml:"status"`
	YearsAhead int          `yaml:"years_ahead"`
}

func (k KeywordTier) matches(lowerName string) bool {
	if len(k.Keywords) == 0 {
		return true
	}
	for _, kw := range k.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// Heuristic is an ordered list of keyword tiers, first match wins. Names
// matching no tier get FallbackTier.
type Heuristic []KeywordTier

// FallbackTier applies when no configured tier matches.
var FallbackTier = KeywordTier{Status: types.StatusLow, YearsAhead: 3}

// DefaultHeuristic flags legacy software as critical and gives laboratory
// software (chromatography, spectrometry) a longer support horizon.
var DefaultHeuristic = Heuristic{
	{Keywords: []string{"legacy", "old", "deprecated"}, Status: types.StatusCritical, YearsAhead: 1},
	{Keywords: []string{"chromato", "spectr", "lab"}, Status: types.StatusMedium, YearsAhead: 5},
	FallbackTier,
}

// Validate checks every tier carries a concrete status and a non-negative horizon.
func (h Heuristic) Validate() error {
	for i, tier := range h {
		switch tier.Status {
		case types.StatusLow, types.StatusMedium, types.StatusHigh, types.StatusCritical:
		default:
			return fmt.Errorf("tier %d: invalid status %q", i, tier.Status)
		}
		if tier.YearsAhead < 0 {
			return fmt.Errorf("tier %d: years_ahead must not be negative", i)
		}
	}
	return nil
}

// Estimate derives a low-confidence classification from the product name.
// The end-of-life date is December 31 of the tier's horizon year and support
// ends one year earlier.
func (h Heuristic) Estimate(name, version string, now time.Time) Estimate {
	lower := strings.ToLower(name)

	tier := FallbackTier
	for _, t := range h {
		if t.matches(lower) {
			tier = t
			break
		}
	}

	eolYear := now.UTC().Year() + tier.YearsAhead
	eolDate := types.EndOfYear(eolYear)
	supportEnd := types.EndOfYear(eolYear - 1)

	return Estimate{
		EOLDate:        &eolDate,
		SupportEndDate: &supportEnd,
		Status:         tier.Status,
		Recommendation: fmt.Sprintf("Plan migration before %d", eolYear),
		Confidence:     types.ConfidenceLow,
		Source:         types.SourceHeuristicEstimation,
	}
}

// EstimateDefault applies DefaultHeuristic.
func EstimateDefault(name, version string, now time.Time) Estimate {
	return DefaultHeuristic.Estimate(name, version, now)
}
