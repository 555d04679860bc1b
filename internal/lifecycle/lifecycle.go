// Package lifecycle picks the release cycle matching an observed version and
// derives a risk tier from its end-of-life date.
package lifecycle

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/daimoniac/eoltrack/internal/eol"
	"github.com/daimoniac/eoltrack/internal/types"
)

const (
	highRiskDays   = 365
	mediumRiskDays = 730
)

// SelectBestMatch returns the cycle that best matches version.
// Priority: exact (case-insensitive), then substring in either direction,
// then the first cycle. An empty version selects the first cycle.
// Returns nil only when cycles is empty.
func SelectBestMatch(cycles []eol.ReleaseCycle, version string) *eol.ReleaseCycle {
	if len(cycles) == 0 {
		return nil
	}

	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return &cycles[0]
	}

	for i := range cycles {
		if strings.ToLower(string(cycles[i].Cycle)) == v {
			return &cycles[i]
		}
	}

	for i := range cycles {
		c := strings.ToLower(string(cycles[i].Cycle))
		if c == "" {
			continue
		}
		if strings.Contains(v, c) || strings.Contains(c, v) {
			return &cycles[i]
		}
	}

	return &cycles[0]
}

// Classifier derives risk tiers against the current date.
type Classifier struct {
	now func() time.Time
}

// NewClassifier returns a classifier using the given clock; nil means time.Now.
func NewClassifier(now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{now: now}
}

// Now returns the classifier's current time.
func (c *Classifier) Now() time.Time {
	return c.now()
}

// Classify maps an end-of-life date to a tier. The date is compared by
// whole calendar days in UTC; nil is Unknown.
func (c *Classifier) Classify(eolDate *time.Time) types.Status {
	if eolDate == nil {
		return types.StatusUnknown
	}

	days := types.DaysBetween(c.now(), *eolDate)
	switch {
	case days < 0:
		return types.StatusCritical
	case days < highRiskDays:
		return types.StatusHigh
	case days < mediumRiskDays:
		return types.StatusMedium
	default:
		return types.StatusLow
	}
}

// ClassifyCycle classifies a catalog cycle and returns the date it used.
// The eol=true sentinel is Critical without a date; eol=false or a missing
// date is Unknown.
func (c *Classifier) ClassifyCycle(cycle eol.ReleaseCycle) (types.Status, *time.Time) {
	switch {
	case cycle.EOL.Date != nil:
		d := *cycle.EOL.Date
		return c.Classify(&d), &d
	case cycle.EOL.Passed():
		return types.StatusCritical, nil
	default:
		return types.StatusUnknown, nil
	}
}

// LatestCycle returns the cycle with the highest semantic version. Cycles
// that do not parse are ignored; when none parse the first cycle is returned.
func LatestCycle(cycles []eol.ReleaseCycle) *eol.ReleaseCycle {
	if len(cycles) == 0 {
		return nil
	}

	var (
		best    *eol.ReleaseCycle
		bestVer *semver.Version
	)
	for i := range cycles {
		v, err := semver.NewVersion(string(cycles[i].Cycle))
		if err != nil {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = &cycles[i], v
		}
	}
	if best == nil {
		return &cycles[0]
	}
	return best
}
