package eol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daimoniac/eoltrack/internal/types"
)

// DateOrFlag holds a catalog field that may be a date, a boolean sentinel or absent.
// true means "already past with no recorded date", false means "no date set yet".
type DateOrFlag struct {
	Date *time.Time
	Flag *bool
}

// IsZero reports whether the field was absent or unparseable.
func (d DateOrFlag) IsZero() bool {
	return d.Date == nil && d.Flag == nil
}

// Passed reports whether the field is the boolean true sentinel.
func (d DateOrFlag) Passed() bool {
	return d.Flag != nil && *d.Flag
}

func (d *DateOrFlag) UnmarshalJSON(data []byte) error {
	*d = DateOrFlag{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		d.Flag = &b
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// Unparseable strings are kept as absent rather than failing the whole payload.
		if t, err := types.ParseDate(s); err == nil {
			d.Date = &t
		}
	}
	return nil
}

func (d DateOrFlag) MarshalJSON() ([]byte, error) {
	switch {
	case d.Date != nil:
		return json.Marshal(d.Date.Format(types.DateLayout))
	case d.Flag != nil:
		return json.Marshal(*d.Flag)
	default:
		return []byte("null"), nil
	}
}

// CycleName is a release line label. The catalog emits it either as a
// string ("22.04") or a bare number (11).
type CycleName string

func (c *CycleName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CycleName(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cycle must be a string or number: %w", err)
	}
	*c = CycleName(n.String())
	return nil
}

// ReleaseCycle is one release line of a catalog product.
type ReleaseCycle struct {
	Cycle       CycleName  `json:"cycle"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	EOL         DateOrFlag `json:"eol"`
	Support     DateOrFlag `json:"support"`
	Latest      string     `json:"latest,omitempty"`
}

// LookupResult is the outcome of a catalog fetch. Found is false when the
// product is unknown or the catalog could not be reached.
type LookupResult struct {
	Found  bool
	Cycles []ReleaseCycle
}

// NotFound is the empty lookup result.
var NotFound = LookupResult{}

// FoundCycles wraps a non-empty cycle list. An empty list is NotFound.
func FoundCycles(cycles []ReleaseCycle) LookupResult {
	if len(cycles) == 0 {
		return NotFound
	}
	return LookupResult{Found: true, Cycles: cycles}
}
