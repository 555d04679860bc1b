// Package catalog maps free-form product names onto the canonical
// identifiers of the end-of-life reference catalog.
package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry maps a lowercase keyword to a canonical catalog identifier.
type Entry struct {
	Keyword string `yaml:"keyword"`
	ID      string `yaml:"id"`
}

// Table is an ordered keyword list evaluated first-match-wins. More specific
// keywords must precede the generic ones they contain.
type Table []Entry

// DefaultOSTable is the built-in operating system table.
var DefaultOSTable = Table{
	{Keyword: "windows xp", ID: "windowsxp"},
	{Keyword: "windows 7", ID: "windows-7"},
	{Keyword: "windows 10", ID: "windows-10"},
	{Keyword: "windows 11", ID: "windows-11"},
	{Keyword: "windows", ID: "windows"},
	{Keyword: "ubuntu", ID: "ubuntu"},
	{Keyword: "debian", ID: "debian"},
	{Keyword: "centos", ID: "centos"},
	{Keyword: "red hat enterprise linux", ID: "rhel"},
	{Keyword: "rhel", ID: "rhel"},
	{Keyword: "macos", ID: "macos"},
	{Keyword: "mac os", ID: "macos"},
}

// DefaultAppTable is the built-in application table. Business and lab
// software is usually absent from the public catalog and falls through.
var DefaultAppTable = Table{
	{Keyword: "java", ID: "java"},
	{Keyword: "python", ID: "python"},
	{Keyword: "nodejs", ID: "nodejs"},
	{Keyword: "node.js", ID: "nodejs"},
	{Keyword: "php", ID: "php"},
	{Keyword: "mysql", ID: "mysql"},
	{Keyword: "postgresql", ID: "postgresql"},
	{Keyword: "mongodb", ID: "mongodb"},
	{Keyword: "redis", ID: "redis"},
	{Keyword: "nginx", ID: "nginx"},
	{Keyword: "apache", ID: "apache"},
	{Keyword: "docker", ID: "docker"},
	{Keyword: "kubernetes", ID: "kubernetes"},
}

// Validate rejects empty entries and entries that can never match because
// an earlier keyword is contained in them.
func (t Table) Validate() error {
	for i, e := range t {
		if strings.TrimSpace(e.Keyword) == "" || strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("entry %d: keyword and id are required", i)
		}
		kw := strings.ToLower(strings.TrimSpace(e.Keyword))
		for j := 0; j < i; j++ {
			earlier := strings.ToLower(strings.TrimSpace(t[j].Keyword))
			if strings.Contains(kw, earlier) {
				return fmt.Errorf("entry %d (%q) is shadowed by entry %d (%q)", i, e.Keyword, j, t[j].Keyword)
			}
		}
	}
	return nil
}

func (t Table) lookup(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", false
	}
	for _, e := range t {
		if strings.Contains(name, e.Keyword) {
			return e.ID, true
		}
	}
	return "", false
}

func (t Table) normalized() Table {
	out := make(Table, len(t))
	for i, e := range t {
		out[i] = Entry{
			Keyword: strings.ToLower(strings.TrimSpace(e.Keyword)),
			ID:      strings.TrimSpace(e.ID),
		}
	}
	return out
}

// Normalizer resolves product names against immutable OS and application tables.
type Normalizer struct {
	os   Table
	apps Table
}

// NewNormalizer copies both tables so later changes by the caller have no effect.
func NewNormalizer(osTable, appTable Table) (*Normalizer, error) {
	if err := osTable.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OS table: %w", err)
	}
	if err := appTable.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application table: %w", err)
	}
	return &Normalizer{
		os:   osTable.normalized(),
		apps: appTable.normalized(),
	}, nil
}

// DefaultNormalizer uses the built-in tables.
func DefaultNormalizer() *Normalizer {
	return &Normalizer{
		os:   DefaultOSTable.normalized(),
		apps: DefaultAppTable.normalized(),
	}
}

// NormalizeOS returns the catalog identifier for an OS name.
// The second return is false when the OS is not in the catalog.
func (n *Normalizer) NormalizeOS(raw string) (string, bool) {
	return n.os.lookup(raw)
}

// NormalizeApp returns the catalog identifier for an application name.
func (n *Normalizer) NormalizeApp(raw string) (string, bool) {
	return n.apps.lookup(raw)
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(Windows\s*(?:XP|7|8|10|11))\s*([^,\n]*)`),
	regexp.MustCompile(`(?i)(Ubuntu)\s*(\d+\.\d+)`),
	regexp.MustCompile(`(?i)(Debian)\s*(\d+)`),
	regexp.MustCompile(`(?i)(CentOS)\s*(\d+)`),
}

// ExtractNameAndVersion splits a combined "name version" string using the
// first matching known pattern. Unrecognised input is returned whole as the
// name with an empty version.
func ExtractNameAndVersion(combined string) (name, version string) {
	if strings.TrimSpace(combined) == "" {
		return "", ""
	}
	for _, re := range versionPatterns {
		if m := re.FindStringSubmatch(combined); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	return combined, ""
}
