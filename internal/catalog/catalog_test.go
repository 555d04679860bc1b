package catalog

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeOS(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Windows 10", "windows-10", true},
		{"  WINDOWS 10 Pro ", "windows-10", true},
		{"Windows 11", "windows-11", true},
		{"Windows XP", "windowsxp", true},
		{"Windows 7", "windows-7", true},
		{"Windows Server 2019", "windows", true},
		{"Ubuntu", "ubuntu", true},
		{"Debian", "debian", true},
		{"CentOS", "centos", true},
		{"Red Hat Enterprise Linux 9", "rhel", true},
		{"RHEL", "rhel", true},
		{"macOS 14", "macos", true},
		{"Mac OS X", "macos", true},
		{"FreeBSD 13", "", false},
		{"", "", false},
		{"?", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.NormalizeOS(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NormalizeOS(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeApp(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Java Runtime", "java", true},
		{"Python", "python", true},
		{"Node.js", "nodejs", true},
		{"nodejs", "nodejs", true},
		{"PHP", "php", true},
		{"MySQL Server", "mysql", true},
		{"PostgreSQL", "postgresql", true},
		{"MongoDB", "mongodb", true},
		{"Redis", "redis", true},
		{"nginx", "nginx", true},
		{"Apache HTTP Server", "apache", true},
		{"Docker Desktop", "docker", true},
		{"Kubernetes", "kubernetes", true},
		{"ChromatoSuite", "", false},
		{"Microsoft Office", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.NormalizeApp(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NormalizeApp(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTableOrderMatters(t *testing.T) {
	generic := Table{
		{Keyword: "windows", ID: "windows"},
		{Keyword: "windows 10", ID: "windows-10"},
	}
	if err := generic.Validate(); err == nil {
		t.Fatal("expected shadowed entry to be rejected")
	}
	if _, err := NewNormalizer(generic, DefaultAppTable); err == nil {
		t.Fatal("expected NewNormalizer to reject a shadowed OS table")
	}

	specific := Table{
		{Keyword: "windows 10", ID: "windows-10"},
		{Keyword: "windows", ID: "windows"},
	}
	n, err := NewNormalizer(specific, DefaultAppTable)
	if err != nil {
		t.Fatalf("NewNormalizer() error = %v", err)
	}
	if got, _ := n.NormalizeOS("Windows 10"); got != "windows-10" {
		t.Errorf("NormalizeOS(Windows 10) = %q, want windows-10", got)
	}
}

func TestTableValidate(t *testing.T) {
	if err := DefaultOSTable.Validate(); err != nil {
		t.Errorf("default OS table invalid: %v", err)
	}
	if err := DefaultAppTable.Validate(); err != nil {
		t.Errorf("default app table invalid: %v", err)
	}
	if err := (Table{{Keyword: "", ID: "x"}}).Validate(); err == nil {
		t.Error("expected empty keyword to be rejected")
	}
	if err := (Table{{Keyword: "x", ID: " "}}).Validate(); err == nil {
		t.Error("expected empty id to be rejected")
	}
}

func TestNewNormalizerCopiesTables(t *testing.T) {
	osTable := Table{{Keyword: "ubuntu", ID: "ubuntu"}}
	n, err := NewNormalizer(osTable, DefaultAppTable)
	if err != nil {
		t.Fatalf("NewNormalizer() error = %v", err)
	}
	osTable[0].ID = "mutated"

	if got, _ := n.NormalizeOS("Ubuntu"); got != "ubuntu" {
		t.Errorf("normalizer observed caller mutation: got %q", got)
	}
}

func TestExtractNameAndVersion(t *testing.T) {
	tests := []struct {
		input       string
		wantName    string
		wantVersion string
	}{
		{"Windows 10 22H2", "Windows 10", "22H2"},
		{"Windows 10", "Windows 10", ""},
		{"windows 11 Pro, French", "windows 11", "Pro"},
		{"Windows XP SP3", "Windows XP", "SP3"},
		{"Ubuntu 22.04", "Ubuntu", "22.04"},
		{"Ubuntu 22.04.3 LTS", "Ubuntu", "22.04"},
		{"Debian 12", "Debian", "12"},
		{"CentOS 7", "CentOS", "7"},
		{"macOS 14", "macOS 14", ""},
		{"Ubuntu", "Ubuntu", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, version := ExtractNameAndVersion(tt.input)
			if name != tt.wantName || version != tt.wantVersion {
				t.Errorf("ExtractNameAndVersion(%q) = (%q, %q), want (%q, %q)",
					tt.input, name, version, tt.wantName, tt.wantVersion)
			}
		})
	}
}

// TestNormalizationDeterminismProperty checks that lookups are pure functions of their input
func TestNormalizationDeterminismProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	n := DefaultNormalizer()

	names := gen.AlphaString()

	properties.Property("NormalizeOS returns the same answer on repeated calls", prop.ForAll(
		func(a, b string) bool {
			first, firstOK := n.NormalizeOS(a)
			_, _ = n.NormalizeOS(b)
			second, secondOK := n.NormalizeOS(a)
			return first == second && firstOK == secondOK
		},
		names, names,
	))

	properties.Property("NormalizeApp returns the same answer on repeated calls", prop.ForAll(
		func(a, b string) bool {
			first, firstOK := n.NormalizeApp(a)
			_, _ = n.NormalizeApp(b)
			second, secondOK := n.NormalizeApp(a)
			return first == second && firstOK == secondOK
		},
		names, names,
	))

	properties.Property("lookups ignore case and surrounding whitespace", prop.ForAll(
		func(s string) bool {
			lower, lowerOK := n.NormalizeOS(strings.ToLower(s))
			upper, upperOK := n.NormalizeOS("  " + strings.ToUpper(s) + "  ")
			return lower == upper && lowerOK == upperOK
		},
		gen.OneConstOf("windows 10", "ubuntu", "debian", "centos", "macos", "freebsd"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
