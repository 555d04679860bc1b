package analyzer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/daimoniac/eoltrack/internal/catalog"
	"github.com/daimoniac/eoltrack/internal/eol"
	"github.com/daimoniac/eoltrack/internal/estimator"
	"github.com/daimoniac/eoltrack/internal/lifecycle"
	"github.com/daimoniac/eoltrack/internal/types"
)

var testNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func date(s string) *time.Time {
	t, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func flag(b bool) *bool { return &b }

func testGateway() eol.StaticGateway {
	return eol.StaticGateway{
		"windows-10": {
			{Cycle: "10-22h2", EOL: eol.DateOrFlag{Date: date("2025-10-14")}, Support: eol.DateOrFlag{Date: date("2025-10-14")}},
			{Cycle: "10-21h2", EOL: eol.DateOrFlag{Date: date("2024-06-11")}},
		},
		"windows-11": {
			{Cycle: "11-24h2", EOL: eol.DateOrFlag{Date: date("2029-10-09")}},
		},
		"ubuntu": {
			{Cycle: "24.04", EOL: eol.DateOrFlag{Date: date("2029-05-31")}},
			{Cycle: "22.04", EOL: eol.DateOrFlag{Date: date("2027-06-01")}, Support: eol.DateOrFlag{Date: date("2024-09-30")}},
			{Cycle: "20.04", EOL: eol.DateOrFlag{Date: date("2025-05-29")}},
		},
		"java": {
			{Cycle: "21", EOL: eol.DateOrFlag{Flag: flag(false)}},
			{Cycle: "17", EOL: eol.DateOrFlag{Date: date("2028-03-15")}},
			{Cycle: "8", EOL: eol.DateOrFlag{Flag: flag(true)}},
		},
	}
}

func newTestAnalyzer(gw eol.Gateway, fallback OSFallback, client estimator.EstimationClient) *Analyzer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	classifier := lifecycle.NewClassifier(clock)
	est := estimator.New(client, nil, clock, logger)
	return New(catalog.DefaultNormalizer(), gw, classifier, est, fallback, logger)
}

func osObs(name, version string, equipment ...string) types.ProductObservation {
	return types.ProductObservation{Name: name, Version: version, ProductType: types.ProductTypeOS, EquipmentNames: equipment}
}

func appObs(name, version string, equipment ...string) types.ProductObservation {
	return types.ProductObservation{Name: name, Version: version, ProductType: types.ProductTypeApplication, EquipmentNames: equipment}
}

func TestClassifyOperatingSystems(t *testing.T) {
	a := newTestAnalyzer(testGateway(), OSFallbackDrop, nil)

	tests := []struct {
		name       string
		obs        types.ProductObservation
		wantOK     bool
		wantStatus types.Status
		wantEOL    string
	}{
		{"windows 10 past eol", osObs("Windows 10", "22H2", "PC-01"), true, types.StatusCritical, "2025-10-14"},
		{"windows 11 supported", osObs("Windows 11", "24H2", "PC-02"), true, types.StatusLow, "2029-10-09"},
		{"ubuntu with minor version", osObs("Ubuntu", "22.04", "SRV-01"), true, types.StatusHigh, "2027-06-01"},
		{"ubuntu without version uses first cycle", osObs("Ubuntu", "", "SRV-02"), true, types.StatusLow, "2029-05-31"},
		{"unknown os is dropped", osObs("FreeBSD", "13", "SRV-03"), false, "", ""},
		{"catalog miss is dropped", osObs("Debian", "12", "SRV-04"), false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := a.Classify(context.Background(), tt.obs)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", c.Status, tt.wantStatus)
			}
			if got := types.FormatDate(c.EOLDate); got == nil || *got != tt.wantEOL {
				t.Errorf("EOLDate = %v, want %s", got, tt.wantEOL)
			}
			if c.Source != types.SourceReferenceDataset || c.Confidence != types.ConfidenceHigh {
				t.Errorf("unexpected provenance %s/%s", c.Source, c.Confidence)
			}
			if c.ProductName != tt.obs.Name || c.Version != tt.obs.Version {
				t.Errorf("identity changed: %q %q", c.ProductName, c.Version)
			}
			if !c.LastUpdated.Equal(testNow) {
				t.Errorf("LastUpdated = %v, want %v", c.LastUpdated, testNow)
			}
		})
	}
}

func TestClassifyOSHeuristicFallback(t *testing.T) {
	a := newTestAnalyzer(testGateway(), OSFallbackHeuristic, nil)

	c, ok := a.Classify(context.Background(), osObs("FreeBSD", "13", "SRV-03"))
	if !ok {
		t.Fatal("expected unresolved OS to be estimated with the heuristic fallback")
	}
	if c.Source != types.SourceHeuristicEstimation || c.Confidence != types.ConfidenceLow {
		t.Errorf("unexpected provenance %s/%s", c.Source, c.Confidence)
	}
}

func TestClassifyApplications(t *testing.T) {
	a := newTestAnalyzer(testGateway(), OSFallbackDrop, nil)

	tests := []struct {
		name           string
		obs            types.ProductObservation
		wantSource     types.Source
		wantStatus     types.Status
		wantRecommends string
	}{
		{"java 17 from catalog", appObs("Java Runtime", "17", "PC-01"), types.SourceReferenceDataset, types.StatusMedium, ""},
		{"java 8 flagged eol", appObs("Java", "8", "PC-01"), types.SourceReferenceDataset, types.StatusCritical, "Upgrade to 21"},
		{"java 21 without date", appObs("Java", "21", "PC-01"), types.SourceReferenceDataset, types.StatusUnknown, ""},
		{"lab software estimated", appObs("ChromatoSuite", "2.0", "LAB-01"), types.SourceHeuristicEstimation, types.StatusMedium, "Plan migration before 2031"},
		{"legacy software estimated", appObs("LegacyApp", "1.0", "PC-02"), types.SourceHeuristicEstimation, types.StatusCritical, "Plan migration before 2027"},
		{"known app missing from catalog", appObs("Redis", "7", "SRV-01"), types.SourceHeuristicEstimation, types.StatusLow, "Plan migration before 2029"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := a.Classify(context.Background(), tt.obs)
			if !ok {
				t.Fatal("applications must always be classified")
			}
			if c.Source != tt.wantSource {
				t.Errorf("Source = %v, want %v", c.Source, tt.wantSource)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", c.Status, tt.wantStatus)
			}
			if c.Recommendation != tt.wantRecommends {
				t.Errorf("Recommendation = %q, want %q", c.Recommendation, tt.wantRecommends)
			}
		})
	}
}

func TestReferenceRecommendationWithoutNewerCycle(t *testing.T) {
	gw := eol.StaticGateway{"windows-10": {{Cycle: "10-22h2", EOL: eol.DateOrFlag{Date: date("2025-10-14")}}}}
	a := newTestAnalyzer(gw, OSFallbackDrop, nil)

	c, ok := a.Classify(context.Background(), osObs("Windows 10", "22H2", "PC-01"))
	if !ok {
		t.Fatal("expected classification")
	}
	if !strings.HasPrefix(c.Recommendation, "Plan replacement") {
		t.Errorf("Recommendation = %q", c.Recommendation)
	}
}

type fakeModel struct{ reply string }

func (f fakeModel) Complete(context.Context, string, string) (string, error) { return f.reply, nil }

func TestClassifyApplicationWithModel(t *testing.T) {
	model := fakeModel{reply: `{"eol_date":"2027-01-31","support_end_date":"2026-12-31","criticality":"High","recommendation":"Upgrade to LabSolutions 6","confidence":"High"}`}
	a := newTestAnalyzer(testGateway(), OSFallbackDrop, model)

	c, _ := a.Classify(context.Background(), appObs("LabSolutions", "5.1", "LAB-01"))
	if c.Source != types.SourceAIEstimation {
		t.Fatalf("Source = %v, want ai-estimation", c.Source)
	}
	if c.Confidence == types.ConfidenceHigh {
		t.Error("estimated classifications must never carry high confidence")
	}
	if c.Recommendation != "Upgrade to LabSolutions 6" {
		t.Errorf("Recommendation = %q", c.Recommendation)
	}
}

type panickingGateway struct {
	inner   eol.Gateway
	poison  string
	fetched []string
}

func (p *panickingGateway) Fetch(ctx context.Context, id string) eol.LookupResult {
	p.fetched = append(p.fetched, id)
	if id == p.poison {
		panic("connection reset")
	}
	return p.inner.Fetch(ctx, id)
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	gw := &panickingGateway{inner: testGateway(), poison: "windows-10"}
	a := newTestAnalyzer(gw, OSFallbackDrop, nil)

	results := a.AnalyzeBatch(context.Background(), []types.ProductObservation{
		osObs("Windows 10", "22H2", "PC-01"),
		osObs("Ubuntu", "22.04", "SRV-01"),
		appObs("Java", "17", "PC-01"),
		appObs("GenericTool", "1.0", "PC-01"),
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 classifications, got %d", len(results))
	}
	for _, c := range results {
		if c.ProductName == "Windows 10" {
			t.Error("operating system with a failed lookup must be dropped")
		}
	}
	if len(gw.fetched) != 3 {
		t.Errorf("expected every catalog product to be looked up, got %v", gw.fetched)
	}
}

func TestAnalyzeBatchFailedLookupFallsBackForApplications(t *testing.T) {
	gw := &panickingGateway{inner: testGateway(), poison: "java"}
	a := newTestAnalyzer(gw, OSFallbackDrop, nil)

	results := a.AnalyzeBatch(context.Background(), []types.ProductObservation{
		appObs("Java", "17", "PC-01"),
		osObs("Ubuntu", "22.04", "SRV-01"),
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 classifications, got %d", len(results))
	}
	java := results[0]
	if java.ProductName != "Java" {
		t.Fatalf("expected Java first, got %q", java.ProductName)
	}
	if java.Source != types.SourceHeuristicEstimation {
		t.Errorf("Source = %q, want heuristic estimation", java.Source)
	}
	if java.EOLDate == nil {
		t.Error("expected an estimated eol date")
	}
}

func TestAnalyzeBatchUniqueKeys(t *testing.T) {
	a := newTestAnalyzer(testGateway(), OSFallbackHeuristic, nil)
	observations := ExtractObservations(sampleInventory())

	results := a.AnalyzeBatch(context.Background(), observations)
	if len(results) != len(observations) {
		t.Fatalf("expected %d classifications, got %d", len(observations), len(results))
	}

	seen := make(map[string]bool)
	for i := range results {
		key := results[i].Key()
		if seen[key] {
			t.Errorf("duplicate classification %q", key)
		}
		seen[key] = true
	}
}

func TestParseOSFallback(t *testing.T) {
	tests := []struct {
		in      string
		want    OSFallback
		wantErr bool
	}{
		{"", OSFallbackDrop, false},
		{"drop", OSFallbackDrop, false},
		{"Heuristic", OSFallbackHeuristic, false},
		{"estimate", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOSFallback(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOSFallback(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestApplicationNeverDroppedProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	a := newTestAnalyzer(testGateway(), OSFallbackDrop, nil)

	properties.Property("every application observation yields exactly one classification", prop.ForAll(
		func(name, version string) bool {
			if strings.TrimSpace(name) == "" {
				name = "x"
			}
			results := a.AnalyzeBatch(context.Background(), []types.ProductObservation{appObs(name, version, "PC-01")})
			return len(results) == 1 &&
				results[0].ProductType == types.ProductTypeApplication &&
				results[0].ProductName == name
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("estimated classifications never carry high confidence", prop.ForAll(
		func(name string) bool {
			c, _ := a.Classify(context.Background(), appObs("custom-"+name, "1", "PC-01"))
			return c.Source == types.SourceReferenceDataset || c.Confidence != types.ConfidenceHigh
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
