package estimator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/types"
)

type fakeClient struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeClient) Complete(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

var testNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func TestEstimateDefault(t *testing.T) {
	tests := []struct {
		name       string
		product    string
		wantStatus types.Status
		wantYear   int
	}{
		{"legacy", "LegacyApp", types.StatusCritical, 2027},
		{"old", "Old Inventory Tool", types.StatusCritical, 2027},
		{"deprecated", "deprecated-reporting", types.StatusCritical, 2027},
		{"chromatography", "ChromatoSuite", types.StatusMedium, 2031},
		{"spectrometry", "SpectraManager", types.StatusMedium, 2031},
		{"lab", "LabSolutions", types.StatusMedium, 2031},
		{"generic", "GenericTool", types.StatusLow, 2029},
		{"empty", "", types.StatusLow, 2029},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := EstimateDefault(tt.product, "1.0", testNow)

			if est.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", est.Status, tt.wantStatus)
			}
			if est.EOLDate == nil || !est.EOLDate.Equal(types.EndOfYear(tt.wantYear)) {
				t.Errorf("EOLDate = %v, want %d-12-31", est.EOLDate, tt.wantYear)
			}
			if est.SupportEndDate == nil || !est.SupportEndDate.Equal(types.EndOfYear(tt.wantYear-1)) {
				t.Errorf("SupportEndDate = %v, want %d-12-31", est.SupportEndDate, tt.wantYear-1)
			}
			if est.Confidence != types.ConfidenceLow {
				t.Errorf("Confidence = %v, want Low", est.Confidence)
			}
			if est.Source != types.SourceHeuristicEstimation {
				t.Errorf("Source = %v, want heuristic-estimation", est.Source)
			}
			if want := fmt.Sprintf("Plan migration before %d", tt.wantYear); est.Recommendation != want {
				t.Errorf("Recommendation = %q, want %q", est.Recommendation, want)
			}
		})
	}
}

func TestHeuristicValidate(t *testing.T) {
	if err := DefaultHeuristic.Validate(); err != nil {
		t.Errorf("default heuristic invalid: %v", err)
	}

	bad := Heuristic{{Keywords: []string{"x"}, Status: types.StatusUnknown, YearsAhead: 1}}
	if err := bad.Validate(); err == nil {
		t.Error("expected Unknown status to be rejected")
	}

	negative := Heuristic{{Status: types.StatusLow, YearsAhead: -1}}
	if err := negative.Validate(); err == nil {
		t.Error("expected negative horizon to be rejected")
	}
}

func TestCustomHeuristicFallsBack(t *testing.T) {
	h := Heuristic{{Keywords: []string{"sap"}, Status: types.StatusHigh, YearsAhead: 2}}

	if est := h.Estimate("SAP GUI", "7.70", testNow); est.Status != types.StatusHigh {
		t.Errorf("expected configured tier to match, got %v", est.Status)
	}
	if est := h.Estimate("Notepad++", "8", testNow); est.Status != FallbackTier.Status {
		t.Errorf("expected fallback tier, got %v", est.Status)
	}
}

func TestParseReply(t *testing.T) {
	valid := `{"eol_date":"2030-06-30","support_end_date":"2029-06-30","criticality":"Medium","recommendation":"Plan upgrade","confidence":"Medium","source":"AI Estimation"}`

	tests := []struct {
		name           string
		raw            string
		wantErr        bool
		wantConfidence types.Confidence
	}{
		{"valid", valid, false, types.ConfidenceMedium},
		{"code fence", "```json\n" + valid + "\n```", false, types.ConfidenceMedium},
		{"high confidence is capped", strings.Replace(valid, `"confidence":"Medium"`, `"confidence":"High"`, 1), false, types.ConfidenceMedium},
		{"no support date", `{"eol_date":"2030-06-30","criticality":"Low","confidence":"Low"}`, false, types.ConfidenceLow},
		{"empty", "", true, ""},
		{"prose", "I think it ends in 2030.", true, ""},
		{"bad eol date", strings.Replace(valid, "2030-06-30", "mid 2030", 1), true, ""},
		{"missing eol date", `{"criticality":"Low","confidence":"Low"}`, true, ""},
		{"bad support date", strings.Replace(valid, "2029-06-30", "soon", 1), true, ""},
		{"bad criticality", strings.Replace(valid, `"Medium","recommendation"`, `"Severe","recommendation"`, 1), true, ""},
		{"unknown criticality", strings.Replace(valid, `"Medium","recommendation"`, `"Unknown","recommendation"`, 1), true, ""},
		{"bad confidence", strings.Replace(valid, `"confidence":"Medium"`, `"confidence":"Sure"`, 1), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := ParseReply(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", est)
				}
				if !errors.Is(err, errors.ErrMalformedResponse) {
					t.Errorf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReply() error = %v", err)
			}
			if est.Source != types.SourceAIEstimation {
				t.Errorf("Source = %v, want ai-estimation", est.Source)
			}
			if est.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", est.Confidence, tt.wantConfidence)
			}
			if est.EOLDate == nil {
				t.Error("expected EOL date")
			}
		})
	}
}

func TestEstimatorUsesModelWhenAvailable(t *testing.T) {
	client := &fakeClient{reply: `{"eol_date":"2028-12-31","support_end_date":"2027-12-31","criticality":"High","recommendation":"Migrate to v9","confidence":"Medium"}`}
	e := New(client, nil, clock, nil)

	est := e.Estimate(context.Background(), "LabSolutions", "5.2")

	if client.calls != 1 {
		t.Fatalf("expected one model call, got %d", client.calls)
	}
	if !strings.Contains(client.prompt, "LabSolutions") || !strings.Contains(client.prompt, "5.2") {
		t.Errorf("prompt does not name the product: %s", client.prompt)
	}
	if est.Source != types.SourceAIEstimation || est.Status != types.StatusHigh {
		t.Errorf("unexpected estimate %+v", est)
	}
	if est.Recommendation != "Migrate to v9" {
		t.Errorf("Recommendation = %q", est.Recommendation)
	}
}

func TestEstimatorFallsBackOnModelFailure(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"transport error", &fakeClient{err: errors.NewTransientf("connection refused")}},
		{"malformed reply", &fakeClient{reply: `{"eol_date":"never"}`}},
		{"partial reply", &fakeClient{reply: `{"eol_date":"2030-01-01","criticality":"Medium"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.client, nil, clock, nil)
			est := e.Estimate(context.Background(), "LegacyApp", "1.0")

			if est.Source != types.SourceHeuristicEstimation {
				t.Errorf("Source = %v, want heuristic-estimation", est.Source)
			}
			if est.Status != types.StatusCritical {
				t.Errorf("Status = %v, want Critical", est.Status)
			}
		})
	}
}

func TestEstimatorWithoutModel(t *testing.T) {
	e := New(nil, nil, clock, nil)
	if e.ModelEnabled() {
		t.Error("expected model tier to be disabled")
	}
	if est := e.Estimate(context.Background(), "GenericTool", "1.0"); est.Source != types.SourceHeuristicEstimation {
		t.Errorf("Source = %v, want heuristic-estimation", est.Source)
	}
}

func TestBuildPrompt(t *testing.T) {
	if p := BuildPrompt("Empower", ""); !strings.Contains(p, "Version: unknown") {
		t.Errorf("expected unknown version placeholder, got %s", p)
	}
}

func TestNewOllamaClient(t *testing.T) {
	if _, err := NewOllamaClient("", "", 0, nil); err == nil {
		t.Error("expected empty host to be rejected")
	}
	if _, err := NewOllamaClient("http://[::1", "", 0, nil); err == nil {
		t.Error("expected invalid URL to be rejected")
	}

	c, err := NewOllamaClient("http://localhost:11434", "", 0, nil)
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}
	if c.model != DefaultModel || c.timeout != DefaultTimeout {
		t.Errorf("expected defaults, got model=%q timeout=%v", c.model, c.timeout)
	}
}

func TestOllamaPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
	}))
	defer ts.Close()

	c, err := NewOllamaClient(ts.URL, "", 0, nil)
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down, err := NewOllamaClient(ts.URL+"/missing", "", 0, nil)
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}
	if err := down.Ping(context.Background()); !errors.IsPermanent(err) {
		t.Errorf("Ping() on 404 = %v, want permanent error", err)
	}

	ts.Close()
	if err := c.Ping(context.Background()); !errors.IsTransient(err) {
		t.Errorf("Ping() on closed server = %v, want transient error", err)
	}
}

func TestOllamaCompleteReleasesHungRequest(t *testing.T) {
	released := make(chan struct{}, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		<-r.Context().Done()
		released <- struct{}{}
	}))
	defer ts.Close()

	c, err := NewOllamaClient(ts.URL, "", 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}
	if c.client.Http.Timeout != c.timeout {
		t.Errorf("http client timeout = %v, want %v", c.client.Http.Timeout, c.timeout)
	}

	if _, err := c.Complete(context.Background(), "system", "prompt"); !errors.Is(err, errors.ErrTimeout) {
		t.Errorf("Complete() error = %v, want timeout", err)
	}

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("generate request still open after the timeout")
	}
}

func TestHeuristicProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("heuristic always yields a dated low-confidence estimate", prop.ForAll(
		func(name, version string) bool {
			est := EstimateDefault(name, version, testNow)
			return est.EOLDate != nil &&
				est.SupportEndDate != nil &&
				est.SupportEndDate.Year() == est.EOLDate.Year()-1 &&
				est.EOLDate.Month() == time.December && est.EOLDate.Day() == 31 &&
				est.Confidence == types.ConfidenceLow &&
				est.Status != types.StatusUnknown
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("legacy names are always critical one year ahead", prop.ForAll(
		func(prefix, suffix string) bool {
			est := EstimateDefault(prefix+"Legacy"+suffix, "", testNow)
			return est.Status == types.StatusCritical && est.EOLDate.Year() == testNow.Year()+1
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
