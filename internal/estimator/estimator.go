// Package estimator produces end-of-life estimates for products the
// reference catalog does not know, first through an optional language model
// and then through deterministic name heuristics.
package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/types"
)

// Estimate is an estimated lifecycle for one product.
type Estimate struct {
	EOLDate        *time.Time
	SupportEndDate *time.Time
	Status         types.Status
	Recommendation string
	Confidence     types.Confidence
	Source         types.Source
}

// EstimationClient sends a prompt to a text completion service and returns the raw reply.
type EstimationClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const systemPrompt = "You are an IT asset lifecycle analyst. You answer only with a single JSON object and no other text."

const promptTemplate = `Estimate the end of life of the following software.

Application: %s
Version: %s

It is likely specialised business or laboratory software that is not listed in public end-of-life catalogs.

Answer with this JSON structure:
{
  "eol_date": "YYYY-MM-DD",
  "support_end_date": "YYYY-MM-DD",
  "criticality": "Low|Medium|High|Critical",
  "recommendation": "migration advice",
  "confidence": "Low|Medium|High"
}

Base the estimate on the probable age of the version, the type of application (business software has longer cycles) and typical vendor support patterns.`

// BuildPrompt renders the estimation request for one product.
func BuildPrompt(name, version string) string {
	if strings.TrimSpace(version) == "" {
		version = "unknown"
	}
	return fmt.Sprintf(promptTemplate, name, version)
}

type estimationReply struct {
	EOLDate        string `json:"eol_date"`
	SupportEndDate string `json:"support_end_date"`
	Criticality    string `json:"criticality"`
	Recommendation string `json:"recommendation"`
	Confidence     string `json:"confidence"`
}

// ParseReply validates a model reply. Anything other than a complete,
// well-formed estimate is rejected as a whole.
func ParseReply(raw string) (Estimate, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Estimate{}, errors.NewPermanentf("%w: empty reply", errors.ErrMalformedResponse)
	}

	var reply estimationReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return Estimate{}, errors.NewPermanentf("%w: %v", errors.ErrMalformedResponse, err)
	}

	eolDate, err := types.ParseDate(reply.EOLDate)
	if err != nil {
		return Estimate{}, errors.NewPermanentf("%w: eol_date: %v", errors.ErrMalformedResponse, err)
	}
	supportEnd, err := types.ParseDatePtr(reply.SupportEndDate)
	if err != nil {
		return Estimate{}, errors.NewPermanentf("%w: support_end_date: %v", errors.ErrMalformedResponse, err)
	}

	status, ok := types.ParseStatus(reply.Criticality)
	if !ok || status == types.StatusUnknown {
		return Estimate{}, errors.NewPermanentf("%w: criticality %q", errors.ErrMalformedResponse, reply.Criticality)
	}
	confidence, ok := types.ParseConfidence(reply.Confidence)
	if !ok {
		return Estimate{}, errors.NewPermanentf("%w: confidence %q", errors.ErrMalformedResponse, reply.Confidence)
	}
	// High confidence is reserved for reference catalog data.
	if confidence == types.ConfidenceHigh {
		confidence = types.ConfidenceMedium
	}

	return Estimate{
		EOLDate:        &eolDate,
		SupportEndDate: supportEnd,
		Status:         status,
		Recommendation: strings.TrimSpace(reply.Recommendation),
		Confidence:     confidence,
		Source:         types.SourceAIEstimation,
	}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Estimator runs the model tier when a client is configured and falls back
// to the keyword heuristic otherwise or on any failure.
type Estimator struct {
	client    EstimationClient
	heuristic Heuristic
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an estimator. A nil client disables the model tier; a nil
// heuristic uses DefaultHeuristic.
func New(client EstimationClient, heuristic Heuristic, now func() time.Time, logger *slog.Logger) *Estimator {
	if heuristic == nil {
		heuristic = DefaultHeuristic
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		client:    client,
		heuristic: heuristic,
		now:       now,
		logger:    logger,
	}
}

// ModelEnabled reports whether the model tier is configured.
func (e *Estimator) ModelEnabled() bool {
	return e.client != nil
}

// Estimate always returns an estimate.
func (e *Estimator) Estimate(ctx context.Context, name, version string) Estimate {
	metrics := observability.GetMetrics()

	if e.client != nil {
		est, err := e.estimateWithModel(ctx, name, version)
		if err == nil {
			metrics.Estimations.WithLabelValues("ai", "success").Inc()
			return est
		}
		metrics.Estimations.WithLabelValues("ai", "failure").Inc()
		e.logger.Warn("model estimation failed, using heuristic",
			"product", name,
			"version", version,
			"error", err)
	}

	metrics.Estimations.WithLabelValues("heuristic", "success").Inc()
	return e.heuristic.Estimate(name, version, e.now())
}

func (e *Estimator) estimateWithModel(ctx context.Context, name, version string) (Estimate, error) {
	raw, err := e.client.Complete(ctx, systemPrompt, BuildPrompt(name, version))
	if err != nil {
		return Estimate{}, err
	}
	return ParseReply(raw)
}
