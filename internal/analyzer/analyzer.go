// Package analyzer classifies the products found in the inventory by their
// end-of-life risk.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/catalog"
	"github.com/daimoniac/eoltrack/internal/eol"
	"github.com/daimoniac/eoltrack/internal/estimator"
	"github.com/daimoniac/eoltrack/internal/lifecycle"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/types"
)

// OSFallback controls what happens to an operating system the reference
// catalog cannot resolve.
type OSFallback string

const (
	// OSFallbackDrop omits unresolved operating systems from the results.
	OSFallbackDrop OSFallback = "drop"
	// OSFallbackHeuristic estimates them like applications.
	OSFallbackHeuristic OSFallback = "heuristic"
)

// ParseOSFallback accepts "drop" and "heuristic"; empty means drop.
func ParseOSFallback(s string) (OSFallback, error) {
	switch OSFallback(strings.ToLower(strings.TrimSpace(s))) {
	case "", OSFallbackDrop:
		return OSFallbackDrop, nil
	case OSFallbackHeuristic:
		return OSFallbackHeuristic, nil
	}
	return "", fmt.Errorf("invalid OS fallback %q (expected drop or heuristic)", s)
}

// Analyzer turns product observations into classifications.
type Analyzer struct {
	normalizer *catalog.Normalizer
	gateway    eol.Gateway
	classifier *lifecycle.Classifier
	estimator  *estimator.Estimator
	osFallback OSFallback
	logger     *slog.Logger
}

// New creates an analyzer. Nil normalizer, classifier and estimator use the
// built-in defaults.
func New(normalizer *catalog.Normalizer, gateway eol.Gateway, classifier *lifecycle.Classifier, est *estimator.Estimator, osFallback OSFallback, logger *slog.Logger) *Analyzer {
	if normalizer == nil {
		normalizer = catalog.DefaultNormalizer()
	}
	if classifier == nil {
		classifier = lifecycle.NewClassifier(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if est == nil {
		est = estimator.New(nil, nil, classifier.Now, logger)
	}
	if osFallback == "" {
		osFallback = OSFallbackDrop
	}
	return &Analyzer{
		normalizer: normalizer,
		gateway:    gateway,
		classifier: classifier,
		estimator:  est,
		osFallback: osFallback,
		logger:     logger,
	}
}

// AnalyzeBatch classifies each observation in turn. A failure on one
// observation never prevents the others from being classified.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, observations []types.ProductObservation) []types.Classification {
	metrics := observability.GetMetrics()
	results := make([]types.Classification, 0, len(observations))

	for _, obs := range observations {
		c, ok := a.classifyIsolated(ctx, obs)
		if !ok {
			metrics.ProductsDropped.Inc()
			continue
		}
		metrics.ProductsClassified.WithLabelValues(string(c.ProductType), string(c.Source)).Inc()
		results = append(results, c)
	}

	return results
}

func (a *Analyzer) classifyIsolated(ctx context.Context, obs types.ProductObservation) (c types.Classification, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("classification panicked",
				"product", obs.Name,
				"version", obs.Version,
				"type", obs.ProductType,
				"panic", fmt.Sprint(r))
			c, ok = types.Classification{}, false
		}
	}()
	return a.Classify(ctx, obs)
}

// Classify classifies a single observation. ok is false when an operating
// system cannot be resolved and the drop fallback is configured.
func (a *Analyzer) Classify(ctx context.Context, obs types.ProductObservation) (types.Classification, bool) {
	switch obs.ProductType {
	case types.ProductTypeOS:
		return a.classifyOS(ctx, obs)
	default:
		return a.classifyApplication(ctx, obs), true
	}
}

func (a *Analyzer) classifyOS(ctx context.Context, obs types.ProductObservation) (types.Classification, bool) {
	combined := strings.TrimSpace(obs.Name + " " + obs.Version)
	name, version := catalog.ExtractNameAndVersion(combined)
	if version == "" {
		version = obs.Version
	}

	if id, found := a.normalizer.NormalizeOS(name); found {
		if res := a.lookup(ctx, id); res.Found {
			return a.fromCycles(obs, id, res.Cycles, version), true
		}
	}

	if a.osFallback == OSFallbackHeuristic {
		return a.fromEstimate(ctx, obs), true
	}

	a.logger.Info("operating system not in reference catalog, dropped",
		"product", obs.Name,
		"version", obs.Version,
		"equipment_count", obs.EquipmentCount())
	return types.Classification{}, false
}

func (a *Analyzer) classifyApplication(ctx context.Context, obs types.ProductObservation) types.Classification {
	if id, found := a.normalizer.NormalizeApp(obs.Name); found {
		if res := a.lookup(ctx, id); res.Found {
			return a.fromCycles(obs, id, res.Cycles, obs.Version)
		}
	}
	return a.fromEstimate(ctx, obs)
}

// lookup fetches reference data. A gateway that panics is treated as not found.
func (a *Analyzer) lookup(ctx context.Context, id string) (res eol.LookupResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("reference lookup panicked, treating as not found",
				"product_id", id,
				"panic", fmt.Sprint(r))
			observability.GetMetrics().CatalogLookups.WithLabelValues("error").Inc()
			res = eol.NotFound
		}
	}()
	return a.gateway.Fetch(ctx, id)
}

func (a *Analyzer) fromCycles(obs types.ProductObservation, canonicalID string, cycles []eol.ReleaseCycle, version string) types.Classification {
	match := lifecycle.SelectBestMatch(cycles, version)
	status, eolDate := a.classifier.ClassifyCycle(*match)

	a.logger.Debug("matched reference cycle",
		"product", obs.Name,
		"canonical_id", canonicalID,
		"version", version,
		"cycle", match.Cycle,
		"status", status)

	c := a.newClassification(obs)
	c.EOLDate = eolDate
	c.SupportEndDate = match.Support.Date
	c.Status = status
	c.Source = types.SourceReferenceDataset
	c.Confidence = types.ConfidenceHigh
	c.Recommendation = upgradeRecommendation(status, match, lifecycle.LatestCycle(cycles))
	return c
}

func upgradeRecommendation(status types.Status, current, latest *eol.ReleaseCycle) string {
	if !status.IsAtRisk() {
		return ""
	}
	if latest == nil || latest.Cycle == current.Cycle {
		return "Plan replacement, no newer release cycle is available"
	}
	return fmt.Sprintf("Upgrade to %s", latest.Cycle)
}

func (a *Analyzer) fromEstimate(ctx context.Context, obs types.ProductObservation) types.Classification {
	est := a.estimator.Estimate(ctx, obs.Name, obs.Version)

	c := a.newClassification(obs)
	c.EOLDate = est.EOLDate
	c.SupportEndDate = est.SupportEndDate
	c.Status = est.Status
	c.Source = est.Source
	c.Confidence = est.Confidence
	c.Recommendation = est.Recommendation
	return c
}

// Now returns the analyzer's current time, the reference for day counts.
func (a *Analyzer) Now() time.Time {
	return a.classifier.Now()
}

func (a *Analyzer) newClassification(obs types.ProductObservation) types.Classification {
	now := a.classifier.Now().UTC()
	return types.Classification{
		ProductName:    obs.Name,
		Version:        obs.Version,
		ProductType:    obs.ProductType,
		EquipmentNames: append([]string(nil), obs.EquipmentNames...),
		LastUpdated:    now,
		CreatedAt:      now,
	}
}
