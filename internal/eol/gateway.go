// Package eol resolves catalog identifiers against the public end-of-life
// reference catalog.
package eol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/observability"
)

const (
	// DefaultBaseURL is the public endoflife.date API.
	DefaultBaseURL = "https://endoflife.date/api"
	// DefaultTimeout bounds a single product lookup.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// Gateway fetches the release cycles of one catalog product.
// Fetch never fails: unreachable or unknown products yield NotFound.
type Gateway interface {
	Fetch(ctx context.Context, productID string) LookupResult
}

// HTTPGateway implements Gateway over the endoflife.date JSON API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPGateway creates a gateway. Empty baseURL and non-positive timeout use the defaults.
func NewHTTPGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPGateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch returns the product's release cycles in catalog order.
func (g *HTTPGateway) Fetch(ctx context.Context, productID string) LookupResult {
	metrics := observability.GetMetrics()
	start := time.Now()
	defer func() {
		metrics.CatalogLookupDuration.Observe(time.Since(start).Seconds())
	}()

	cycles, err := g.fetch(ctx, productID)
	switch {
	case err == nil && len(cycles) > 0:
		metrics.CatalogLookups.WithLabelValues("found").Inc()
		return FoundCycles(cycles)
	case err == nil || errors.Is(err, errors.ErrNotFound):
		metrics.CatalogLookups.WithLabelValues("not_found").Inc()
		g.logger.Debug("product not in reference catalog", "canonical_id", productID)
		return NotFound
	default:
		metrics.CatalogLookups.WithLabelValues("error").Inc()
		g.logger.Warn("reference catalog lookup failed, treating as not found",
			"canonical_id", productID,
			"transient", errors.IsTransient(err),
			"error", err)
		return NotFound
	}
}

func (g *HTTPGateway) fetch(ctx context.Context, productID string) ([]ReleaseCycle, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.NewPermanent(errors.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("%s/%s.json", g.baseURL, url.PathEscape(productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewPermanentf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.NewTransientf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := errors.ClassifyHTTPStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewTransientf("read response: %w", err)
	}

	var cycles []ReleaseCycle
	if err := json.Unmarshal(body, &cycles); err != nil {
		return nil, errors.NewPermanentf("%w: %v", errors.ErrMalformedResponse, err)
	}
	return cycles, nil
}

// StaticGateway serves release cycles from memory. Unknown identifiers are NotFound.
type StaticGateway map[string][]ReleaseCycle

// Fetch implements Gateway.
func (s StaticGateway) Fetch(_ context.Context, productID string) LookupResult {
	return FoundCycles(s[productID])
}
