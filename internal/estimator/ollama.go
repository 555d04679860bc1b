package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JexSrs/go-ollama"

	"github.com/daimoniac/eoltrack/internal/errors"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.1"
	// DefaultTimeout bounds a single completion.
	DefaultTimeout = 60 * time.Second

	maxPromptLength = 8000
)

// OllamaClient implements EstimationClient against an Ollama server.
type OllamaClient struct {
	client  *ollama.Ollama
	baseURL url.URL
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOllamaClient creates a client for the Ollama server at host.
func NewOllamaClient(host, model string, timeout time.Duration, logger *slog.Logger) (*OllamaClient, error) {
	if strings.TrimSpace(host) == "" {
		return nil, errors.NewPermanentf("%w: ollama host is required", errors.ErrInvalidInput)
	}
	ollamaURL, err := url.Parse(host)
	if err != nil {
		return nil, errors.NewPermanentf("invalid ollama host %q: %w", host, err)
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("estimation model configured",
		"host", ollamaURL.Redacted(),
		"model", model)

	client := ollama.New(*ollamaURL)
	// Bounds the request itself; an abandoned Complete must not leave it open.
	client.Http = &http.Client{Timeout: timeout}

	return &OllamaClient{
		client:  client,
		baseURL: *ollamaURL,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

type generateResult struct {
	text string
	err  error
}

// Complete runs a single non-streaming generation. The underlying client
// has no context support, so the call is abandoned on ctx cancellation and
// its result discarded. The HTTP client timeout ends the request itself.
func (c *OllamaClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if len(prompt) > maxPromptLength {
		c.logger.Warn("estimation prompt truncated", "max_length", maxPromptLength)
		prompt = prompt[:maxPromptLength]
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		res, err := c.client.Generate(
			c.client.Generate.WithModel(c.model),
			c.client.Generate.WithSystem(system),
			c.client.Generate.WithPrompt(prompt),
		)
		if err != nil {
			done <- generateResult{err: errors.NewTransientf("ollama generate: %w", err)}
			return
		}
		if !res.Done {
			done <- generateResult{err: errors.NewPermanentf("%w: ollama reply not complete", errors.ErrMalformedResponse)}
			return
		}
		if strings.TrimSpace(res.Response) == "" {
			done <- generateResult{err: errors.NewPermanentf("%w: ollama reply empty", errors.ErrMalformedResponse)}
			return
		}
		done <- generateResult{text: res.Response}
	}()

	select {
	case <-ctx.Done():
		return "", errors.NewTransientf("%w: ollama generate: %v", errors.ErrTimeout, ctx.Err())
	case r := <-done:
		return r.text, r.err
	}
}

// Ping checks the server answers its version endpoint.
func (c *OllamaClient) Ping(ctx context.Context) error {
	endpoint := c.baseURL.JoinPath("api", "version")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return errors.NewPermanentf("build ollama ping request: %w", err)
	}
	resp, err := c.client.Http.Do(req)
	if err != nil {
		return errors.NewTransientf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.ClassifyHTTPStatus(resp.StatusCode)
	}
	return nil
}

// String describes the client for logs.
func (c *OllamaClient) String() string {
	return fmt.Sprintf("ollama(%s)", c.model)
}
