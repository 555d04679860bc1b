package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/daimoniac/eoltrack/internal/types"
)

// DefaultExpression raises alerts for products past or within a year of end of life.
const DefaultExpression = `status == "Critical" || status == "High"`

// AlertPolicy decides which classifications deserve an alert
type AlertPolicy interface {
	Evaluate(ctx context.Context, c *types.Classification, now time.Time) (*Decision, error)
}

// PolicyConfig defines a CEL-based alert policy
type PolicyConfig struct {
	// Expression is the CEL expression that must evaluate to true to raise an alert.
	// Available variables:
	//   - productName, version, productType, status, source, confidence: strings
	//   - equipmentCount: number of affected equipment
	//   - hasEolDate: whether an end-of-life date is known
	//   - daysUntilEol: whole days until end of life (0 when unknown)
	//   - equipmentNames: list of affected equipment names
	Expression string `yaml:"expression" json:"expression"`

	// Message describes raised alerts (optional)
	Message string `yaml:"message" json:"message"`
}

// Decision is the outcome of evaluating the policy for one classification
type Decision struct {
	Alert  bool
	Reason string
}

// Engine implements AlertPolicy using CEL expressions
type Engine struct {
	logger     *slog.Logger
	config     PolicyConfig
	celProgram cel.Program
}

// NewEngine compiles the alert policy. An empty expression uses DefaultExpression.
func NewEngine(logger *slog.Logger, config PolicyConfig) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.Expression == "" {
		config.Expression = DefaultExpression
	}

	env, err := cel.NewEnv(
		cel.Variable("productName", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("productType", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("source", cel.StringType),
		cel.Variable("confidence", cel.StringType),
		cel.Variable("equipmentCount", cel.IntType),
		cel.Variable("hasEolDate", cel.BoolType),
		cel.Variable("daysUntilEol", cel.IntType),
		cel.Variable("equipmentNames", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(config.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile alert policy: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("alert policy must return a boolean, got %v", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Engine{
		logger:     logger,
		config:     config,
		celProgram: program,
	}, nil
}

// Expression returns the compiled expression
func (e *Engine) Expression() string {
	return e.config.Expression
}

// Evaluate runs the policy against one classification
func (e *Engine) Evaluate(ctx context.Context, c *types.Classification, now time.Time) (*Decision, error) {
	if c == nil {
		return nil, fmt.Errorf("classification is nil")
	}

	daysUntil := 0
	if d := c.DaysUntilEOL(now); d != nil {
		daysUntil = *d
	}
	names := c.EquipmentNames
	if names == nil {
		names = []string{}
	}

	out, _, err := e.celProgram.ContextEval(ctx, map[string]interface{}{
		"productName":    c.ProductName,
		"version":        c.Version,
		"productType":    string(c.ProductType),
		"status":         string(c.Status),
		"source":         string(c.Source),
		"confidence":     string(c.Confidence),
		"equipmentCount": c.EquipmentCount(),
		"hasEolDate":     c.EOLDate != nil,
		"daysUntilEol":   daysUntil,
		"equipmentNames": names,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate alert policy: %w", err)
	}

	alert, ok := out.Value().(bool)
	if !ok {
		return nil, fmt.Errorf("alert policy did not return a boolean: %v", out.Value())
	}

	decision := &Decision{Alert: alert}
	if alert {
		decision.Reason = e.config.Message
		if decision.Reason == "" {
			decision.Reason = fmt.Sprintf("%s risk: %s %s", c.Status, c.ProductName, c.Version)
		}
		e.logger.Debug("alert raised",
			"product", c.ProductName,
			"version", c.Version,
			"status", c.Status)
	}
	return decision, nil
}
