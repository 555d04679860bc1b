package policy

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/daimoniac/eoltrack/internal/types"
)

var now = time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)

func classification(status types.Status, eolInDays *int, equipment ...string) *types.Classification {
	c := &types.Classification{
		ProductName:    "Windows",
		Version:        "10",
		ProductType:    types.ProductTypeOS,
		Status:         status,
		Source:         types.SourceReferenceDataset,
		Confidence:     types.ConfidenceHigh,
		EquipmentNames: equipment,
	}
	if eolInDays != nil {
		d := now.AddDate(0, 0, *eolInDays)
		c.EOLDate = &d
	}
	return c
}

func days(n int) *int { return &n }

func TestEngine_DefaultPolicy(t *testing.T) {
	engine, err := NewEngine(slog.Default(), PolicyConfig{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if engine.Expression() != DefaultExpression {
		t.Errorf("expected default expression, got %q", engine.Expression())
	}

	tests := []struct {
		status types.Status
		want   bool
	}{
		{types.StatusCritical, true},
		{types.StatusHigh, true},
		{types.StatusMedium, false},
		{types.StatusLow, false},
		{types.StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			decision, err := engine.Evaluate(context.Background(), classification(tt.status, nil, "PC-01"), now)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if decision.Alert != tt.want {
				t.Errorf("Alert = %v, want %v", decision.Alert, tt.want)
			}
			if decision.Alert && decision.Reason == "" {
				t.Error("expected a reason for raised alerts")
			}
		})
	}
}

func TestEngine_CustomPolicy(t *testing.T) {
	engine, err := NewEngine(nil, PolicyConfig{
		Expression: `hasEolDate && daysUntilEol < 180 && equipmentCount >= 2`,
		Message:    "end of life within six months on several machines",
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name string
		c    *types.Classification
		want bool
	}{
		{"soon on two machines", classification(types.StatusHigh, days(90), "PC-01", "PC-02"), true},
		{"soon on one machine", classification(types.StatusHigh, days(90), "PC-01"), false},
		{"far away", classification(types.StatusLow, days(900), "PC-01", "PC-02"), false},
		{"no date", classification(types.StatusUnknown, nil, "PC-01", "PC-02"), false},
		{"already past", classification(types.StatusCritical, days(-30), "PC-01", "PC-02"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Evaluate(context.Background(), tt.c, now)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if decision.Alert != tt.want {
				t.Errorf("Alert = %v, want %v", decision.Alert, tt.want)
			}
			if decision.Alert && decision.Reason != "end of life within six months on several machines" {
				t.Errorf("unexpected reason %q", decision.Reason)
			}
		})
	}
}

func TestEngine_EquipmentNamesVariable(t *testing.T) {
	engine, err := NewEngine(nil, PolicyConfig{Expression: `"LAB-HPLC-01" in equipmentNames`})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	decision, err := engine.Evaluate(context.Background(), classification(types.StatusLow, nil, "LAB-HPLC-01"), now)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !decision.Alert {
		t.Error("expected alert for listed equipment")
	}

	decision, err = engine.Evaluate(context.Background(), classification(types.StatusLow, nil), now)
	if err != nil {
		t.Fatalf("Evaluate() with no equipment error = %v", err)
	}
	if decision.Alert {
		t.Error("expected no alert without equipment")
	}
}

func TestNewEngine_InvalidExpressions(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"syntax error", `status ==`},
		{"unknown variable", `severity == "HIGH"`},
		{"not boolean", `equipmentCount + 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(nil, PolicyConfig{Expression: tt.expression}); err == nil {
				t.Errorf("expected error for %q", tt.expression)
			}
		})
	}
}

func TestEngine_NilClassification(t *testing.T) {
	engine, err := NewEngine(nil, PolicyConfig{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Evaluate(context.Background(), nil, now); err == nil {
		t.Error("expected error for nil classification")
	}
}
