package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/policy"
	"github.com/daimoniac/eoltrack/internal/types"
)

// DefaultAlertLimit is the number of alerts returned when no limit is given.
const DefaultAlertLimit = 5

// ProductRisk is a short view of an at-risk product.
type ProductRisk struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Version        string       `json:"version"`
	Type           string       `json:"type"`
	Status         types.Status `json:"status"`
	EOLDate        *string      `json:"eol_date"`
	EquipmentCount int          `json:"equipment_count"`
}

// Stats aggregates the stored classifications.
type Stats struct {
	TotalTrackedProducts      int            `json:"total_tracked_products"`
	ByStatus                  map[string]int `json:"by_status"`
	ByType                    map[string]int `json:"by_type"`
	CriticalProducts          []ProductRisk  `json:"critical_products"`
	ObsoleteProducts          int            `json:"obsolete_products"`
	EquipmentWithObsoleteOS   int            `json:"equipment_with_obsolete_os"`
	EquipmentWithObsoleteApps int            `json:"equipment_with_obsolete_apps"`
	ObsolescenceRate          float64        `json:"obsolescence_rate"`
}

// Summarize computes risk statistics. Critical and High products count as
// at risk; Critical alone counts as obsolete. The rate is the at-risk
// percentage rounded to one decimal.
func Summarize(classifications []types.Classification) Stats {
	stats := Stats{
		TotalTrackedProducts: len(classifications),
		ByStatus:             make(map[string]int),
		ByType:               make(map[string]int),
		CriticalProducts:     []ProductRisk{},
	}

	atRisk := 0
	for i := range classifications {
		c := &classifications[i]
		stats.ByStatus[string(c.Status)]++
		stats.ByType[string(c.ProductType)]++

		if !c.Status.IsAtRisk() {
			continue
		}
		atRisk++
		stats.CriticalProducts = append(stats.CriticalProducts, ProductRisk{
			ID:             c.ID,
			Name:           c.ProductName,
			Version:        c.Version,
			Type:           string(c.ProductType),
			Status:         c.Status,
			EOLDate:        types.FormatDate(c.EOLDate),
			EquipmentCount: c.EquipmentCount(),
		})

		if c.Status != types.StatusCritical {
			continue
		}
		stats.ObsoleteProducts++
		if c.ProductType == types.ProductTypeOS {
			stats.EquipmentWithObsoleteOS += c.EquipmentCount()
		} else {
			stats.EquipmentWithObsoleteApps += c.EquipmentCount()
		}
	}

	if len(classifications) > 0 {
		stats.ObsolescenceRate = math.Round(float64(atRisk)/float64(len(classifications))*1000) / 10
	}
	return stats
}

// Alert flags one product on one piece of equipment.
type Alert struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	Equipment   string            `json:"equipment"`
	ProductName string            `json:"product_name"`
	Version     string            `json:"version"`
	ProductType types.ProductType `json:"product_type"`
	Status      types.Status      `json:"status"`
	EOLDate     *string           `json:"eol_date"`
	Reason      string            `json:"reason,omitempty"`

	eol *time.Time
}

// BuildAlerts returns one alert per affected equipment for every
// classification the policy selects, ordered by end-of-life date (oldest
// first, undated last). A non-positive limit uses DefaultAlertLimit.
func BuildAlerts(ctx context.Context, classifications []types.Classification, p policy.AlertPolicy, now time.Time, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}

	alerts := []Alert{}
	for i := range classifications {
		c := &classifications[i]
		decision, err := p.Evaluate(ctx, c, now)
		if err != nil {
			return nil, fmt.Errorf("evaluate alert policy for %s: %w", c.ProductName, err)
		}
		if !decision.Alert {
			continue
		}

		prefix, severity := "app", "warning"
		if c.ProductType == types.ProductTypeOS {
			prefix = "os"
		}
		if c.Status == types.StatusCritical {
			severity = "critical"
		}
		product := strings.TrimSpace(c.ProductName + " " + c.Version)

		for _, equipment := range c.EquipmentNames {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("%s-%s-%s", prefix, equipment, product),
				Type:        severity,
				Message:     fmt.Sprintf("%s is at %s risk on %s", product, strings.ToLower(string(c.Status)), equipment),
				Equipment:   equipment,
				ProductName: c.ProductName,
				Version:     c.Version,
				ProductType: c.ProductType,
				Status:      c.Status,
				EOLDate:     types.FormatDate(c.EOLDate),
				Reason:      decision.Reason,
				eol:         c.EOLDate,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].eol, alerts[j].eol
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}
