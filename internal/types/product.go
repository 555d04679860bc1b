package types

import (
	"strings"
	"time"
)

// ProductType distinguishes operating systems from installed applications.
type ProductType string

const (
	ProductTypeOS          ProductType = "OS"
	ProductTypeApplication ProductType = "Application"
)

// ParseProductType accepts the canonical names and the lowercase forms used by older clients.
func ParseProductType(s string) (ProductType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "os":
		return ProductTypeOS, true
	case "application", "app":
		return ProductTypeApplication, true
	}
	return "", false
}

// Status is the obsolescence risk tier of a product.
type Status string

const (
	StatusLow      Status = "Low"
	StatusMedium   Status = "Medium"
	StatusHigh     Status = "High"
	StatusCritical Status = "Critical"
	StatusUnknown  Status = "Unknown"
)

// AllStatuses lists the tiers from most to least severe.
var AllStatuses = []Status{StatusCritical, StatusHigh, StatusMedium, StatusLow, StatusUnknown}

// ParseStatus matches a tier name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// IsAtRisk reports whether the tier requires action within a year.
func (s Status) IsAtRisk() bool {
	return s == StatusCritical || s == StatusHigh
}

// Confidence is the qualitative trust level attached to a classification.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// ParseConfidence matches a confidence level case-insensitively.
func ParseConfidence(s string) (Confidence, bool) {
	for _, c := range []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Source records where a classification came from.
type Source string

const (
	SourceReferenceDataset    Source = "reference-dataset"
	SourceAIEstimation        Source = "ai-estimation"
	SourceHeuristicEstimation Source = "heuristic-estimation"
)

// ProductObservation is one distinct (name, version, type) found in the
// inventory together with the equipment it is installed on.
type ProductObservation struct {
	Name           string
	Version        string
	ProductType    ProductType
	EquipmentNames []string
}

// EquipmentCount returns the number of equipment carrying the product.
func (o ProductObservation) EquipmentCount() int {
	return len(o.EquipmentNames)
}

// Classification is the obsolescence verdict for one product.
type Classification struct {
	ID             int64
	ProductName    string
	Version        string
	ProductType    ProductType
	EOLDate        *time.Time
	SupportEndDate *time.Time
	Status         Status
	EquipmentNames []string
	Source         Source
	Confidence     Confidence
	Recommendation string
	LastUpdated    time.Time
	CreatedAt      time.Time
}

// EquipmentCount returns the number of affected equipment.
func (c *Classification) EquipmentCount() int {
	return len(c.EquipmentNames)
}

// DaysUntilEOL returns the whole days between today and the EOL date, nil when no date is known.
func (c *Classification) DaysUntilEOL(now time.Time) *int {
	if c.EOLDate == nil {
		return nil
	}
	days := DaysBetween(now, *c.EOLDate)
	return &days
}

// Key identifies a classification by its (name, version, type) triple.
func (c *Classification) Key() string {
	return ObservationKey(c.ProductName, c.Version, c.ProductType)
}

// ObservationKey builds the uniqueness key shared by observations and classifications.
func ObservationKey(name, version string, productType ProductType) string {
	return string(productType) + "\x00" + name + "\x00" + version
}
