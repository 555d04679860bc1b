package api

import (
	"time"

	"github.com/daimoniac/eoltrack/internal/analyzer"
	"github.com/daimoniac/eoltrack/internal/statestore"
	"github.com/daimoniac/eoltrack/internal/types"
)

// formatTimestamp renders a timestamp as RFC 3339 in UTC, ending with "Z".
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ApplicationResponse is an installed application in API responses.
type ApplicationResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// EquipmentResponse represents a piece of equipment for API responses.
// Calendar dates are YYYY-MM-DD, timestamps ISO8601.
type EquipmentResponse struct {
	ID              int64                 `json:"id"`
	Name            string                `json:"name"`
	EquipmentType   string                `json:"equipment_type"`
	Location        string                `json:"location"`
	IPAddress       string                `json:"ip_address"`
	OSName          string                `json:"os_name"`
	OSVersion       string                `json:"os_version"`
	AcquisitionDate *string               `json:"acquisition_date"`
	WarrantyEndDate *string               `json:"warranty_end_date"`
	Status          string                `json:"status"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
	Applications    []ApplicationResponse `json:"applications"`
}

// PaginatedEquipmentResponse wraps one page of equipment.
type PaginatedEquipmentResponse struct {
	Items    []EquipmentResponse `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// ApplicationRequest is an application in a create or update request.
type ApplicationRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// EquipmentRequest is the body of POST and PUT /equipment. Absent fields are
// left unchanged on update.
type EquipmentRequest struct {
	Name            *string               `json:"name"`
	EquipmentType   *string               `json:"equipment_type"`
	Location        *string               `json:"location"`
	IPAddress       *string               `json:"ip_address"`
	OSName          *string               `json:"os_name"`
	OSVersion       *string               `json:"os_version"`
	AcquisitionDate *string               `json:"acquisition_date"`
	WarrantyEndDate *string               `json:"warranty_end_date"`
	Status          *string               `json:"status"`
	Applications    *[]ApplicationRequest `json:"applications"`
}

// TypeCount, StatusCount and LocationCount are the equipment stats buckets.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// EquipmentStatsResponse is the inventory breakdown.
type EquipmentStatsResponse struct {
	TotalEquipment    int             `json:"total_equipment"`
	ActiveEquipment   int             `json:"active_equipment"`
	ObsoleteEquipment int             `json:"obsolete_equipment"`
	ByType            []TypeCount     `json:"by_type"`
	ByStatus          []StatusCount   `json:"by_status"`
	ByLocation        []LocationCount `json:"by_location"`
	AppliedFilter     *string         `json:"applied_filter"`
}

// LocationsResponse lists the distinct equipment locations.
type LocationsResponse struct {
	Locations []string `json:"locations"`
}

// ClassificationResponse represents a classified product for API responses.
type ClassificationResponse struct {
	ID             int64    `json:"id"`
	ProductName    string   `json:"product_name"`
	Version        string   `json:"version"`
	ProductType    string   `json:"product_type"`
	EOLDate        *string  `json:"eol_date"`
	SupportEndDate *string  `json:"support_end_date"`
	Status         string   `json:"status"`
	DaysUntilEOL   *int     `json:"days_until_eol"`
	EquipmentCount int      `json:"equipment_count"`
	EquipmentNames []string `json:"equipment_names"`
	Source         string   `json:"source"`
	Confidence     string   `json:"confidence"`
	Recommendation string   `json:"recommendation"`
	LastUpdated    string   `json:"last_updated"`
	CreatedAt      string   `json:"created_at"`
}

// AnalyzeResponse reports a completed analysis run.
type AnalyzeResponse struct {
	Message string               `json:"message"`
	Summary *analyzer.RunSummary `json:"summary"`
}

// ObsolescenceStatsResponse is the classification summary plus the last run.
type ObsolescenceStatsResponse struct {
	analyzer.Stats
	LastRun *analyzer.RunSummary `json:"last_run"`
}

// AlertsResponse lists the current alerts.
type AlertsResponse struct {
	Alerts []analyzer.Alert `json:"alerts"`
	Total  int              `json:"total"`
}

// CheckRequest is the body of POST /obsolescence/check.
type CheckRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

// toEquipmentResponse converts a stored equipment record.
func toEquipmentResponse(e *types.Equipment) EquipmentResponse {
	apps := make([]ApplicationResponse, 0, len(e.Applications))
	for _, app := range e.Applications {
		apps = append(apps, ApplicationResponse{ID: app.ID, Name: app.Name, Version: app.Version})
	}
	return EquipmentResponse{
		ID:              e.ID,
		Name:            e.Name,
		EquipmentType:   e.EquipmentType,
		Location:        e.Location,
		IPAddress:       e.IPAddress,
		OSName:          e.OSName,
		OSVersion:       e.OSVersion,
		AcquisitionDate: types.FormatDate(e.AcquisitionDate),
		WarrantyEndDate: types.FormatDate(e.WarrantyEndDate),
		Status:          e.Status,
		CreatedAt:       formatTimestamp(e.CreatedAt),
		UpdatedAt:       formatTimestamp(e.UpdatedAt),
		Applications:    apps,
	}
}

func toEquipmentResponses(list []types.Equipment) []EquipmentResponse {
	out := make([]EquipmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toEquipmentResponse(&list[i]))
	}
	return out
}

// toClassificationResponse converts a classification; days are counted from now.
func toClassificationResponse(c *types.Classification, now time.Time) ClassificationResponse {
	names := c.EquipmentNames
	if names == nil {
		names = []string{}
	}
	return ClassificationResponse{
		ID:             c.ID,
		ProductName:    c.ProductName,
		Version:        c.Version,
		ProductType:    string(c.ProductType),
		EOLDate:        types.FormatDate(c.EOLDate),
		SupportEndDate: types.FormatDate(c.SupportEndDate),
		Status:         string(c.Status),
		DaysUntilEOL:   c.DaysUntilEOL(now),
		EquipmentCount: c.EquipmentCount(),
		EquipmentNames: names,
		Source:         string(c.Source),
		Confidence:     string(c.Confidence),
		Recommendation: c.Recommendation,
		LastUpdated:    formatTimestamp(c.LastUpdated),
		CreatedAt:      formatTimestamp(c.CreatedAt),
	}
}

func toEquipmentStatsResponse(stats *statestore.EquipmentStats) EquipmentStatsResponse {
	resp := EquipmentStatsResponse{
		TotalEquipment:    stats.Total,
		ActiveEquipment:   stats.Active,
		ObsoleteEquipment: stats.Obsolete,
		ByType:            make([]TypeCount, 0, len(stats.ByType)),
		ByStatus:          make([]StatusCount, 0, len(stats.ByStatus)),
		ByLocation:        make([]LocationCount, 0, len(stats.ByLocation)),
	}
	for _, g := range stats.ByType {
		resp.ByType = append(resp.ByType, TypeCount{Type: g.Key, Count: g.Count})
	}
	for _, g := range stats.ByStatus {
		resp.ByStatus = append(resp.ByStatus, StatusCount{Status: g.Key, Count: g.Count})
	}
	for _, g := range stats.ByLocation {
		resp.ByLocation = append(resp.ByLocation, LocationCount{Location: g.Key, Count: g.Count})
	}
	if stats.AppliedFilter != "" {
		filter := stats.AppliedFilter
		resp.AppliedFilter = &filter
	}
	return resp
}
