package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/daimoniac/eoltrack/internal/types"
)

// ErrEquipmentNotFound is returned when no equipment exists for the given id.
// Callers should use errors.Is() to check for this specific error.
var ErrEquipmentNotFound = errors.New("equipment not found")

// ErrClassificationNotFound is returned by GetClassification for an unknown id.
var ErrClassificationNotFound = errors.New("classification not found")

// EquipmentStore persists the equipment inventory.
type EquipmentStore interface {
	// CreateEquipment inserts the equipment and its applications, returning the stored record
	CreateEquipment(ctx context.Context, equipment *types.Equipment) (*types.Equipment, error)

	// GetEquipment loads one piece of equipment with its applications
	GetEquipment(ctx context.Context, id int64) (*types.Equipment, error)

	// UpdateEquipment applies a partial update; a non-nil application list replaces the old one
	UpdateEquipment(ctx context.Context, id int64, update EquipmentUpdate) (*types.Equipment, error)

	// DeleteEquipment removes the equipment and, by cascade, its applications
	DeleteEquipment(ctx context.Context, id int64) error

	// ListEquipment returns a page of equipment plus the total matching the filter
	ListEquipment(ctx context.Context, filter EquipmentFilter) ([]types.Equipment, int, error)

	// ListLocations returns the distinct non-empty locations, sorted
	ListLocations(ctx context.Context) ([]string, error)

	// EquipmentStats aggregates the inventory, optionally restricted to one location
	EquipmentStats(ctx context.Context, location string) (*EquipmentStats, error)

	// ListInventory returns every piece of equipment with applications, oldest first
	ListInventory(ctx context.Context) ([]types.Equipment, error)
}

// ClassificationStore persists the result of the last analysis run.
type ClassificationStore interface {
	// ReplaceClassifications atomically swaps the stored set for the given one
	ReplaceClassifications(ctx context.Context, classifications []types.Classification) error

	// ListClassifications returns stored classifications, most severe first
	ListClassifications(ctx context.Context, filter ClassificationFilter) ([]types.Classification, error)

	// GetClassification loads one classification by id
	GetClassification(ctx context.Context, id int64) (*types.Classification, error)

	// ClassificationCounts groups the stored classifications by status and product type
	ClassificationCounts(ctx context.Context) ([]ClassificationCount, error)
}

// StateStore is everything the service persists.
type StateStore interface {
	EquipmentStore
	ClassificationStore
	Ping(ctx context.Context) error
	Close() error
}

// EquipmentFilter defines criteria for listing equipment.
// Status accepts the user-facing aliases understood by types.NormalizeEquipmentStatus.
type EquipmentFilter struct {
	Search   string
	Type     string
	Status   string
	Location string
	Limit    int
	Offset   int
}

// EquipmentUpdate carries the fields of a partial update. Nil means unchanged.
type EquipmentUpdate struct {
	Name            *string
	EquipmentType   *string
	Location        *string
	IPAddress       *string
	OSName          *string
	OSVersion       *string
	Status          *string
	AcquisitionDate *time.Time
	WarrantyEndDate *time.Time
	Applications    *[]types.InstalledApplication
}

// EquipmentStats is the inventory breakdown served by the stats endpoint.
type EquipmentStats struct {
	Total         int
	Active        int
	Obsolete      int
	ByType        []GroupCount
	ByStatus      []GroupCount
	ByLocation    []GroupCount
	AppliedFilter string
}

// GroupCount is one bucket of a GROUP BY aggregation.
type GroupCount struct {
	Key   string
	Count int
}

// ClassificationFilter defines criteria for listing classifications.
type ClassificationFilter struct {
	ProductType types.ProductType
	Status      types.Status
}

// ClassificationCount is the number of classifications with one (status, type) pair.
type ClassificationCount struct {
	Status      types.Status
	ProductType types.ProductType
	Count       int
}
