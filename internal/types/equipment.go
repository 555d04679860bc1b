package types

import (
	"strings"
	"time"
)

// Equipment lifecycle states
const (
	EquipmentStatusActive   = "Active"
	EquipmentStatusObsolete = "Obsolete"
	EquipmentStatusInStock  = "In Stock"
)

// Equipment is one inventoried device.
type Equipment struct {
	ID              int64
	Name            string
	EquipmentType   string
	Location        string
	IPAddress       string
	OSName          string
	OSVersion       string
	AcquisitionDate *time.Time
	WarrantyEndDate *time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Applications    []InstalledApplication
}

// InstalledApplication is an application installed on a piece of equipment.
type InstalledApplication struct {
	ID      int64
	Name    string
	Version string
}

var equipmentStatusAliases = map[string]string{
	"actif":    EquipmentStatusActive,
	"active":   EquipmentStatusActive,
	"obsolète": EquipmentStatusObsolete,
	"obsolete": EquipmentStatusObsolete,
	"en stock": EquipmentStatusInStock,
	"en_stock": EquipmentStatusInStock,
	"in stock": EquipmentStatusInStock,
	"stock":    EquipmentStatusInStock,
}

var equipmentStatusWildcards = map[string]bool{
	"all":                true,
	"tous":               true,
	"toutes":             true,
	"tous les statuts":   true,
	"toutes les statuts": true,
}

// NormalizeEquipmentStatus maps user-facing status labels to the stored
// value. The second return is false for wildcard labels meaning "any status".
func NormalizeEquipmentStatus(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || equipmentStatusWildcards[key] {
		return "", false
	}
	if canonical, ok := equipmentStatusAliases[key]; ok {
		return canonical, true
	}
	return strings.TrimSpace(s), true
}
