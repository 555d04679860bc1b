package analyzer

import (
	"strings"

	"github.com/daimoniac/eoltrack/internal/types"
)

type grouper struct {
	order []string
	byKey map[string]*types.ProductObservation
}

func newGrouper() *grouper {
	return &grouper{byKey: make(map[string]*types.ProductObservation)}
}

func (g *grouper) add(name, version string, productType types.ProductType, equipment string) {
	name, version = strings.TrimSpace(name), strings.TrimSpace(version)
	if name == "" || name == "?" {
		return
	}

	key := types.ObservationKey(name, version, productType)
	obs, ok := g.byKey[key]
	if !ok {
		obs = &types.ProductObservation{Name: name, Version: version, ProductType: productType}
		g.byKey[key] = obs
		g.order = append(g.order, key)
	}
	obs.EquipmentNames = append(obs.EquipmentNames, equipment)
}

func (g *grouper) observations() []types.ProductObservation {
	out := make([]types.ProductObservation, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.byKey[key])
	}
	return out
}

// ExtractObservations groups the inventory into distinct products. Operating
// systems come first, then applications, each in first-seen order. Blank
// names and the "?" placeholder are skipped.
func ExtractObservations(equipment []types.Equipment) []types.ProductObservation {
	osGroup, appGroup := newGrouper(), newGrouper()

	for _, e := range equipment {
		osGroup.add(e.OSName, e.OSVersion, types.ProductTypeOS, e.Name)
		for _, app := range e.Applications {
			appGroup.add(app.Name, app.Version, types.ProductTypeApplication, e.Name)
		}
	}

	return append(osGroup.observations(), appGroup.observations()...)
}
