// Package services assembles the catalog of services the gateway serves.
package services

import (
	"fmt"

	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/services/trello"
	"github.com/balazsgrill/actiongate/services/ux"
)

// Prefix is the only module path tree the helper route may reach.
const Prefix = "services"

// Catalog is the registry and the helper endpoints built from one settings
// value.
type Catalog struct {
	Registry *registry.Registry
	Resolver *resolver.Resolver
}

func New(trelloSettings trello.Settings) (*Catalog, error) {
	api := trello.NewAPI(trelloSettings)
	reg, err := registry.New(
		trello.Service(api),
		ux.Service(),
	)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	res, err := resolver.New(Prefix,
		trello.Module(api),
		ux.Module(),
	)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	return &Catalog{Registry: reg, Resolver: res}, nil
}
