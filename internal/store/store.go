// Package store persists canonical entities. The sync core only ever uses
// the three Repository operations; SQL and in-memory implementations share
// the identity rule that one type holds at most one entity per folded name.
package store

import (
	"context"

	"github.com/agentstation/launchsync/pkg/catalog"
)

// Entity kinds, one per canonical type.
const (
	KindMission       = "mission"
	KindLaunchSite    = "launch_site"
	KindEngine        = "engine"
	KindLaunchVehicle = "launch_vehicle"
)

// Repository is the persistence capability for one entity type.
type Repository[T catalog.Keyed] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByKey(ctx context.Context, key string) (T, bool, error)
	Save(ctx context.Context, entity T) (T, error)
}

// CountryRepository lists the reference countries.
type CountryRepository interface {
	FindAll(ctx context.Context) ([]catalog.Country, error)
}

// Repositories groups the repositories a sync run writes to.
type Repositories struct {
	Missions       Repository[catalog.Mission]
	LaunchSites    Repository[catalog.LaunchSite]
	Engines        Repository[catalog.Engine]
	LaunchVehicles Repository[catalog.LaunchVehicle]
	Countries      CountryRepository
}

// NewMemoryRepositories returns in-memory repositories with the given countries.
func NewMemoryRepositories(countries []catalog.Country) Repositories {
	return Repositories{
		Missions:       NewMemory[catalog.Mission](),
		LaunchSites:    NewMemory[catalog.LaunchSite](),
		Engines:        NewMemory[catalog.Engine](),
		LaunchVehicles: NewMemory[catalog.LaunchVehicle](),
		Countries:      StaticCountries(countries),
	}
}

// StaticCountries is a fixed country list.
type StaticCountries []catalog.Country

// FindAll implements CountryRepository.
func (s StaticCountries) FindAll(context.Context) ([]catalog.Country, error) {
	return append([]catalog.Country(nil), s...), nil
}
