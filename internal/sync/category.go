// Package sync drives synchronization runs: fetch external records, resolve
// their country, match them to existing entities, merge, persist, and tally.
package sync

import (
	"fmt"

	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Category is a kind of sync run.
type Category string

// Sync categories.
const (
	Missions               Category = "missions"
	Upcoming               Category = "upcoming"
	LaunchSites            Category = "launch_sites"
	LaunchVehicles         Category = "launch_vehicles"
	Engines                Category = "engines"
	VerifiedLaunchVehicles Category = "verified_launch_vehicles"

	// MissionsByYear is recorded for RunYear runs.
	MissionsByYear Category = "missions_year"
)

// Categories returns every category RunAll covers, in run order.
func Categories() []Category {
	return []Category{Missions, Upcoming, LaunchSites, LaunchVehicles, Engines, VerifiedLaunchVehicles}
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Source returns the provider the category reads from.
func (c Category) Source() string {
	if c.Ledger() {
		return constants.SourceTruthLedger
	}
	return constants.SourceSpaceDevs
}

// Ledger reports whether the category reads from the verification provider.
func (c Category) Ledger() bool {
	return c == Engines || c == VerifiedLaunchVehicles
}

// entityGroup names the entity type a category writes. Categories in the
// same group must not run concurrently.
func (c Category) entityGroup() string {
	switch c {
	case Missions, Upcoming, MissionsByYear:
		return "missions"
	case LaunchVehicles, VerifiedLaunchVehicles:
		return "launch_vehicles"
	default:
		return string(c)
	}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range append(Categories(), MissionsByYear) {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.NewValidationError("category", s, fmt.Sprintf("unknown sync category %q", s))
}
