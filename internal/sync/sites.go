package sync

import (
	"context"
	"strings"

	"github.com/agentstation/launchsync/internal/sources/spacedevs"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/catalog"
)

// padGroup is the pads sharing one location name, in fetch order.
type padGroup struct {
	name string
	pads []spacedevs.Pad
}

// groupPads groups pads by location name in first-seen order. Pads without
// a location are dropped.
func groupPads(pads []spacedevs.Pad) []padGroup {
	var groups []padGroup
	index := make(map[string]int)
	for _, p := range pads {
		name := p.LocationName()
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, padGroup{name: name})
		}
		groups[i].pads = append(groups[i].pads, p)
	}
	return groups
}

// launchSites turns each location group into one site. Fetched counts
// groups, not pads.
func (r *run) launchSites(ctx context.Context, pads []spacedevs.Pad) error {
	groups := groupPads(pads)
	r.result.Fetched = len(groups)
	if dropped := len(pads) - countPads(groups); dropped > 0 {
		r.logger.Debug().Int("pads", dropped).Msg("Dropped pads without a location")
	}

	idx, err := loadIndex(ctx, r.o.repos.LaunchSites, store.KindLaunchSite)
	if err != nil {
		return err
	}
	for _, g := range groups {
		err := r.record(g.name, func() (Outcome, error) {
			first := g.pads[0]
			ct, ok := r.resolver.Code(first.Location.CountryCode)
			if !ok {
				ct, ok = r.resolver.Code(first.CountryCode)
			}
			if !ok {
				return r.skip(g.name, "country not resolved")
			}
			return upsert(ctx, r.o.repos.LaunchSites, idx, g.name, func(s catalog.LaunchSite, found bool) (catalog.LaunchSite, bool) {
				if !found {
					s = catalog.LaunchSite{Name: g.name}
				}
				r.mapSite(&s, g, ct)
				return s, true
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) mapSite(s *catalog.LaunchSite, g padGroup, ct catalog.Country) {
	first := g.pads[0]
	loc := first.Location

	s.Country = ct
	if loc.Description != "" {
		s.Description = loc.Description
	}
	if loc.TimezoneName != "" {
		s.Timezone = loc.TimezoneName
	}
	s.MapImageURL = firstNonEmpty(loc.MapImage, first.MapImage, s.MapImageURL)
	if first.WikiURL != "" {
		s.WikiURL = first.WikiURL
	}
	if lat := first.Latitude.Ptr(); lat != nil {
		s.Latitude = lat
	}
	if lon := first.Longitude.Ptr(); lon != nil {
		s.Longitude = lon
	}

	// The location count already covers every pad at the site.
	s.TotalLaunches = loc.TotalLaunchCount
	s.NumberOfLaunchPads = len(g.pads)
	s.ActiveLaunchPads = len(g.pads)
	if s.TotalLaunches > 0 {
		s.Status = catalog.SiteOperational
	} else {
		s.Status = catalog.SitePlanned
	}
	s.SupportsLEO = s.TotalLaunches > 0
	s.SupportedVehicles = padNames(g.pads)
	s.UpdatedAt = r.o.now().UTC()
}

func padNames(pads []spacedevs.Pad) string {
	seen := make(map[string]bool, len(pads))
	var names []string
	for _, p := range pads {
		name := strings.TrimSpace(p.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func countPads(groups []padGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.pads)
	}
	return n
}
