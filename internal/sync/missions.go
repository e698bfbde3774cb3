package sync

import (
	"context"
	"strings"

	"github.com/agentstation/launchsync/internal/sources/spacedevs"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/internal/utils/ptr"
	"github.com/agentstation/launchsync/pkg/catalog"
)

func (r *run) missions(ctx context.Context, launches []spacedevs.Launch) error {
	r.result.Fetched = len(launches)
	idx, err := loadIndex(ctx, r.o.repos.Missions, store.KindMission)
	if err != nil {
		return err
	}
	for _, l := range launches {
		err := r.record(l.Name, func() (Outcome, error) {
			name := strings.TrimSpace(l.Name)
			if name == "" {
				return r.skip(l.ID, "missing name")
			}
			if l.Provider == nil {
				return r.skip(name, "missing launch service provider")
			}
			var padCode, locationCode string
			if l.Pad != nil {
				padCode = l.Pad.CountryCode
				if l.Pad.Location != nil {
					locationCode = l.Pad.Location.CountryCode
				}
			}
			ct, ok := r.resolver.ResolveLaunch(l.Provider.CountryCode, l.Provider.Name, padCode, locationCode)
			if !ok {
				return r.skip(name, "country not resolved")
			}
			return upsert(ctx, r.o.repos.Missions, idx, name, func(m catalog.Mission, found bool) (catalog.Mission, bool) {
				if !found {
					m = catalog.Mission{Name: name}
				}
				r.mapLaunch(&m, l, ct)
				return m, true
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) mapLaunch(m *catalog.Mission, l spacedevs.Launch, ct catalog.Country) {
	m.Country = ct
	m.Status = l.MissionStatus()
	m.Operator = l.Provider.Name
	if l.ID != "" {
		m.ExternalID = l.ID
	}
	if t, ok := l.LaunchTime(); ok {
		m.LaunchDate = ptr.To(t)
	}
	if l.Rocket != nil && l.Rocket.Configuration != nil {
		cfg := l.Rocket.Configuration
		m.LaunchVehicle = firstNonEmpty(cfg.FullName, cfg.Name)
	}

	var missionType, orbit string
	if l.Mission != nil {
		missionType = l.Mission.Type
		if l.Mission.Description != "" {
			m.Description = l.Mission.Description
		}
		if l.Mission.Orbit != nil {
			orbit = l.Mission.Orbit.Abbrev
		}
	}
	m.Type = catalog.InferMissionType(missionType, l.Name)
	m.Crewed = m.Type == catalog.MissionCrewedOrbital
	m.Destination = catalog.DestinationFromOrbit(orbit)

	if l.Pad != nil {
		m.LaunchSite = firstNonEmpty(l.Pad.LocationName(), l.Pad.Name)
	}
	if l.Image != "" {
		m.ImageURL = l.Image
	}
	if l.URL != "" {
		m.InfoURL = l.URL
	}
	m.UpdatedAt = r.o.now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
