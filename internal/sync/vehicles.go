package sync

import (
	"context"
	"strings"

	"github.com/agentstation/launchsync/internal/merge"
	"github.com/agentstation/launchsync/internal/sources/spacedevs"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/catalog"
)

// launcherConfigs syncs launch vehicles from the launch-data provider's
// launcher configurations. Provider values enter as raw, so a verified
// value already on the vehicle is kept.
func (r *run) launcherConfigs(ctx context.Context, configs []spacedevs.LauncherConfig) error {
	r.result.Fetched = len(configs)
	idx, err := loadIndex(ctx, r.o.repos.LaunchVehicles, store.KindLaunchVehicle)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		err := r.record(cfg.Name, func() (Outcome, error) {
			name := strings.TrimSpace(cfg.Name)
			if name == "" {
				return r.skip(cfg.FullName, "missing name")
			}
			var code, agency string
			if cfg.Manufacturer != nil {
				code, agency = cfg.Manufacturer.CountryCode, cfg.Manufacturer.Name
			}
			ct, ok := r.resolver.Resolve(code, agency)
			if !ok {
				return r.skip(name, "country not resolved")
			}
			return upsert(ctx, r.o.repos.LaunchVehicles, idx, name, func(v catalog.LaunchVehicle, found bool) (catalog.LaunchVehicle, bool) {
				if !found {
					v = catalog.LaunchVehicle{Name: name}
				}
				v.Country = ct
				if cfg.FullName != "" {
					v.FullName = cfg.FullName
				}
				if cfg.Variant != "" {
					v.Variant = cfg.Variant
				}
				if cfg.ImageURL != "" {
					v.ImageURL = cfg.ImageURL
				}
				if cfg.WikiURL != "" {
					v.WikiURL = cfg.WikiURL
				}
				r.o.merger.MergeLaunchVehicle(&v, configFields(cfg))
				v.UpdatedAt = r.o.now().UTC()
				return v, true
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func configFields(cfg spacedevs.LauncherConfig) map[string]merge.Value {
	fields := map[string]merge.Value{
		"reusable": merge.RawValue(cfg.Reusable),
	}
	if cfg.Family != "" {
		fields["family"] = merge.RawValue(cfg.Family)
	}
	if cfg.Manufacturer != nil && cfg.Manufacturer.Name != "" {
		fields["manufacturer"] = merge.RawValue(cfg.Manufacturer.Name)
	}
	return fields
}
