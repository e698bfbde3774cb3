package sync

import (
	"context"
	"strings"

	"github.com/agentstation/launchsync/internal/merge"
	"github.com/agentstation/launchsync/internal/sources/truthledger"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/catalog"
)

// engines syncs engines from the verification provider. Metadata enters
// raw and facts enter scored, so facts above the threshold become verified
// and stay that way. A missing country never skips an engine.
func (r *run) engines(ctx context.Context, entities []truthledger.Entity) error {
	r.result.Fetched = len(entities)
	idx, err := loadIndex(ctx, r.o.repos.Engines, store.KindEngine)
	if err != nil {
		return err
	}
	for _, ent := range entities {
		err := r.record(ent.CanonicalName, func() (Outcome, error) {
			name := strings.TrimSpace(ent.CanonicalName)
			if name == "" {
				return r.skip(ent.ID, "missing canonical name")
			}
			facts := r.facts(ctx, ent)
			return upsert(ctx, r.o.repos.Engines, idx, name, func(e catalog.Engine, found bool) (catalog.Engine, bool) {
				if !found {
					e = catalog.Engine{Name: name, Propellant: catalog.Raw("Unknown")}
				}
				meta := r.o.merger.ApplyEngineMetadata(&e, ent.Metadata)
				scored := r.o.merger.MergeEngine(&e, merge.FactValues(facts))
				if ct, ok := r.linkCountry(scored.CountryHint, meta.CountryHint); ok {
					e.Country = ct
				}
				now := r.o.now()
				merge.ApplyVerification(&e.Verification, ent.ID, facts, now)
				e.UpdatedAt = now.UTC()
				return e, true
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// verifiedVehicles syncs launch vehicles from the verification provider.
func (r *run) verifiedVehicles(ctx context.Context, entities []truthledger.Entity) error {
	r.result.Fetched = len(entities)
	idx, err := loadIndex(ctx, r.o.repos.LaunchVehicles, store.KindLaunchVehicle)
	if err != nil {
		return err
	}
	for _, ent := range entities {
		err := r.record(ent.CanonicalName, func() (Outcome, error) {
			name := strings.TrimSpace(ent.CanonicalName)
			if name == "" {
				return r.skip(ent.ID, "missing canonical name")
			}
			facts := r.facts(ctx, ent)
			return upsert(ctx, r.o.repos.LaunchVehicles, idx, name, func(v catalog.LaunchVehicle, found bool) (catalog.LaunchVehicle, bool) {
				if !found {
					v = catalog.LaunchVehicle{Name: name}
				}
				meta := r.o.merger.ApplyVehicleMetadata(&v, ent.Metadata)
				scored := r.o.merger.MergeLaunchVehicle(&v, merge.FactValues(facts))
				if ct, ok := r.linkCountry(scored.CountryHint, meta.CountryHint); ok {
					v.Country = ct
				}
				now := r.o.now()
				merge.ApplyVerification(&v.Verification, ent.ID, facts, now)
				v.UpdatedAt = now.UTC()
				return v, true
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// facts fetches the entity's facts at the merger's threshold. A failed
// fetch yields no facts and leaves earlier verification in place.
func (r *run) facts(ctx context.Context, ent truthledger.Entity) []truthledger.Fact {
	if ent.ID == "" {
		return nil
	}
	ef, ok := r.o.ledger.EntityFacts(ctx, ent.ID, r.o.merger.Threshold())
	if !ok {
		return nil
	}
	return ef.Facts
}

// linkCountry resolves the first hint that names a cached country.
func (r *run) linkCountry(hints ...string) (catalog.Country, bool) {
	for _, h := range hints {
		if h == "" {
			continue
		}
		if ct, ok := r.resolver.Link(h); ok {
			return ct, true
		}
	}
	return catalog.Country{}, false
}
