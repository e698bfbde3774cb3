package merge

import (
	"time"

	"github.com/agentstation/launchsync/internal/sources/truthledger"
	"github.com/agentstation/launchsync/internal/utils/ptr"
	"github.com/agentstation/launchsync/pkg/catalog"
)

var (
	engineMetadataKeys  = []string{"propellant", "designer", "origin", "status", "powerCycle"}
	vehicleMetadataKeys = []string{"manufacturer", "country", "status", "family"}
)

func metadataFields(metadata map[string]any, keys []string) map[string]Value {
	fields := make(map[string]Value, len(keys))
	for _, k := range keys {
		if v, ok := metadata[k]; ok && v != nil {
			fields[k] = RawValue(v)
		}
	}
	return fields
}

// ApplyEngineMetadata applies the entity metadata keys engines carry
// (propellant, designer, origin, status, powerCycle) as raw values.
func (m *Merger) ApplyEngineMetadata(e *catalog.Engine, metadata map[string]any) Outcome {
	return m.MergeEngine(e, metadataFields(metadata, engineMetadataKeys))
}

// ApplyVehicleMetadata applies the entity metadata keys launch vehicles
// carry (manufacturer, country, status, family) as raw values.
func (m *Merger) ApplyVehicleMetadata(v *catalog.LaunchVehicle, metadata map[string]any) Outcome {
	return m.MergeLaunchVehicle(v, metadataFields(metadata, vehicleMetadataKeys))
}

// FactValues converts ledger facts into scored field values keyed by
// attribute pattern, falling back to the field name.
func FactValues(facts []truthledger.Fact) map[string]Value {
	fields := make(map[string]Value, len(facts))
	for _, f := range facts {
		if f.BestValue == nil {
			continue
		}
		name := f.AttributePattern
		if name == "" {
			name = f.FieldName
		}
		if name == "" {
			continue
		}
		fields[name] = Value{Raw: f.BestValue, TruthScore: ptr.Clone(f.TruthDisplay)}
	}
	return fields
}

// ApplyVerification records the ledger's verdict on an entity. An absent
// fact set leaves an earlier verdict in place.
func ApplyVerification(v *catalog.Verification, ledgerID string, facts []truthledger.Fact, now time.Time) {
	if len(facts) == 0 && v.Status != "" {
		return
	}
	v.Status = truthledger.OverallStatus(facts)
	v.ConflictsPresent = false
	for _, f := range facts {
		if f.ConflictPresent {
			v.ConflictsPresent = true
			break
		}
	}
	if ledgerID != "" {
		v.LedgerID = ledgerID
	}
	v.CheckedAt = ptr.To(now.UTC())
}
