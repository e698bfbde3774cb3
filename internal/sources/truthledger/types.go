package truthledger

import "github.com/agentstation/launchsync/pkg/catalog"

// Entity types known to the verification provider.
const (
	TypeEngine        = "engine"
	TypeLaunchVehicle = "launch_vehicle"
	TypeCountry       = "country"
)

// Entity is a ledger entity.
type Entity struct {
	ID              string         `json:"id"`
	EntityType      string         `json:"entityType"`
	CanonicalName   string         `json:"canonicalName"`
	EngineID        *int64         `json:"engineId,omitempty"`
	LaunchVehicleID *int64         `json:"launchVehicleId,omitempty"`
	Aliases         []string       `json:"aliases"`
	Metadata        map[string]any `json:"metadata"`
}

// EntityList is the /entities response.
type EntityList struct {
	Entities []Entity `json:"entities"`
	Count    int      `json:"count"`
}

// EntityFacts is the /entities/{id}/facts response.
type EntityFacts struct {
	Entity     *Entity     `json:"entity"`
	Facts      []Fact      `json:"facts"`
	Pagination *Pagination `json:"pagination"`
}

// Fact is the best-supported value of one field of an entity.
type Fact struct {
	FieldName        string   `json:"fieldName"`
	AttributePattern string   `json:"attributePattern"`
	BestValue        any      `json:"bestValue"`
	TruthDisplay     *float64 `json:"truthDisplay"`
	StatusDisplay    string   `json:"statusDisplay"`
	ConflictPresent  bool     `json:"conflictPresent"`
	SourceCount      int      `json:"sourceCount"`
}

// Status returns the normalized status label.
func (f Fact) Status() catalog.VerificationStatus {
	return catalog.ParseVerificationStatus(f.StatusDisplay)
}

// Pagination describes a facts page.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// OverallStatus folds per-fact statuses into one entity verdict: disputed
// if any fact is in conflict, verified if any fact is verified or supported,
// insufficient otherwise, and unverified when there are no facts at all.
func OverallStatus(facts []Fact) catalog.VerificationStatus {
	if len(facts) == 0 {
		return catalog.VerificationUnverified
	}
	for _, f := range facts {
		if f.ConflictPresent {
			return catalog.VerificationDisputed
		}
	}
	for _, f := range facts {
		if s := f.Status(); s == catalog.VerificationVerified || s == catalog.VerificationSupported {
			return catalog.VerificationVerified
		}
	}
	return catalog.VerificationInsufficient
}
