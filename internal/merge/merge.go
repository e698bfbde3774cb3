// Package merge applies incoming field values onto canonical entities. Each
// entity type has a fixed routing table from provider field names to typed
// fields; values carrying a truth score become verified fields, and a
// verified value is never replaced by an unverified one.
package merge

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/utils/ptr"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/logging"
)

// Value is one incoming field value. TruthScore is nil for raw provider data.
type Value struct {
	Raw        any
	TruthScore *float64
}

// RawValue returns an unscored Value.
func RawValue(v any) Value { return Value{Raw: v} }

// ScoredValue returns a Value backed by a truth score.
func ScoredValue(v any, score float64) Value { return Value{Raw: v, TruthScore: ptr.To(score)} }

// Outcome reports what a merge did with each field.
type Outcome struct {
	Applied  []string
	Kept     []string // verified values that an unverified value did not replace
	Invalid  []string // values that failed coercion
	Ignored  []string // unroutable field names
	Verified int

	// CountryHint is the raw value of a country-linking field, left for the
	// caller to resolve.
	CountryHint string
}

// Changed reports whether any field was written.
func (o Outcome) Changed() bool { return len(o.Applied) > 0 }

func (o *Outcome) add(name string, r result) {
	switch r {
	case applied, appliedVerified:
		o.Applied = append(o.Applied, name)
		if r == appliedVerified {
			o.Verified++
		}
	case kept:
		o.Kept = append(o.Kept, name)
	case invalid:
		o.Invalid = append(o.Invalid, name)
	}
}

// Merger applies field maps to entities.
type Merger struct {
	threshold float64
	logger    *zerolog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithThreshold sets the truth score a value must exceed to count as verified.
func WithThreshold(t float64) Option {
	return func(m *Merger) { m.threshold = t }
}

// WithLogger sets the merge logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Merger) { m.logger = logging.OrDefault(logger) }
}

// New returns a Merger with the default threshold.
func New(opts ...Option) *Merger {
	m := &Merger{threshold: constants.DefaultTruthThreshold, logger: logging.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the verification threshold.
func (m *Merger) Threshold() float64 { return m.threshold }

type result int

const (
	skipped result = iota
	applied
	appliedVerified
	kept
	invalid
)

// apply writes v into f unless coercion fails or f holds a verified value
// that v does not supersede.
func apply[T any](threshold float64, f *catalog.VerifiedField[T], v Value, coerce func(any) (T, bool)) result {
	val, ok := coerce(v.Raw)
	if !ok {
		return invalid
	}
	var next catalog.VerifiedField[T]
	if v.TruthScore != nil {
		next = catalog.Scored(val, *v.TruthScore, threshold)
	} else {
		next = catalog.Raw(val)
	}
	if f.Verified && !next.Verified {
		return kept
	}
	*f = next
	if next.Verified {
		return appliedVerified
	}
	return applied
}

// route writes one value into an entity of type E.
type route[E any] func(threshold float64, e *E, v Value) result

func floatRoute[E any](get func(*E) *catalog.VerifiedField[float64]) route[E] {
	return func(t float64, e *E, v Value) result { return apply(t, get(e), v, toFloat) }
}

func intRoute[E any](get func(*E) *catalog.VerifiedField[int]) route[E] {
	return func(t float64, e *E, v Value) result { return apply(t, get(e), v, toInt) }
}

func int64Route[E any](get func(*E) *catalog.VerifiedField[int64]) route[E] {
	return func(t float64, e *E, v Value) result { return apply(t, get(e), v, toInt64) }
}

func stringRoute[E any](get func(*E) *catalog.VerifiedField[string]) route[E] {
	return func(t float64, e *E, v Value) result { return apply(t, get(e), v, toString) }
}

func boolRoute[E any](get func(*E) *catalog.VerifiedField[bool]) route[E] {
	return func(t float64, e *E, v Value) result { return apply(t, get(e), v, toBool) }
}

// table is a routing table: field name to route, plus the field names that
// link the entity to a country.
type table[E any] struct {
	prefix  string
	routes  map[string]route[E]
	country map[string]bool
}

func (t table[E]) merge(m *Merger, entity string, e *E, fields map[string]Value) Outcome {
	var out Outcome
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := fields[name]
		if v.Raw == nil {
			continue
		}
		field := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), t.prefix)
		if t.country[field] {
			hint, ok := toString(v.Raw)
			if ok {
				out.CountryHint = hint
			}
			// origin is also a stored field on engines
			if r, routed := t.routes[field]; routed {
				out.add(name, r(m.threshold, e, v))
			}
			continue
		}
		r, ok := t.routes[field]
		if !ok {
			m.logger.Debug().Str("entity", entity).Str("field", name).Msg("Ignoring unroutable field")
			out.Ignored = append(out.Ignored, name)
			continue
		}
		res := r(m.threshold, e, v)
		if res == invalid {
			m.logger.Debug().Str("entity", entity).Str("field", name).Interface("value", v.Raw).Msg("Skipping field with invalid value")
		}
		out.add(name, res)
	}
	return out
}

var engineTable = table[catalog.Engine]{
	prefix: "engines.",
	routes: map[string]route[catalog.Engine]{
		"isp_s":                floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.Isp }),
		"isp":                  floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.Isp }),
		"thrust_n":             int64Route(func(e *catalog.Engine) *catalog.VerifiedField[int64] { return &e.ThrustN }),
		"thrust":               int64Route(func(e *catalog.Engine) *catalog.VerifiedField[int64] { return &e.ThrustN }),
		"chamber_pressure_bar": floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.ChamberPressureBar }),
		"chamber_pressure":     floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.ChamberPressureBar }),
		"mass_kg":              floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.MassKg }),
		"mass":                 floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.MassKg }),
		"of_ratio":             floatRoute(func(e *catalog.Engine) *catalog.VerifiedField[float64] { return &e.OFRatio }),
		"propellant":           stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Propellant }),
		"power_cycle":          stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.PowerCycle }),
		"powercycle":           stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.PowerCycle }),
		"designer":             stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Designer }),
		"manufacturer":         stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Designer }),
		"origin":               stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Origin }),
		"country":              stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Origin }),
		"status":               stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Status }),
		"vehicle":              stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Vehicle }),
		"use":                  stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Use }),
		"stage":                stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Use }),
		"family":               stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Family }),
		"description":          stringRoute(func(e *catalog.Engine) *catalog.VerifiedField[string] { return &e.Description }),
	},
	country: map[string]bool{"origin": true, "country": true},
}

var vehicleTable = table[catalog.LaunchVehicle]{
	prefix: "launch_vehicles.",
	routes: map[string]route[catalog.LaunchVehicle]{
		"height_m":            floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.HeightM }),
		"height":              floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.HeightM }),
		"diameter_m":          floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.DiameterM }),
		"diameter":            floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.DiameterM }),
		"mass_kg":             floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.MassKg }),
		"mass":                floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.MassKg }),
		"stages":              intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.Stages }),
		"payload_leo_kg":      intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.PayloadLEOKg }),
		"payload_leo":         intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.PayloadLEOKg }),
		"payload_gto_kg":      intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.PayloadGTOKg }),
		"payload_gto":         intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.PayloadGTOKg }),
		"first_flight_year":   intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.FirstFlightYear }),
		"first_flight":        intRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int] { return &v.FirstFlightYear }),
		"thrust_liftoff_kn":   int64Route(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int64] { return &v.ThrustLiftoffKN }),
		"thrust":              int64Route(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[int64] { return &v.ThrustLiftoffKN }),
		"cost_per_launch_usd": floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.CostPerLaunchUSD }),
		"cost":                floatRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[float64] { return &v.CostPerLaunchUSD }),
		"manufacturer":        stringRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[string] { return &v.Manufacturer }),
		"status":              stringRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[string] { return &v.Status }),
		"description":         stringRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[string] { return &v.Description }),
		"propellant":          stringRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[string] { return &v.Propellant }),
		"family":              stringRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[string] { return &v.Family }),
		"reusable":            boolRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[bool] { return &v.Reusable }),
		"human_rated":         boolRoute(func(v *catalog.LaunchVehicle) *catalog.VerifiedField[bool] { return &v.HumanRated }),
	},
	country: map[string]bool{"country": true, "origin": true},
}

// MergeEngine applies fields to e. Field names may carry the "engines." prefix.
func (m *Merger) MergeEngine(e *catalog.Engine, fields map[string]Value) Outcome {
	return engineTable.merge(m, e.Name, e, fields)
}

// MergeLaunchVehicle applies fields to v. Field names may carry the
// "launch_vehicles." prefix.
func (m *Merger) MergeLaunchVehicle(v *catalog.LaunchVehicle, fields map[string]Value) Outcome {
	return vehicleTable.merge(m, v.Name, v, fields)
}

// Routable reports whether field names a routed field for entityType
// ("engine" or "launch_vehicle").
func Routable(entityType, field string) bool {
	switch entityType {
	case "engine":
		f := strings.TrimPrefix(strings.ToLower(field), engineTable.prefix)
		return engineTable.routes[f] != nil || engineTable.country[f]
	case "launch_vehicle":
		f := strings.TrimPrefix(strings.ToLower(field), vehicleTable.prefix)
		return vehicleTable.routes[f] != nil || vehicleTable.country[f]
	}
	return false
}
