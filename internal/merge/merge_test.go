package merge

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/internal/sources/truthledger"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/logging"
)

func newMerger() *Merger {
	return New(WithLogger(logging.NewNopLogger()))
}

func TestMergeEngine_Routing(t *testing.T) {
	m := newMerger()
	e := catalog.Engine{Name: "Merlin 1D"}

	out := m.MergeEngine(&e, map[string]Value{
		"engines.isp_s":    ScoredValue(311.0, 0.9),
		"thrust":           RawValue("845000"),
		"chamber_pressure": RawValue(97.0),
		"of_ratio":         RawValue("2.36"),
		"power_cycle":      RawValue("gas-generator"),
		"manufacturer":     RawValue("SpaceX"),
		"stage":            RawValue("first"),
		"origin":           RawValue("USA"),
		"color":            RawValue("black"),
	})

	assert.InDelta(t, 311.0, e.Isp.Value, 1e-9)
	assert.True(t, e.Isp.Verified)
	assert.Equal(t, int64(845000), e.ThrustN.Value)
	assert.False(t, e.ThrustN.Verified)
	assert.InDelta(t, 97.0, e.ChamberPressureBar.Value, 1e-9)
	assert.InDelta(t, 2.36, e.OFRatio.Value, 1e-9)
	assert.Equal(t, "gas-generator", e.PowerCycle.Value)
	assert.Equal(t, "SpaceX", e.Designer.Value)
	assert.Equal(t, "first", e.Use.Value)
	assert.Equal(t, "USA", e.Origin.Value)

	assert.Equal(t, "USA", out.CountryHint)
	assert.Equal(t, []string{"color"}, out.Ignored)
	assert.Equal(t, 1, out.Verified)
	assert.Len(t, out.Applied, 8)
	assert.True(t, out.Changed())
}

func TestMergeLaunchVehicle_Routing(t *testing.T) {
	m := newMerger()
	v := catalog.LaunchVehicle{Name: "Falcon 9"}

	out := m.MergeLaunchVehicle(&v, map[string]Value{
		"launch_vehicles.height_m": ScoredValue(70.0, 0.8),
		"diameter":                 RawValue(3.7),
		"stages":                   RawValue(2.0),
		"payload_leo":              RawValue("22800"),
		"first_flight":             RawValue(json.Number("2010")),
		"thrust":                   RawValue(7607),
		"cost":                     RawValue("69750000"),
		"reusable":                 RawValue(true),
		"human_rated":              RawValue("true"),
		"country":                  RawValue("United States"),
	})

	assert.True(t, v.HeightM.Verified)
	assert.InDelta(t, 3.7, v.DiameterM.Value, 1e-9)
	assert.Equal(t, 2, v.Stages.Value)
	assert.Equal(t, 22800, v.PayloadLEOKg.Value)
	assert.Equal(t, 2010, v.FirstFlightYear.Value)
	assert.Equal(t, int64(7607), v.ThrustLiftoffKN.Value)
	assert.InDelta(t, 69750000.0, v.CostPerLaunchUSD.Value, 1e-6)
	assert.True(t, v.Reusable.Value)
	assert.True(t, v.HumanRated.Value)
	assert.Equal(t, "United States", out.CountryHint)
	assert.Empty(t, out.Ignored)
	assert.Empty(t, out.Invalid)
}

func TestMerge_VerifiedIsSticky(t *testing.T) {
	m := newMerger()
	e := catalog.Engine{Name: "RD-180"}

	m.MergeEngine(&e, map[string]Value{"isp_s": ScoredValue(338.0, 0.75)})
	require.True(t, e.Isp.Verified)

	out := m.MergeEngine(&e, map[string]Value{"isp_s": RawValue(311.0)})
	assert.InDelta(t, 338.0, e.Isp.Value, 1e-9, "raw value must not replace a verified one")
	assert.Equal(t, []string{"isp_s"}, out.Kept)
	assert.False(t, out.Changed())

	m.MergeEngine(&e, map[string]Value{"isp_s": ScoredValue(300.0, 0.4)})
	assert.InDelta(t, 338.0, e.Isp.Value, 1e-9, "low-score value does not supersede")

	m.MergeEngine(&e, map[string]Value{"isp_s": ScoredValue(337.5, 0.95)})
	assert.InDelta(t, 337.5, e.Isp.Value, 1e-9, "a new verified value supersedes")
	require.NotNil(t, e.Isp.TruthScore)
	assert.InDelta(t, 0.95, *e.Isp.TruthScore, 1e-9)
}

func TestMerge_ThresholdIsStrict(t *testing.T) {
	m := newMerger()
	e := catalog.Engine{Name: "Vinci"}

	m.MergeEngine(&e, map[string]Value{"isp": ScoredValue(465.0, 0.5)})
	assert.False(t, e.Isp.Verified, "score equal to the threshold is not verified")
	assert.NotNil(t, e.Isp.TruthScore)

	strict := New(WithThreshold(0.9), WithLogger(logging.NewNopLogger()))
	assert.Equal(t, 0.9, strict.Threshold())
	strict.MergeEngine(&e, map[string]Value{"isp": ScoredValue(465.0, 0.85)})
	assert.False(t, e.Isp.Verified)
}

func TestMerge_CoercionFailsClosed(t *testing.T) {
	m := newMerger()
	v := catalog.LaunchVehicle{Name: "Electron", Stages: catalog.Raw(2)}

	out := m.MergeLaunchVehicle(&v, map[string]Value{
		"stages":      RawValue("two"),
		"height_m":    RawValue("18"),
		"reusable":    RawValue("sometimes"),
		"mass":        RawValue(map[string]any{"value": 1}),
		"payload_leo": RawValue(300.5),
	})

	assert.Equal(t, 2, v.Stages.Value, "prior value kept")
	assert.InDelta(t, 18.0, v.HeightM.Value, 1e-9)
	assert.False(t, v.Reusable.IsSet())
	assert.False(t, v.MassKg.IsSet())
	assert.False(t, v.PayloadLEOKg.IsSet())
	assert.ElementsMatch(t, []string{"stages", "reusable", "mass", "payload_leo"}, out.Invalid)
	assert.Equal(t, []string{"height_m"}, out.Applied)
}

func TestMerge_NilValuesSkipped(t *testing.T) {
	m := newMerger()
	e := catalog.Engine{Name: "BE-4", Propellant: catalog.Raw("Methalox")}
	out := m.MergeEngine(&e, map[string]Value{"propellant": RawValue(nil), "status": RawValue("  ")})
	assert.Equal(t, "Methalox", e.Propellant.Value)
	assert.False(t, e.Status.IsSet())
	assert.Equal(t, []string{"status"}, out.Invalid)
}

func TestApplyMetadata(t *testing.T) {
	m := newMerger()

	e := catalog.Engine{Name: "Raptor", Designer: catalog.Scored("SpaceX", 0.9, 0.5)}
	out := m.ApplyEngineMetadata(&e, map[string]any{
		"propellant": "CH4/LOX",
		"designer":   "Someone Else",
		"powerCycle": "full-flow staged combustion",
		"origin":     "USA",
		"ignored":    "x",
	})
	assert.Equal(t, "CH4/LOX", e.Propellant.Value)
	assert.Equal(t, "SpaceX", e.Designer.Value, "metadata does not override verified facts")
	assert.Equal(t, "full-flow staged combustion", e.PowerCycle.Value)
	assert.Equal(t, "USA", out.CountryHint)
	assert.Empty(t, out.Ignored)

	v := catalog.LaunchVehicle{Name: "Long March 5"}
	out = m.ApplyVehicleMetadata(&v, map[string]any{
		"manufacturer": "CALT",
		"country":      "CHN",
		"family":       "Long March",
		"stages":       3,
	})
	assert.Equal(t, "CALT", v.Manufacturer.Value)
	assert.Equal(t, "Long March", v.Family.Value)
	assert.False(t, v.Stages.IsSet(), "stages is not a metadata key")
	assert.Equal(t, "CHN", out.CountryHint)
}

func TestFactValues(t *testing.T) {
	score := 0.8
	fields := FactValues([]truthledger.Fact{
		{AttributePattern: "engines.isp_s", FieldName: "isp", BestValue: 311.0, TruthDisplay: &score},
		{FieldName: "status", BestValue: "Active"},
		{FieldName: "mass_kg"},
	})
	require.Len(t, fields, 2)
	require.NotNil(t, fields["engines.isp_s"].TruthScore)
	assert.InDelta(t, 0.8, *fields["engines.isp_s"].TruthScore, 1e-9)
	assert.Nil(t, fields["status"].TruthScore)
}

func TestApplyVerification(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var v catalog.Verification

	ApplyVerification(&v, "e-1", []truthledger.Fact{
		{StatusDisplay: "verified"},
		{StatusDisplay: "disputed", ConflictPresent: true},
	}, now)
	assert.Equal(t, catalog.VerificationDisputed, v.Status)
	assert.True(t, v.ConflictsPresent)
	assert.Equal(t, "e-1", v.LedgerID)
	require.NotNil(t, v.CheckedAt)
	assert.Equal(t, now, *v.CheckedAt)

	ApplyVerification(&v, "", nil, now.Add(time.Hour))
	assert.Equal(t, catalog.VerificationDisputed, v.Status, "no facts keeps the earlier verdict")

	var fresh catalog.Verification
	ApplyVerification(&fresh, "e-2", nil, now)
	assert.Equal(t, catalog.VerificationUnverified, fresh.Status)
}

func TestRoutable(t *testing.T) {
	assert.True(t, Routable("engine", "engines.isp_s"))
	assert.True(t, Routable("engine", "origin"))
	assert.False(t, Routable("engine", "height_m"))
	assert.True(t, Routable("launch_vehicle", "launch_vehicles.cost"))
	assert.True(t, Routable("launch_vehicle", "country"))
	assert.False(t, Routable("satellite", "mass"))
}

func TestCoercion(t *testing.T) {
	t.Run("float", func(t *testing.T) {
		for _, in := range []any{1.5, "1.5", " 1.5 ", json.Number("1.5"), float32(1.5)} {
			f, ok := toFloat(in)
			assert.True(t, ok, "%v", in)
			assert.InDelta(t, 1.5, f, 1e-9)
		}
		for _, in := range []any{"NaN", "abc", true, nil} {
			_, ok := toFloat(in)
			assert.False(t, ok, "%v", in)
		}
	})
	t.Run("int", func(t *testing.T) {
		for _, in := range []any{3, int64(3), 3.0, "3", "3.0", json.Number("3")} {
			i, ok := toInt(in)
			assert.True(t, ok, "%v", in)
			assert.Equal(t, 3, i)
		}
		for _, in := range []any{3.5, "3.5", "x", 1e12, nil} {
			_, ok := toInt(in)
			assert.False(t, ok, "%v", in)
		}
	})
	t.Run("int64 bounds", func(t *testing.T) {
		tests := []struct {
			name string
			in   any
			want int64
			ok   bool
		}{
			{"two to the 63", math.Exp2(63), 0, false},
			{"two to the 63 as text", "9223372036854775808", 0, false},
			{"above range", 1e19, 0, false},
			{"minimum", -math.Exp2(63), math.MinInt64, true},
			{"below minimum", -1e19, 0, false},
			{"two to the 62", math.Exp2(62), 1 << 62, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, ok := toInt64(tt.in)
				assert.Equal(t, tt.ok, ok)
				assert.Equal(t, tt.want, got)
			})
		}
	})
	t.Run("bool", func(t *testing.T) {
		b, ok := toBool("TRUE")
		assert.True(t, ok)
		assert.True(t, b)
		_, ok = toBool(1)
		assert.False(t, ok)
	})
	t.Run("string", func(t *testing.T) {
		s, ok := toString(311.0)
		assert.True(t, ok)
		assert.Equal(t, "311", s)
		_, ok = toString([]string{"a"})
		assert.False(t, ok)
	})
}
