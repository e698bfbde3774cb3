package country

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/pkg/catalog"
)

func seededResolver(t *testing.T) *Resolver {
	t.Helper()
	countries, err := Seed()
	require.NoError(t, err)
	cc := NewContext()
	require.NoError(t, cc.Populate(context.Background(), LoaderFunc(func(context.Context) ([]catalog.Country, error) {
		return countries, nil
	})))
	return NewResolver(cc)
}

func TestSeed(t *testing.T) {
	countries, err := Seed()
	require.NoError(t, err)
	assert.NotEmpty(t, countries)

	codes := map[string]bool{}
	for _, c := range countries {
		assert.Len(t, c.Code, 3, c.Code)
		assert.NotEmpty(t, c.Name, c.Code)
		assert.False(t, codes[c.Code], "duplicate %s", c.Code)
		codes[c.Code] = true
	}
	for _, target := range Aliases() {
		assert.True(t, codes[target], "alias target %s missing from seed", target)
	}
	for _, r := range AgencyRules() {
		assert.True(t, codes[r.Code], "agency rule target %s missing from seed", r.Code)
	}
}

func TestParseSeed_Invalid(t *testing.T) {
	_, err := parseSeed([]byte("countries: [{name: Nowhere}]"))
	assert.Error(t, err)

	_, err = parseSeed([]byte("countries: {{"))
	assert.Error(t, err)
}

func TestResolve_AliasesMatchISO3(t *testing.T) {
	r := seededResolver(t)
	for two, three := range Aliases() {
		t.Run(two, func(t *testing.T) {
			viaAlias, ok := r.Resolve(two, "")
			require.True(t, ok)
			direct, ok := r.Resolve(three, "")
			require.True(t, ok)
			assert.Equal(t, direct, viaAlias)
		})
	}
}

func TestResolve_Codes(t *testing.T) {
	r := seededResolver(t)
	tests := []struct {
		name   string
		code   string
		want   string
		wantOK bool
	}{
		{"iso3", "RUS", "RUS", true},
		{"lower case", "rus", "RUS", true},
		{"two letter", "RU", "RUS", true},
		{"uk alias", "UK", "GBR", true},
		{"comma list takes first", "USA,RUS", "USA", true},
		{"padded", "  chn ", "CHN", true},
		{"unknown", "XYZ", "", false},
		{"unknown two letter", "ZZ", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Code(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestInferCode_RuleOrder(t *testing.T) {
	tests := []struct {
		agency string
		want   string
	}{
		{"SpaceX", "USA"},
		{"National Aeronautics and Space Administration (NASA)", "USA"},
		{"Rocket Lab Launch", "USA"}, // USA rule precedes the NZL one
		{"Northrop Grumman Innovation Systems", "USA"},
		{"Russian Federal Space Agency (ROSCOSMOS)", "RUS"},
		{"RSC Energia", "RUS"},
		{"China Aerospace Science and Technology Corporation", "CHN"},
		{"Arianespace", "ESA"},
		{"Japan Aerospace Exploration Agency", "JPN"},
		{"Mitsubishi Heavy Industries", "JPN"},
		{"Indian Space Research Organization", "IND"},
		{"Korea Aerospace Research Institute", "KOR"},
		{"Korean Committee of Space Technology (North Korea)", ""},
		{"Iranian Space Agency", "IRN"},
		{"Israel Aerospace Industries", "ISR"},
		{"New Zealand Space Agency", "NZL"},
		{"State Space Agency of Ukraine", "UKR"},
		{"Unknown Startup", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.agency, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCode(tt.agency))
		})
	}
}

func TestResolve_AgencyFallback(t *testing.T) {
	r := seededResolver(t)

	ct, ok := r.Resolve("", "SpaceX")
	require.True(t, ok)
	assert.Equal(t, "USA", ct.Code)

	ct, ok = r.Resolve("XYZ", "Roscosmos")
	require.True(t, ok)
	assert.Equal(t, "RUS", ct.Code)

	_, ok = r.Resolve("", "Unknown Startup")
	assert.False(t, ok)
}

func TestResolve_RuleTargetNotCached(t *testing.T) {
	cc := NewContext()
	require.NoError(t, cc.Populate(context.Background(), LoaderFunc(func(context.Context) ([]catalog.Country, error) {
		return []catalog.Country{{Code: "NZL", Name: "New Zealand"}}, nil
	})))
	r := NewResolver(cc)

	// first matching rule decides even if its country is missing
	_, ok := r.Resolve("", "Rocket Lab Launch")
	assert.False(t, ok)
}

func TestResolveLaunch_Order(t *testing.T) {
	r := seededResolver(t)
	tests := []struct {
		name                                      string
		providerCode, providerName, pad, location string
		want                                      string
		wantOK                                    bool
	}{
		{"provider code", "JPN", "SpaceX", "USA", "USA", "JPN", true},
		{"provider name", "", "SpaceX", "RUS", "", "USA", true},
		{"pad code", "", "Unknown", "FR", "USA", "FRA", true},
		{"location code", "", "Unknown", "", "KAZ", "KAZ", true},
		{"nothing", "", "Unknown", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveLaunch(tt.providerCode, tt.providerName, tt.pad, tt.location)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestContext_PopulateOnce(t *testing.T) {
	var loads atomic.Int32
	loader := LoaderFunc(func(context.Context) ([]catalog.Country, error) {
		loads.Add(1)
		return []catalog.Country{{Code: "usa", Name: "United States"}}, nil
	})

	cc := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cc.Populate(context.Background(), loader))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, 1, cc.Len())
	ct, ok := cc.Lookup("USA")
	require.True(t, ok)
	assert.Equal(t, "USA", ct.Code, "keys are upper-cased")

	cc.Reset()
	assert.False(t, cc.Populated())
	_, ok = cc.Lookup("USA")
	assert.False(t, ok)

	require.NoError(t, cc.Populate(context.Background(), loader))
	assert.Equal(t, int32(2), loads.Load())
}

func TestContext_PopulateFailure(t *testing.T) {
	cc := NewContext()
	err := cc.Populate(context.Background(), LoaderFunc(func(context.Context) ([]catalog.Country, error) {
		return nil, errors.New("database down")
	}))
	assert.Error(t, err)
	assert.False(t, cc.Populated())

	require.NoError(t, cc.Populate(context.Background(), LoaderFunc(func(context.Context) ([]catalog.Country, error) {
		return nil, nil
	})))
	assert.False(t, cc.Populated(), "an empty load leaves the context unpopulated")
}

func TestLink(t *testing.T) {
	r := seededResolver(t)
	tests := []struct {
		value  string
		want   string
		wantOK bool
	}{
		{"USA", "USA", true},
		{"ru", "RUS", true},
		{"united kingdom", "GBR", true},
		{" Japan ", "JPN", true},
		{"Atlantis", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := r.Link(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}
