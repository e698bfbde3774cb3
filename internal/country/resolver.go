// Package country resolves degraded provider signals (ISO codes, two-letter
// codes, free-text operator names) to canonical country references.
package country

import (
	"strings"

	"github.com/agentstation/launchsync/pkg/catalog"
)

var aliases = map[string]string{
	"RU": "RUS", "CN": "CHN", "JP": "JPN", "KR": "KOR",
	"GB": "GBR", "UK": "GBR", "FR": "FRA", "DE": "DEU",
	"IN": "IND", "IL": "ISR", "IR": "IRN", "KZ": "KAZ",
	"NZ": "NZL", "AE": "ARE", "BR": "BRA", "AU": "AUS",
	"IT": "ITA", "ES": "ESP", "PL": "POL", "SE": "SWE",
	"CH": "CHE", "NL": "NLD", "BE": "BEL", "AT": "AUT",
	"NO": "NOR", "CA": "CAN", "UA": "UKR", "KP": "PRK",
}

// Aliases returns a copy of the two-letter to ISO-3 alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

// AgencyRule maps operator names containing any of Contains (and none of
// Excludes) to Code.
type AgencyRule struct {
	Code     string
	Contains []string
	Excludes []string
}

func (r AgencyRule) matches(lower string) bool {
	for _, x := range r.Excludes {
		if strings.Contains(lower, x) {
			return false
		}
	}
	for _, s := range r.Contains {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Order is priority: "Rocket Lab Launch" is USA because the USA rule comes first.
var agencyRules = []AgencyRule{
	{Code: "USA", Contains: []string{"spacex", "nasa", "united launch", "rocket lab", "blue origin", "orbital", "northrop", "lockheed", "boeing"}},
	{Code: "RUS", Contains: []string{"roscosmos", "soviet", "russian", "khrunichev", "progress", "energia"}},
	{Code: "CHN", Contains: []string{"china", "casc", "chinese", "long march", "calt"}},
	{Code: "ESA", Contains: []string{"arianespace", "esa", "european"}},
	{Code: "JPN", Contains: []string{"jaxa", "japan", "mitsubishi heavy"}},
	{Code: "IND", Contains: []string{"isro", "india", "indian"}},
	{Code: "KOR", Contains: []string{"korea"}, Excludes: []string{"north"}},
	{Code: "IRN", Contains: []string{"iran"}},
	{Code: "ISR", Contains: []string{"israel"}},
	{Code: "NZL", Contains: []string{"new zealand", "rocket lab launch"}},
	{Code: "UKR", Contains: []string{"ukrain"}},
}

// AgencyRules returns the ordered agency rules.
func AgencyRules() []AgencyRule {
	return append([]AgencyRule(nil), agencyRules...)
}

// InferCode returns the country code of the first agency rule matching
// name, or "" when none does.
func InferCode(name string) string {
	lower := strings.ToLower(name)
	if strings.TrimSpace(lower) == "" {
		return ""
	}
	for _, r := range agencyRules {
		if r.matches(lower) {
			return r.Code
		}
	}
	return ""
}

// Resolver resolves countries against one run's Context.
type Resolver struct {
	ctx *Context
}

// NewResolver returns a Resolver reading from ctx.
func NewResolver(ctx *Context) *Resolver {
	return &Resolver{ctx: ctx}
}

// Code resolves an ISO-3 or aliased two-letter code.
func (r *Resolver) Code(code string) (catalog.Country, bool) {
	code = normalize(code)
	if code == "" {
		return catalog.Country{}, false
	}
	if ct, ok := r.ctx.Lookup(code); ok {
		return ct, true
	}
	if mapped, ok := aliases[code]; ok {
		return r.ctx.Lookup(mapped)
	}
	return catalog.Country{}, false
}

// Agency resolves a free-text operator name. The first matching rule
// decides; if its country is not cached the result is absent.
func (r *Resolver) Agency(name string) (catalog.Country, bool) {
	code := InferCode(name)
	if code == "" {
		return catalog.Country{}, false
	}
	return r.ctx.Lookup(code)
}

// Resolve tries the code first and falls back to the agency name.
func (r *Resolver) Resolve(code, agency string) (catalog.Country, bool) {
	if ct, ok := r.Code(code); ok {
		return ct, true
	}
	return r.Agency(agency)
}

// Link resolves a country named by a fact or metadata value, which may be
// a code or a display name.
func (r *Resolver) Link(value string) (catalog.Country, bool) {
	if ct, ok := r.Code(value); ok {
		return ct, true
	}
	return r.ctx.LookupName(value)
}

// ResolveLaunch resolves a launch's country in provider order: provider
// code, provider name, pad code, then pad location code.
func (r *Resolver) ResolveLaunch(providerCode, providerName, padCode, locationCode string) (catalog.Country, bool) {
	if ct, ok := r.Resolve(providerCode, providerName); ok {
		return ct, true
	}
	if ct, ok := r.Code(padCode); ok {
		return ct, true
	}
	return r.Code(locationCode)
}
