package catalog

import "strings"

// MissionStatus is the normalized lifecycle state of a mission.
type MissionStatus string

// Mission statuses.
const (
	MissionPlanned        MissionStatus = "PLANNED"
	MissionLaunched       MissionStatus = "LAUNCHED"
	MissionCompleted      MissionStatus = "COMPLETED"
	MissionFailed         MissionStatus = "FAILED"
	MissionPartialSuccess MissionStatus = "PARTIAL_SUCCESS"
)

// String implements fmt.Stringer.
func (s MissionStatus) String() string { return string(s) }

// NormalizeMissionStatus maps the launch provider's status abbreviation onto
// MissionStatus. Unknown or empty values are PLANNED.
func NormalizeMissionStatus(abbrev string) MissionStatus {
	switch strings.ToLower(strings.TrimSpace(abbrev)) {
	case "success":
		return MissionCompleted
	case "failure":
		return MissionFailed
	case "partial failure":
		return MissionPartialSuccess
	case "in flight":
		return MissionLaunched
	default:
		return MissionPlanned
	}
}

// MissionType classifies what a mission is for.
type MissionType string

// Mission types.
const (
	MissionCrewedOrbital          MissionType = "CREWED_ORBITAL"
	MissionCargoResupply          MissionType = "CARGO_RESUPPLY"
	MissionTechnologyDemo         MissionType = "TECHNOLOGY_DEMO"
	MissionLunarOrbiter           MissionType = "LUNAR_ORBITER"
	MissionMarsOrbiter            MissionType = "MARS_ORBITER"
	MissionEarthObservation       MissionType = "EARTH_OBSERVATION"
	MissionCommunications         MissionType = "COMMUNICATIONS"
	MissionNavigation             MissionType = "NAVIGATION"
	MissionWeatherSatellite       MissionType = "WEATHER_SATELLITE"
	MissionAstrophysics           MissionType = "ASTROPHYSICS"
	MissionMilitaryReconnaissance MissionType = "MILITARY_RECONNAISSANCE"
	MissionSuborbital             MissionType = "SUBORBITAL"
	MissionSatelliteDeployment    MissionType = "SATELLITE_DEPLOYMENT"
)

// String implements fmt.Stringer.
func (t MissionType) String() string { return string(t) }

// missionTypeRules is checked in order against the provider's mission type
// and then the mission name.
var missionTypeRules = []struct {
	needles []string
	typ     MissionType
}{
	{[]string{"crewed", "human"}, MissionCrewedOrbital},
	{[]string{"cargo", "resupply"}, MissionCargoResupply},
	{[]string{"test", "demo"}, MissionTechnologyDemo},
	{[]string{"lunar", "moon"}, MissionLunarOrbiter},
	{[]string{"mars"}, MissionMarsOrbiter},
	{[]string{"earth observation"}, MissionEarthObservation},
	{[]string{"communication"}, MissionCommunications},
	{[]string{"navigation"}, MissionNavigation},
	{[]string{"weather"}, MissionWeatherSatellite},
	{[]string{"science", "research"}, MissionAstrophysics},
	{[]string{"military", "reconnaissance"}, MissionMilitaryReconnaissance},
	{[]string{"suborbital"}, MissionSuborbital},
}

// InferMissionType classifies a mission from its free-text type and name.
func InferMissionType(missionType, name string) MissionType {
	for _, text := range []string{missionType, name} {
		text = strings.ToLower(text)
		if text == "" {
			continue
		}
		for _, rule := range missionTypeRules {
			for _, needle := range rule.needles {
				if strings.Contains(text, needle) {
					return rule.typ
				}
			}
		}
	}
	return MissionSatelliteDeployment
}

// Destination is the target orbit or body of a mission.
type Destination string

// Destinations.
const (
	DestinationLEO        Destination = "LEO"
	DestinationGEO        Destination = "GEO"
	DestinationGTO        Destination = "GTO"
	DestinationMEO        Destination = "MEO"
	DestinationSSO        Destination = "SSO"
	DestinationHEO        Destination = "HEO"
	DestinationLunarOrbit Destination = "LUNAR_ORBIT"
	DestinationMarsOrbit  Destination = "MARS_ORBIT"
	DestinationPolar      Destination = "POLAR"
	DestinationSunEarthL1 Destination = "SUN_EARTH_L1"
)

// DestinationFromOrbit maps an orbit abbreviation to a Destination, LEO by default.
func DestinationFromOrbit(abbrev string) Destination {
	switch strings.ToUpper(strings.TrimSpace(abbrev)) {
	case "GEO":
		return DestinationGEO
	case "GTO":
		return DestinationGTO
	case "MEO":
		return DestinationMEO
	case "SSO":
		return DestinationSSO
	case "HEO":
		return DestinationHEO
	case "TLI", "LLO":
		return DestinationLunarOrbit
	case "TMI":
		return DestinationMarsOrbit
	case "POLAR":
		return DestinationPolar
	case "L1", "L2":
		return DestinationSunEarthL1
	default:
		return DestinationLEO
	}
}

// SiteStatus is the operating state of a launch site.
type SiteStatus string

// Site statuses.
const (
	SiteOperational SiteStatus = "OPERATIONAL"
	SitePlanned     SiteStatus = "PLANNED"
)

// VerificationStatus is the verification provider's verdict on a fact or entity.
type VerificationStatus string

// Verification statuses.
const (
	VerificationVerified     VerificationStatus = "verified"
	VerificationSupported    VerificationStatus = "supported"
	VerificationDisputed     VerificationStatus = "disputed"
	VerificationInsufficient VerificationStatus = "insufficient"
	VerificationUnverified   VerificationStatus = "unverified"
)

// ParseVerificationStatus normalizes a provider status label.
func ParseVerificationStatus(label string) VerificationStatus {
	switch s := VerificationStatus(strings.ToLower(strings.TrimSpace(label))); s {
	case VerificationVerified, VerificationSupported, VerificationDisputed, VerificationInsufficient:
		return s
	default:
		return VerificationUnverified
	}
}
