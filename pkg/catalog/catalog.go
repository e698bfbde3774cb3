// Package catalog defines the canonical entities launchsync reconciles:
// missions, launch sites, engines, and launch vehicles, plus the country
// reference and verified-field wrappers they share.
package catalog

import "time"

// Keyed is implemented by every canonical entity. Key returns the display
// name; identity is the case-folded form of it within one entity type.
type Keyed interface {
	Key() string
}

// Country is an immutable ISO-3 country reference.
type Country struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// IsZero reports whether c is unset.
func (c Country) IsZero() bool { return c.Code == "" }

// Mission is a launch as reconciled from the launch-data provider.
type Mission struct {
	ExternalID    string        `json:"external_id,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	LaunchDate    *time.Time    `json:"launch_date,omitempty"`
	Status        MissionStatus `json:"status"`
	Type          MissionType   `json:"type"`
	Destination   Destination   `json:"destination"`
	Country       Country       `json:"country"`
	Operator      string        `json:"operator,omitempty"`
	LaunchVehicle string        `json:"launch_vehicle,omitempty"`
	LaunchSite    string        `json:"launch_site,omitempty"`
	Crewed        bool          `json:"crewed"`
	ImageURL      string        `json:"image_url,omitempty"`
	InfoURL       string        `json:"info_url,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Key implements Keyed.
func (m Mission) Key() string { return m.Name }

// LaunchSite is a launch location aggregated from one or more pads.
type LaunchSite struct {
	Name               string     `json:"name"`
	Country            Country    `json:"country"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	Description        string     `json:"description,omitempty"`
	Timezone           string     `json:"timezone,omitempty"`
	MapImageURL        string     `json:"map_image_url,omitempty"`
	WikiURL            string     `json:"wiki_url,omitempty"`
	NumberOfLaunchPads int        `json:"number_of_launch_pads"`
	ActiveLaunchPads   int        `json:"active_launch_pads"`
	TotalLaunches      int        `json:"total_launches"`
	Status             SiteStatus `json:"status"`
	SupportedVehicles  string     `json:"supported_vehicles,omitempty"`
	SupportsLEO        bool       `json:"supports_leo"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Key implements Keyed.
func (s LaunchSite) Key() string { return s.Name }

// Engine is a rocket engine whose fields may be backed by verified facts.
type Engine struct {
	Name               string                 `json:"name"`
	Country            Country                `json:"country"`
	Isp                VerifiedField[float64] `json:"isp"`
	ThrustN            VerifiedField[int64]   `json:"thrust_n"`
	ChamberPressureBar VerifiedField[float64] `json:"chamber_pressure_bar"`
	MassKg             VerifiedField[float64] `json:"mass_kg"`
	OFRatio            VerifiedField[float64] `json:"of_ratio"`
	Propellant         VerifiedField[string]  `json:"propellant"`
	PowerCycle         VerifiedField[string]  `json:"power_cycle"`
	Designer           VerifiedField[string]  `json:"designer"`
	Origin             VerifiedField[string]  `json:"origin"`
	Status             VerifiedField[string]  `json:"status"`
	Vehicle            VerifiedField[string]  `json:"vehicle"`
	Use                VerifiedField[string]  `json:"use"`
	Family             VerifiedField[string]  `json:"family"`
	Description        VerifiedField[string]  `json:"description"`
	Verification       Verification           `json:"verification"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// Key implements Keyed.
func (e Engine) Key() string { return e.Name }

// LaunchVehicle is a rocket, populated from launcher configurations and
// from verified facts.
type LaunchVehicle struct {
	Name             string                 `json:"name"`
	FullName         string                 `json:"full_name,omitempty"`
	Variant          string                 `json:"variant,omitempty"`
	Country          Country                `json:"country"`
	HeightM          VerifiedField[float64] `json:"height_m"`
	DiameterM        VerifiedField[float64] `json:"diameter_m"`
	MassKg           VerifiedField[float64] `json:"mass_kg"`
	Stages           VerifiedField[int]     `json:"stages"`
	PayloadLEOKg     VerifiedField[int]     `json:"payload_leo_kg"`
	PayloadGTOKg     VerifiedField[int]     `json:"payload_gto_kg"`
	FirstFlightYear  VerifiedField[int]     `json:"first_flight_year"`
	ThrustLiftoffKN  VerifiedField[int64]   `json:"thrust_liftoff_kn"`
	CostPerLaunchUSD VerifiedField[float64] `json:"cost_per_launch_usd"`
	Manufacturer     VerifiedField[string]  `json:"manufacturer"`
	Status           VerifiedField[string]  `json:"status"`
	Description      VerifiedField[string]  `json:"description"`
	Propellant       VerifiedField[string]  `json:"propellant"`
	Family           VerifiedField[string]  `json:"family"`
	Reusable         VerifiedField[bool]    `json:"reusable"`
	HumanRated       VerifiedField[bool]    `json:"human_rated"`
	ImageURL         string                 `json:"image_url,omitempty"`
	WikiURL          string                 `json:"wiki_url,omitempty"`
	Verification     Verification           `json:"verification"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Key implements Keyed.
func (v LaunchVehicle) Key() string { return v.Name }

// Verification summarizes what the verification provider said about an entity.
type Verification struct {
	Status           VerificationStatus `json:"status"`
	ConflictsPresent bool               `json:"conflicts_present"`
	LedgerID         string             `json:"ledger_id,omitempty"`
	CheckedAt        *time.Time         `json:"checked_at,omitempty"`
}
