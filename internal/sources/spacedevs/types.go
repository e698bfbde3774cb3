package spacedevs

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/launchsync/internal/utils/ptr"
	"github.com/agentstation/launchsync/pkg/catalog"
)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Launch is a launch record from /launch/.
type Launch struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Status   Status       `json:"status"`
	Net      string       `json:"net"`
	Provider *Agency      `json:"launch_service_provider"`
	Rocket   *Rocket      `json:"rocket"`
	Mission  *MissionInfo `json:"mission"`
	Pad      *Pad         `json:"pad"`
	Image    string       `json:"image"`
	URL      string       `json:"url"`
}

// LaunchTime parses the NET timestamp; a missing or malformed value is absent.
func (l Launch) LaunchTime() (time.Time, bool) {
	if l.Net == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, l.Net)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// MissionStatus returns the normalized status; a launch without one is PLANNED.
func (l Launch) MissionStatus() catalog.MissionStatus {
	if l.Status.Normalized == "" {
		return catalog.MissionPlanned
	}
	return l.Status.Normalized
}

// Status is a launch status. The provider has sent it both as an object
// and as a bare label; either form is normalized into Normalized on decode.
type Status struct {
	ID         int                   `json:"id,omitempty"`
	Name       string                `json:"name,omitempty"`
	Abbrev     string                `json:"abbrev,omitempty"`
	Normalized catalog.MissionStatus `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Status{}
	case len(data) > 0 && data[0] == '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*s = Status{Name: label, Abbrev: label}
	default:
		type plain Status
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*s = Status(p)
	}
	abbrev := s.Abbrev
	if abbrev == "" {
		abbrev = s.Name
	}
	s.Normalized = catalog.NormalizeMissionStatus(abbrev)
	return nil
}

// Agency is a launch service provider or government agency.
type Agency struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Abbrev      string `json:"abbrev"`
	Type        string `json:"type"`
	CountryCode string `json:"country_code"`
}

// Rocket wraps the launcher configuration used by a launch.
type Rocket struct {
	Configuration *LauncherConfig `json:"configuration"`
}

// MissionInfo is the payload mission of a launch.
type MissionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Orbit       *Orbit `json:"orbit"`
}

// Orbit is a target orbit.
type Orbit struct {
	Name   string `json:"name"`
	Abbrev string `json:"abbrev"`
}

// Pad is a launch pad from /pad/.
type Pad struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Latitude         Coord     `json:"latitude"`
	Longitude        Coord     `json:"longitude"`
	CountryCode      string    `json:"country_code"`
	WikiURL          string    `json:"wiki_url"`
	MapImage         string    `json:"map_image"`
	TotalLaunchCount int       `json:"total_launch_count"`
	Location         *Location `json:"location"`
}

// LocationName returns the pad's location name, or "" when absent.
func (p Pad) LocationName() string {
	if p.Location == nil {
		return ""
	}
	return strings.TrimSpace(p.Location.Name)
}

// Location is the site a pad belongs to.
type Location struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	CountryCode      string `json:"country_code"`
	Description      string `json:"description"`
	MapImage         string `json:"map_image"`
	TimezoneName     string `json:"timezone_name"`
	TotalLaunchCount int    `json:"total_launch_count"`
}

// LauncherConfig is a rocket configuration from /config/launcher/.
type LauncherConfig struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FullName     string  `json:"full_name"`
	Family       string  `json:"family"`
	Variant      string  `json:"variant"`
	Reusable     bool    `json:"reusable"`
	Manufacturer *Agency `json:"manufacturer"`
	ImageURL     string  `json:"image_url"`
	WikiURL      string  `json:"wiki_url"`
}

// Coord is a coordinate the provider sends as a string or a number.
// Unparseable values decode as absent rather than failing the page.
type Coord struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coord) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*c = Coord{}
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*c = Coord{}
		return nil
	}
	*c = Coord{Value: v, Valid: true}
	return nil
}

// Ptr returns the coordinate as a pointer, nil when absent.
func (c Coord) Ptr() *float64 {
	if !c.Valid {
		return nil
	}
	return ptr.To(c.Value)
}
