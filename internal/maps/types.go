package maps

import (
	"errors"
	"fmt"
)

// Google Maps web service statuses.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// ErrMissingAPIKey is returned before any request when the client has no key.
var ErrMissingAPIKey = errors.New("maps: missing api key")

// APIError reports a non-OK status in a Maps response body.
type APIError struct {
	Status  string
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("maps: api status %s", e.Status)
	}
	return fmt.Sprintf("maps: api status %s: %s", e.Status, e.Message)
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// String formats the coordinate the way the Maps API expects it.
func (l LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// GeocodeResult is one geocoding match.
type GeocodeResult struct {
	FormattedAddress string
	PlaceID          string
	Location         LatLng
}

// NearbyRequest describes a nearby search.
type NearbyRequest struct {
	Location     LatLng
	RadiusMeters int
	Type         string
	OpenNow      bool
}

// PlaceSummary is one nearby-search hit.
type PlaceSummary struct {
	PlaceID  string
	Name     string
	Vicinity string
	Types    []string
	Location LatLng
}

// PlaceDetails holds the requested detail fields for a place.
// Empty strings mean the field was absent upstream.
type PlaceDetails struct {
	PlaceID string
	Name    string
	Phone   string
	Address string
	Website string
	Raw     []byte
}
