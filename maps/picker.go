package maps

import (
	"context"
	"math"
	"strconv"
	"strings"

	"kiosk/apperr"
)

// Picker backs the location field of the profile and signup forms.
type Picker struct {
	geo Geocoder
}

func NewPicker(geo Geocoder) *Picker {
	return &Picker{geo: geo}
}

// ValidCoordinates reports whether lat/lng name a point on the globe.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Pick resolves a clicked point to an address.
func (p *Picker) Pick(ctx context.Context, lat, lng float64) (Location, error) {
	if !ValidCoordinates(lat, lng) {
		return Location{}, apperr.Validation(map[string]string{"location": "Pick a point on the map."})
	}
	loc, err := p.geo.Reverse(ctx, lat, lng)
	if err != nil {
		return Location{}, err
	}
	// keep the clicked point, not the provider's snapped one
	loc.Lat, loc.Lng = lat, lng
	return loc, nil
}

// Search returns the best match for a typed address.
func (p *Picker) Search(ctx context.Context, address string) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, apperr.Validation(map[string]string{"location": "Enter an address to search."})
	}
	results, err := p.geo.Forward(ctx, address)
	if err != nil {
		return Location{}, err
	}
	if len(results) == 0 {
		return Location{}, apperr.NotFoundf("No places match %q.", address)
	}
	return results[0], nil
}

// Fields is the form encoding of loc for profile updates.
func (loc Location) Fields() map[string]string {
	return map[string]string{
		"location":  loc.FormattedAddress,
		"latitude":  formatCoord(loc.Lat),
		"longitude": formatCoord(loc.Lng),
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
