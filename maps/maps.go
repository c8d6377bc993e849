// Package maps turns addresses into coordinates and back for location pickers.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kiosk/apperr"
	"kiosk/ratelim"

	"go.uber.org/zap"
)

// Location is what the geocoding provider answers.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Geocoder is the mapping provider.
type Geocoder interface {
	Forward(ctx context.Context, address string) ([]Location, error)
	Reverse(ctx context.Context, lat, lng float64) (Location, error)
}

// DefaultNominatimURL is the public OpenStreetMap instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder talks to an OpenStreetMap Nominatim server. The public instance
// allows one request per second, which the default transport enforces.
type NominatimGeocoder struct {
	base      string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

func NewNominatim(baseURL, userAgent string, logger *zap.Logger) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NominatimGeocoder{
		base:      strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Transport: ratelim.NewRateLimiter(1, 1).Transport(nil)},
		logger:    logger,
	}
}

// nominatimPlace is one result; coordinates come back as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

func (p nominatimPlace) location() (Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	return Location{Lat: lat, Lng: lng, FormattedAddress: p.DisplayName}, nil
}

func (g *NominatimGeocoder) Forward(ctx context.Context, address string) ([]Location, error) {
	q := url.Values{"format": {"jsonv2"}, "q": {address}, "limit": {"5"}}
	var places []nominatimPlace
	if err := g.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}
	out := make([]Location, 0, len(places))
	for _, p := range places {
		loc, err := p.location()
		if err != nil {
			g.logger.Debug("skipping unparsable place", zap.Error(err))
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lng float64) (Location, error) {
	q := url.Values{
		"format": {"jsonv2"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	var place nominatimPlace
	if err := g.get(ctx, "/reverse", q, &place); err != nil {
		return Location{}, err
	}
	if place.Error != "" {
		return Location{}, apperr.NotFoundf("No address found for this location.")
	}
	loc, err := place.location()
	if err != nil {
		return Location{}, apperr.Wrap(apperr.NotFound, "No address found for this location.", err)
	}
	return loc, nil
}

func (g *NominatimGeocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return apperr.Wrap(apperr.TransportFailure, apperr.GenericMessage, err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.TransportFailure, "The map service is unreachable.", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &apperr.Error{Kind: apperr.TransportFailure, Message: "The map service is unavailable.", Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.NotFound, "The map service sent an unexpected response.", err)
	}
	return nil
}
