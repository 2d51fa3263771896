package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// RemoteOceanPlace is the place name used when the geocoder knows nothing
// about a point, which in practice means open water.
const RemoteOceanPlace = "a remote area of the ocean"

var (
	// ErrPlaceNotFound is returned when a forward lookup has no match.
	ErrPlaceNotFound = errors.New("place not found")

	// ErrGeocodingDisabled is returned for place lookups without a geocoder.
	ErrGeocodingDisabled = errors.New("geocoding disabled")
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves places and points.
type Geocoder interface {
	// ForwardGeocode converts a free-text place query to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// ResolvePlace names the place at p. An empty geocoder result becomes
// RemoteOceanPlace; a geocoder error is returned so the caller can give up
// on the narrative. With a nil geocoder the coordinates themselves are used.
func ResolvePlace(ctx context.Context, geocoder Geocoder, p LngLat, logger *slog.Logger) (string, error) {
	if geocoder == nil {
		return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lng), nil
	}
	result, err := geocoder.ReverseGeocode(ctx, p.Lat, p.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed", "lat", p.Lat, "lng", p.Lng, "error", err)
		return "", fmt.Errorf("resolve place: %w", err)
	}
	if result.FormattedAddress == "" {
		return RemoteOceanPlace, nil
	}
	return result.FormattedAddress, nil
}

// LocatePlace resolves a place query to a map point and its display name.
func LocatePlace(ctx context.Context, geocoder Geocoder, query string) (LngLat, string, error) {
	if geocoder == nil {
		return LngLat{}, "", fmt.Errorf("locate %q: %w", query, ErrGeocodingDisabled)
	}
	result, err := geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		return LngLat{}, "", fmt.Errorf("locate %q: %w", query, err)
	}
	if result.FormattedAddress == "" {
		return LngLat{}, "", fmt.Errorf("locate %q: %w", query, ErrPlaceNotFound)
	}
	return LngLat{Lng: result.Lon, Lat: result.Lat}, result.FormattedAddress, nil
}
