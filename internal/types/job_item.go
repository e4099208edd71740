package types

import (
	"fmt"
	"math"
	"strconv"
)

// JobItem is a single job listing as returned by the backend.
type JobItem struct {
	ItemID   string   `json:"item_id"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	ImageURL string   `json:"image_url"`
	Keywords []string `json:"keywords"`
	Address  string   `json:"address"`
	Favorite bool     `json:"favorite"`
}

// FavoriteRequest is the body of POST/DELETE /history.
type FavoriteRequest struct {
	UserID   string  `json:"user_id"`
	Favorite JobItem `json:"favorite"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// DefaultCoordinates is used until a location has been resolved.
var DefaultCoordinates = Coordinates{Latitude: 37.38, Longitude: -122.08}

// Valid reports whether c is a finite point on the globe.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// QueryLat formats the latitude for query strings.
func (c Coordinates) QueryLat() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

// QueryLon formats the longitude for query strings.
func (c Coordinates) QueryLon() string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%s,%s", c.QueryLat(), c.QueryLon())
}
