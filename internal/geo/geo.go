// Package geo computes distances and bearings between WGS-84 coordinates.
package geo

import (
	"fmt"
	"math"

	"github.com/playperu/streetrep/internal/streetrep"
)

// EarthRadius is the mean Earth radius in meters used by Distance.
const EarthRadius = 6371000.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports coordinates outside the valid degree ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("coordinate (%v, %v) is not finite: %w", c.Lat, c.Lng, streetrep.ErrInvalidArgument)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range: %w", c.Lat, streetrep.ErrInvalidArgument)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range: %w", c.Lng, streetrep.ErrInvalidArgument)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the great-circle distance between a and b in meters
// using the Haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial bearing from a to b in degrees, [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// Destination returns the point reached by travelling meters from along the
// given initial bearing.
func Destination(from Coordinate, bearing, meters float64) Coordinate {
	lat1, lng1 := radians(from.Lat), radians(from.Lng)
	brg := radians(bearing)
	d := meters / EarthRadius

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lng2 := lng1 + math.Atan2(
		math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coordinate{
		Lat: degrees(lat2),
		Lng: math.Mod(degrees(lng2)+540, 360) - 180,
	}
}

// Box is a latitude/longitude bounding box.
type Box struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Bounds returns a box enclosing every point within meters of center. The box
// is a coarse prefilter; callers still check Distance. Near the poles or the
// antimeridian the longitude span widens to the full range.
func Bounds(center Coordinate, meters float64) Box {
	dLat := degrees(meters / EarthRadius)
	b := Box{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	if center.Lat+dLat >= 90 || center.Lat-dLat <= -90 {
		return b
	}
	cosLat := math.Cos(radians(center.Lat))
	dLng := degrees(meters / (EarthRadius * cosLat))
	if center.Lng-dLng < -180 || center.Lng+dLng > 180 {
		return b
	}
	b.MinLng = center.Lng - dLng
	b.MaxLng = center.Lng + dLng
	return b
}
