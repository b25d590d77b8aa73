package delivery

import "math"

const earthRadiusKm = 6371.0

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
