// Package geo provides the great-circle math the nearby pipeline is
// built on. Pure functions, no dependencies.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in
// meters, computed with the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := Radians(lat2 - lat1)
	dLng := Radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(Radians(lat1))*math.Cos(Radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Offset shifts a coordinate by a metric displacement: eastMeters
// along the parallel, northMeters along the meridian. Accurate for the
// small display offsets marker deconfliction needs.
func Offset(lat, lng, eastMeters, northMeters float64) (float64, float64) {
	newLat := lat + Degrees(northMeters/EarthRadiusMeters)
	newLng := lng + Degrees(eastMeters/(EarthRadiusMeters*math.Cos(Radians(lat))))
	return newLat, newLng
}
