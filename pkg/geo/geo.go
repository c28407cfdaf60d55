package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Zone is a circular geofence. Radius is in meters.
type Zone interface {
	Center() (lat, lon float64)
	RadiusMeters() float64
}

// DistanceMeters returns the great-circle distance between two points given
// in decimal degrees. Inputs are not range-checked; callers validate
// coordinates before asking for distances.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Result is the outcome of a safe-zone evaluation.
type Result struct {
	Inside          bool
	NearestIndex    int // index into the evaluated zones, -1 when none
	NearestDistance float64
}

// Evaluate scans zones in input order and reports whether the point lies in
// any of them. The first zone containing the point wins, so callers should
// pass zones in a stable order. With no zones the result is
// (false, -1, +Inf).
func Evaluate(lat, lon float64, zones []Zone) Result {
	res := Result{Inside: false, NearestIndex: -1, NearestDistance: math.Inf(1)}

	for i, zone := range zones {
		zlat, zlon := zone.Center()
		d := DistanceMeters(lat, lon, zlat, zlon)

		if d < res.NearestDistance {
			res.NearestDistance = d
			res.NearestIndex = i
		}
		if d <= zone.RadiusMeters() {
			res.Inside = true
			res.NearestIndex = i
			res.NearestDistance = d
			return res
		}
	}
	return res
}
