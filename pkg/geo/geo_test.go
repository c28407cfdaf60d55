package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testZone struct {
	lat, lon, radius float64
}

func (z testZone) Center() (float64, float64) { return z.lat, z.lon }
func (z testZone) RadiusMeters() float64      { return z.radius }

func TestDistanceMeters(t *testing.T) {
	assert.Equal(t, 0.0, DistanceMeters(0, 0, 0, 0))

	// one degree of latitude is about 111.2km
	d := DistanceMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 50)

	// symmetric
	assert.Equal(t,
		DistanceMeters(40.7128, -74.0060, 51.5074, -0.1278),
		DistanceMeters(51.5074, -0.1278, 40.7128, -74.0060))
}

func TestEvaluateInsideZone(t *testing.T) {
	zones := []Zone{testZone{lat: 10.0, lon: 10.0, radius: 500}}

	// ~389m north of center
	res := Evaluate(10.0035, 10.0, zones)
	assert.True(t, res.Inside)
	assert.Equal(t, 0, res.NearestIndex)
	assert.Less(t, res.NearestDistance, 500.0)
}

func TestEvaluateOutsideZone(t *testing.T) {
	zones := []Zone{testZone{lat: 10.0, lon: 10.0, radius: 500}}

	// ~611m north of center
	res := Evaluate(10.0055, 10.0, zones)
	assert.False(t, res.Inside)
	assert.Equal(t, 0, res.NearestIndex)
	assert.Greater(t, res.NearestDistance, 500.0)
}

func TestEvaluateFirstContainingZoneWins(t *testing.T) {
	zones := []Zone{
		testZone{lat: 10.0, lon: 10.0, radius: 1000},
		testZone{lat: 10.0, lon: 10.0, radius: 5000},
	}

	res := Evaluate(10.0, 10.0, zones)
	assert.True(t, res.Inside)
	assert.Equal(t, 0, res.NearestIndex)
}

func TestEvaluateNoZones(t *testing.T) {
	res := Evaluate(10.0, 10.0, nil)
	assert.False(t, res.Inside)
	assert.Equal(t, -1, res.NearestIndex)
	assert.True(t, math.IsInf(res.NearestDistance, 1))
}
