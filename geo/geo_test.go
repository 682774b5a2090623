package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	assert.Zero(t, Distance(40.7282, -73.9942, 40.7282, -73.9942))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(40.7282, -73.9942, 40.7484, -73.9857)
	b := Distance(40.7484, -73.9857, 40.7282, -73.9942)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKnownValues(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	d := Distance(40.0, -73.0, 41.0, -73.0)
	assert.InDelta(t, 111195, d, 200)

	// ~33 m offset used throughout the nearby scenarios.
	d = Distance(40.0000, -73.0000, 40.0003, -73.0000)
	assert.InDelta(t, 33.4, d, 0.5)
}

func TestDistanceAcrossMeridian(t *testing.T) {
	d := Distance(51.5, -0.01, 51.5, 0.01)
	assert.Greater(t, d, 1000.0)
	assert.Less(t, d, 2000.0)
}

func TestOffsetRoundTrip(t *testing.T) {
	lat, lng := Offset(40.7282, -73.9942, 25, -10)
	d := Distance(40.7282, -73.9942, lat, lng)
	assert.InDelta(t, 26.9, d, 0.5)
}

func TestOffsetZero(t *testing.T) {
	lat, lng := Offset(40.7282, -73.9942, 0, 0)
	assert.Equal(t, 40.7282, lat)
	assert.Equal(t, -73.9942, lng)
}
