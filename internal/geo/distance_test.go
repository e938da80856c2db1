package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestDistanceSymmetric(t *testing.T) {
	// Delhi and Mumbai.
	d1 := Distance(28.6139, 77.2090, 19.0760, 72.8777)
	d2 := Distance(19.0760, 72.8777, 28.6139, 77.2090)
	assert.Equal(t, d1, d2)
	// Roughly 1150 km apart.
	assert.InDelta(t, 1150, d1, 20)
}

func TestDistanceSamePointIsZero(t *testing.T) {
	assert.Zero(t, Distance(28.6139, 77.2090, 28.6139, 77.2090))
}

func TestNearbyFiltersAndSorts(t *testing.T) {
	// ~0.027 degrees of latitude is about 3 km; ~0.072 about 8 km.
	candidates := []Point{
		{ID: "far", Latitude: f(28.6139 + 0.2), Longitude: f(77.2090)},
		{ID: "eight-km", Latitude: f(28.6139 + 0.072), Longitude: f(77.2090)},
		{ID: "three-km", Latitude: f(28.6139 + 0.027), Longitude: f(77.2090)},
		{ID: "no-coords"},
	}

	ranked := Nearby(28.6139, 77.2090, candidates, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "three-km", ranked[0].ID)
	assert.Equal(t, "eight-km", ranked[1].ID)
	assert.Less(t, ranked[0].DistanceKm, ranked[1].DistanceKm)
	assert.InDelta(t, 3, ranked[0].DistanceKm, 0.5)
	assert.InDelta(t, 8, ranked[1].DistanceKm, 0.5)
}

func TestDefaultMaxDistanceIsFloatKilometers(t *testing.T) {
	// Callers widen the radius from this constant, so it must carry the
	// same type as every other distance in the package.
	maxKm := DefaultMaxDistanceKm
	maxKm *= 1.5
	ranked := Nearby(28.6139, 77.2090, []Point{
		{ID: "in", Latitude: f(28.6139 + 0.11), Longitude: f(77.2090)},
	}, maxKm)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 12, ranked[0].DistanceKm, 0.5)
}

func TestNearbyDefaultsMaxDistance(t *testing.T) {
	candidates := []Point{
		{ID: "in", Latitude: f(28.6139 + 0.05), Longitude: f(77.2090)},
		{ID: "out", Latitude: f(28.6139 + 0.2), Longitude: f(77.2090)},
	}
	ranked := Nearby(28.6139, 77.2090, candidates, 0)
	require.Len(t, ranked, 1)
	assert.Equal(t, "in", ranked[0].ID)
}

func TestNearbyEmptyInput(t *testing.T) {
	assert.Empty(t, Nearby(0, 0, nil, 10))
}
