package geo

import (
	"math"
	"sort"
)

// earthRadiusKm is the sphere radius used for great-circle distances.
const earthRadiusKm = 6371

// DefaultMaxDistanceKm bounds nearby searches when the caller supplies none.
const DefaultMaxDistanceKm float64 = 10

// Distance returns the Haversine great-circle distance in kilometers
// between two coordinate pairs.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Point is a candidate for nearby ranking. Entries without a coordinate are
// skipped, not errored.
type Point struct {
	ID        string
	Latitude  *float64
	Longitude *float64
}

// Ranked is a Point that survived a Nearby pass, annotated with its
// distance from the reference coordinate.
type Ranked struct {
	Point
	DistanceKm float64
}

// Nearby filters candidates to those within maxKm of (lat, lng) and sorts
// them ascending by distance. maxKm <= 0 falls back to DefaultMaxDistanceKm.
func Nearby(lat, lng float64, candidates []Point, maxKm float64) []Ranked {
	if maxKm <= 0 {
		maxKm = DefaultMaxDistanceKm
	}
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		d := Distance(lat, lng, *c.Latitude, *c.Longitude)
		if d > maxKm {
			continue
		}
		ranked = append(ranked, Ranked{Point: c, DistanceKm: d})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}
