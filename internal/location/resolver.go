// Package location resolves coordinates to city names.
//
// The built-in TableResolver does a nearest-neighbour search over a fixed
// city table using flat Euclidean distance on degrees (1 degree ~ 111 km).
// It is a placeholder for a real reverse geocoder: CityResolver is the seam.
package location

import (
	"context"
	"math"
)

// UnknownLocation is returned when no city lies within the threshold
const UnknownLocation = "未知位置"

const (
	// KmPerDegree converts degree distance to kilometres
	KmPerDegree = 111.0
	// DefaultThreshold is the maximum match distance in kilometres (exclusive)
	DefaultThreshold = 50.0
)

// City is one entry of the reference table
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DefaultCities is the reference table. Order matters: ties go to the earlier entry.
var DefaultCities = []City{
	{Name: "北京", Latitude: 39.9042, Longitude: 116.4074},
	{Name: "上海", Latitude: 31.2304, Longitude: 121.4737},
	{Name: "广州", Latitude: 23.1291, Longitude: 113.2644},
	{Name: "深圳", Latitude: 22.5431, Longitude: 114.0579},
}

// CityResolver maps coordinates to a city label. Implementations backed by
// remote services return errors; the table resolver never does.
type CityResolver interface {
	ResolveCity(ctx context.Context, latitude, longitude float64) (string, error)
}

// TableResolver resolves against a fixed city table
type TableResolver struct {
	cities    []City
	threshold float64
}

// Option configures a TableResolver
type Option func(*TableResolver)

// WithThreshold sets the match distance in kilometres
func WithThreshold(km float64) Option {
	return func(r *TableResolver) {
		if km > 0 {
			r.threshold = km
		}
	}
}

// WithCities replaces the reference table
func WithCities(cities []City) Option {
	return func(r *TableResolver) {
		r.cities = append([]City(nil), cities...)
	}
}

// NewTableResolver creates a resolver over DefaultCities with DefaultThreshold
func NewTableResolver(opts ...Option) *TableResolver {
	r := &TableResolver{
		cities:    append([]City(nil), DefaultCities...),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCity returns the nearest city name, or UnknownLocation when the
// nearest city is not strictly closer than the threshold.
func (r *TableResolver) ResolveCity(_ context.Context, latitude, longitude float64) (string, error) {
	city, distance, ok := r.Nearest(latitude, longitude)
	if !ok || distance >= r.threshold {
		return UnknownLocation, nil
	}
	return city.Name, nil
}

// Nearest returns the closest city and its distance in kilometres.
// ok is false when the table is empty or the inputs are not finite.
func (r *TableResolver) Nearest(latitude, longitude float64) (city City, distance float64, ok bool) {
	distance = math.Inf(1)
	for _, c := range r.cities {
		d := Distance(latitude, longitude, c.Latitude, c.Longitude)
		// strict comparison keeps the first entry on ties
		if d < distance {
			city, distance, ok = c, d, true
		}
	}
	return city, distance, ok
}

// Distance is the flat-earth approximation used by the resolver, in kilometres
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat, dLon := lat1-lat2, lon1-lon2
	return math.Sqrt(dLat*dLat+dLon*dLon) * KmPerDegree
}
