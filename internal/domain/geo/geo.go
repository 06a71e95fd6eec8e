// Package geo provides great-circle distance and a reference-table geocoder.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" koanf:"lat"`
	Lon float64 `json:"lon" koanf:"lon"`
}

// Distance returns the haversine distance between a and b in metres.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Place is a named reference location.
type Place struct {
	Country string
	City    string
	Point   Point
}

// Places is the built-in reference table. The first eleven entries double as
// the simulator's synthetic locations.
var Places = []Place{
	{Country: "India", City: "Mumbai", Point: Point{19.0760, 72.8777}},
	{Country: "India", City: "Delhi", Point: Point{28.7041, 77.1025}},
	{Country: "India", City: "Bangalore", Point: Point{12.9716, 77.5946}},
	{Country: "Pakistan", City: "Karachi", Point: Point{24.8607, 67.0011}},
	{Country: "Bangladesh", City: "Dhaka", Point: Point{23.8103, 90.4125}},
	{Country: "China", City: "Beijing", Point: Point{39.9042, 116.4074}},
	{Country: "United Arab Emirates", City: "Dubai", Point: Point{25.2048, 55.2708}},
	{Country: "Singapore", City: "Singapore", Point: Point{1.3521, 103.8198}},
	{Country: "United States", City: "New York", Point: Point{40.7128, -74.0060}},
	{Country: "United Kingdom", City: "London", Point: Point{51.5074, -0.1278}},
	{Country: "India", City: "Kanpur", Point: Point{26.4499, 80.3319}},
	{Country: "India", City: "Lucknow", Point: Point{26.8467, 80.9462}},
	{Country: "Iran", City: "Tehran", Point: Point{35.6892, 51.3890}},
	{Country: "Myanmar", City: "Yangon", Point: Point{16.8409, 96.1735}},
	{Country: "North Korea", City: "Pyongyang", Point: Point{39.0392, 125.7625}},
	{Country: "Germany", City: "Berlin", Point: Point{52.5200, 13.4050}},
	{Country: "Australia", City: "Sydney", Point: Point{-33.8688, 151.2093}},
	{Country: "Nigeria", City: "Lagos", Point: Point{6.5244, 3.3792}},
}

// Unknown is returned for coordinates outside every reference radius.
const Unknown = "Unknown"

const defaultMaxDistanceMeters = 300000

// Resolver maps coordinates to the nearest reference place.
type Resolver struct {
	places      []Place
	maxDistance float64
}

// NewResolver builds a resolver over places; nil selects the built-in table.
func NewResolver(places []Place) *Resolver {
	if len(places) == 0 {
		places = Places
	}
	return &Resolver{places: places, maxDistance: defaultMaxDistanceMeters}
}

// Resolve returns the country and city of the nearest place within range.
func (r *Resolver) Resolve(p Point) (country, city string) {
	best := math.MaxFloat64
	country, city = Unknown, Unknown
	for _, pl := range r.places {
		d := Distance(p, pl.Point)
		if d < best && d <= r.maxDistance {
			best = d
			country, city = pl.Country, pl.City
		}
	}
	return country, city
}
