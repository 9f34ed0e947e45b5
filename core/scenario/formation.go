package scenario

import (
	"fmt"
	"math"
	"strings"
)

// Formation names accepted in configuration.
const (
	FormationSphere   = "sphere"
	FormationCircle3D = "circle3d"
	FormationCircle2D = "circle2d"
	FormationLine     = "line"
)

// Point is a position in 3-D space.
type Point [3]float64

// Formation places n points around the origin at the given radius.
type Formation func(radius float64, n int) []Point

var formations = map[string]Formation{
	FormationSphere:   Sphere,
	FormationCircle3D: Circle,
	// the simulation is always 3-D, a planar circle lies at z = 0
	FormationCircle2D: Circle,
	FormationLine:     Line,
}

// LookupFormation returns the formation registered under name.
func LookupFormation(name string) (Formation, error) {
	f, ok := formations[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown formation %q", name)
	}
	return f, nil
}

// Sphere spreads n points evenly over a sphere using the Fibonacci lattice.
func Sphere(radius float64, n int) []Point {
	pts := make([]Point, n)
	if n == 1 {
		pts[0] = Point{0, 0, radius}
		return pts
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := range n {
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := golden * float64(i)
		pts[i] = Point{radius * r * math.Cos(phi), radius * r * math.Sin(phi), radius * z}
	}
	return pts
}

// Circle places n points at equal angles on a circle in the z = 0 plane.
func Circle(radius float64, n int) []Point {
	pts := make([]Point, n)
	for i := range n {
		th := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{radius * math.Cos(th), radius * math.Sin(th), 0}
	}
	return pts
}

// Line spaces n points evenly along the x axis over [-radius, radius].
func Line(radius float64, n int) []Point {
	pts := make([]Point, n)
	if n == 1 {
		return pts
	}
	step := 2 * radius / float64(n-1)
	for i := range n {
		pts[i] = Point{-radius + step*float64(i), 0, 0}
	}
	return pts
}
