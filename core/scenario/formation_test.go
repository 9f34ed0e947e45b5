package scenario

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(p Point) float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

func TestFormationsStayOnRadius(t *testing.T) {
	for _, name := range []string{FormationSphere, FormationCircle3D, FormationCircle2D} {
		t.Run(name, func(t *testing.T) {
			f, err := LookupFormation(name)
			require.NoError(t, err)
			pts := f(10, 25)
			require.Len(t, pts, 25)
			for _, p := range pts {
				assert.InDelta(t, 10, norm(p), 1e-9)
			}
		})
	}
}

func TestCircleIsPlanar(t *testing.T) {
	for _, p := range Circle(5, 8) {
		assert.Zero(t, p[2])
	}
	pts := Circle(5, 4)
	assert.InDelta(t, 5, pts[0][0], 1e-12)
	assert.InDelta(t, 5, pts[1][1], 1e-12)
}

func TestSpherePointsDistinct(t *testing.T) {
	pts := Sphere(1, 50)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			assert.NotEqual(t, pts[i], pts[j])
		}
	}
	assert.Equal(t, []Point{{0, 0, 1}}, Sphere(1, 1))
}

func TestLine(t *testing.T) {
	assert.Equal(t, []Point{{-2, 0, 0}, {0, 0, 0}, {2, 0, 0}}, Line(2, 3))
	assert.Equal(t, []Point{{}}, Line(2, 1))
	assert.Empty(t, Line(2, 0))
}

func TestLookupFormationUnknown(t *testing.T) {
	_, err := LookupFormation("torus")
	assert.ErrorContains(t, err, "torus")

	f, err := LookupFormation("Circle3D")
	require.NoError(t, err)
	assert.Len(t, f(1, 3), 3)
}
