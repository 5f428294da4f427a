/*
Copyright © 2025 the EMGrid authors.
This file is part of EMGrid.

EMGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EMGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EMGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package emgrid

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// approxEqual reports whether a and b agree within an absolute tolerance.
func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// containsCoord reports whether x appears exactly among the coordinates.
func containsCoord(coords []float64, x float64) bool {
	for _, c := range coords {
		if c == x {
			return true
		}
	}
	return false
}

func checkFloats(t *testing.T, name string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range got {
		if !approxEqual(got[i], want[i], tol) {
			t.Fatalf("%s[%d] = %g, want %g", name, i, got[i], want[i])
		}
	}
}

func TestStructureStep(t *testing.T) {
	m := GradedMesher{}
	s := Structure{
		Geometry: NewBox(Coordinate{}, Coordinate{1, 1, 1}),
		Medium:   Medium{Permittivity: 4},
	}
	if got, want := m.StructureStep(s, 1, 10), 0.05; !approxEqual(got, want, 1e-12) {
		t.Errorf("structure step = %g, want %g", got, want)
	}

	o := MeshOverrideStructure{
		Geometry: s.Geometry,
		Dl:       [3]float64{0.1, OptionalUnset(), 0.2},
	}
	if got, want := m.StructureStep(o, 1, 10), 0.1; got != want {
		t.Errorf("override step = %g, want %g", got, want)
	}

	unset := MeshOverrideStructure{
		Geometry: s.Geometry,
		Dl:       [3]float64{OptionalUnset(), OptionalUnset(), OptionalUnset()},
	}
	if got := m.StructureStep(unset, 1, 10); !math.IsInf(got, 1) {
		t.Errorf("fully unconstrained override step = %g, want +Inf", got)
	}
}

func TestParseStructuresBackground(t *testing.T) {
	m := GradedMesher{}
	domain := Structure{Geometry: NewBox(Coordinate{}, Coordinate{2, 2, 2})}

	coords, maxDl, err := m.ParseStructures(0, []GridStructure{domain}, 1, 10, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{-1, 1}, 0)
	checkFloats(t, "maxDl", maxDl, []float64{0.1}, 1e-12)
}

func TestParseStructuresInsertsBounds(t *testing.T) {
	m := GradedMesher{}
	domain := Structure{Geometry: NewBox(Coordinate{}, Coordinate{2, 2, 2})}
	inner := Structure{
		Geometry: NewBox(Coordinate{}, Coordinate{0.5, 0.5, 0.5}),
		Medium:   Medium{Permittivity: 4},
	}

	coords, maxDl, err := m.ParseStructures(0, []GridStructure{domain, inner}, 1, 10, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{-1, -0.25, 0.25, 1}, 0)
	checkFloats(t, "maxDl", maxDl, []float64{0.1, 0.05, 0.1}, 1e-12)
}

func TestParseStructuresShadowing(t *testing.T) {
	m := GradedMesher{}
	domain := Structure{Geometry: NewBox(Coordinate{}, Coordinate{2, 2, 2})}
	fine := Structure{
		Geometry: NewBox(Coordinate{}, Coordinate{1, 1, 1}),
		Medium:   Medium{Permittivity: 4},
	}
	coarse := MeshOverrideStructure{
		Geometry: fine.Geometry,
		Dl:       [3]float64{0.2, 0.2, 0.2},
	}

	// a shadowing override replaces the step of earlier structures
	_, maxDl, err := m.ParseStructures(0, []GridStructure{domain, fine, coarse}, 1, 10, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "maxDl", maxDl, []float64{0.1, 0.2, 0.1}, 1e-12)

	// a non-shadowing override only tightens it
	coarse.NoShadow = true
	_, maxDl, err = m.ParseStructures(0, []GridStructure{domain, fine, coarse}, 1, 10, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "maxDl no shadow", maxDl, []float64{0.1, 0.05, 0.1}, 1e-12)
}

func TestParseStructuresZeroSize(t *testing.T) {
	m := GradedMesher{}
	domain := Structure{Geometry: NewBox(Coordinate{}, Coordinate{2, 2, 0})}

	coords, maxDl, err := m.ParseStructures(2, []GridStructure{domain}, 1, 10, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(coords) != 1 || coords[0] != 0 {
		t.Errorf("coords = %v, want a single coordinate at 0", coords)
	}
	if len(maxDl) != 0 {
		t.Errorf("maxDl = %v, want no intervals", maxDl)
	}
}

func TestInsertSnappingPoints(t *testing.T) {
	m := GradedMesher{}
	coords := []float64{-1, 1}
	maxDl := []float64{0.1}

	nan := OptionalUnset()
	c, d := m.InsertSnappingPoints(0.05, 0, coords, maxDl, []CoordinateOptional{
		{0.3, nan, nan},
		{nan, 0.7, nan}, // unconstrained along this axis
		{-0.97, nan, nan}, // too close to the domain endpoint
	})
	checkFloats(t, "coords", c, []float64{-1, 0.3, 1}, 0)
	checkFloats(t, "maxDl", d, []float64{0.1, 0.1}, 0)

	// the inputs stay untouched
	checkFloats(t, "original coords", coords, []float64{-1, 1}, 0)
	checkFloats(t, "original maxDl", maxDl, []float64{0.1}, 0)

	// a point near an existing boundary is absorbed by it; the boundary
	// never moves
	c2, d2 := m.InsertSnappingPoints(0.05, 0, c, d, []CoordinateOptional{{0.32, nan, nan}})
	checkFloats(t, "absorbed coords", c2, []float64{-1, 0.3, 1}, 0)
	checkFloats(t, "absorbed maxDl", d2, []float64{0.1, 0.1}, 0)
}

func TestInsertSnappingPointsPriority(t *testing.T) {
	m := GradedMesher{}
	nan := OptionalUnset()

	// material boundaries at +-0.5 absorb points closer than dlMin; a point
	// exactly dlMin away from both neighbors is absorbed too
	coords := []float64{-1, -0.5, 0.5, 1}
	maxDl := []float64{0.5, 0.1, 0.5}
	c, d := m.InsertSnappingPoints(0.5, 0, coords, maxDl, []CoordinateOptional{
		{-0.25, nan, nan},
		{0.25, nan, nan},
		{0, nan, nan},
	})
	checkFloats(t, "coords", c, coords, 0)
	checkFloats(t, "maxDl", d, maxDl, 0)

	// of two mutually close points the earlier one wins
	c, _ = m.InsertSnappingPoints(0.1, 0, []float64{-1, 1}, []float64{0.2}, []CoordinateOptional{
		{0.3, nan, nan},
		{0.35, nan, nan},
	})
	checkFloats(t, "close pair", c, []float64{-1, 0.3, 1}, 0)

	// a coincident point is a no-op, so insertion is idempotent
	c, _ = m.InsertSnappingPoints(0.1, 0, c, []float64{0.2, 0.2}, []CoordinateOptional{{0.3, nan, nan}})
	checkFloats(t, "repeated point", c, []float64{-1, 0.3, 1}, 0)
}

// checkGradedSteps verifies the interval contract: exact length, step bound
// and neighbor ratio bound.
func checkGradedSteps(t *testing.T, steps []float64, length, dl, maxScale float64) {
	t.Helper()
	if sum := floats.Sum(steps); !approxEqual(sum, length, 1e-9*length) {
		t.Errorf("steps sum to %g, want %g", sum, length)
	}
	for i, s := range steps {
		if s <= 0 {
			t.Fatalf("step %d = %g, want positive", i, s)
		}
		if len(steps) > 1 && s > dl*(1+1e-9) {
			t.Errorf("step %d = %g exceeds the maximum %g", i, s, dl)
		}
	}
	for i := 1; i < len(steps); i++ {
		ratio := steps[i] / steps[i-1]
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > maxScale*(1+1e-9) {
			t.Errorf("steps %d..%d have ratio %g, want at most %g", i-1, i, ratio, maxScale)
		}
	}
}

func TestMakeGridSingleInterval(t *testing.T) {
	m := GradedMesher{}
	grids := m.MakeGridMultipleIntervals([]float64{0.1}, []float64{1}, 1.4, false)
	if len(grids) != 1 {
		t.Fatalf("got %d intervals, want 1", len(grids))
	}
	steps := grids[0]
	if len(steps) != 10 {
		t.Errorf("got %d steps, want 10", len(steps))
	}
	checkGradedSteps(t, steps, 1, 0.1, 1.4)
}

func TestMakeGridMultipleIntervalsGrading(t *testing.T) {
	m := GradedMesher{}
	maxDl := []float64{0.05, 0.5}
	lens := []float64{0.5, 2}
	const maxScale = 1.4

	grids := m.MakeGridMultipleIntervals(maxDl, lens, maxScale, false)
	if len(grids) != 2 {
		t.Fatalf("got %d intervals, want 2", len(grids))
	}
	for i, steps := range grids {
		checkGradedSteps(t, steps, lens[i], maxDl[i], maxScale)
	}

	// the ratio bound also holds across the interval boundary
	last := grids[0][len(grids[0])-1]
	first := grids[1][0]
	ratio := first / last
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > maxScale*1.01 {
		t.Errorf("cross-interval ratio = %g, want at most %g", ratio, maxScale)
	}

	// the coarse interval actually reaches coarse steps
	var coarsest float64
	for _, s := range grids[1] {
		if s > coarsest {
			coarsest = s
		}
	}
	if coarsest < 0.3 {
		t.Errorf("coarsest step = %g, expected the grid to grow toward 0.5", coarsest)
	}
}

func TestMakeGridMultipleIntervalsPeriodic(t *testing.T) {
	m := GradedMesher{}
	maxDl := []float64{0.05, 0.5}
	lens := []float64{0.5, 2}
	const maxScale = 1.4

	grids := m.MakeGridMultipleIntervals(maxDl, lens, maxScale, true)
	first := grids[0][0]
	last := grids[len(grids)-1][len(grids[len(grids)-1])-1]
	ratio := first / last
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > maxScale*1.01 {
		t.Errorf("wrap-around ratio = %g, want at most %g", ratio, maxScale)
	}
	for i, steps := range grids {
		checkGradedSteps(t, steps, lens[i], maxDl[i], maxScale)
	}
}

func TestMakeGridShortInterval(t *testing.T) {
	m := GradedMesher{}
	// an interval much shorter than the allowed step gets a single cell
	grids := m.MakeGridMultipleIntervals([]float64{0.1}, []float64{0.03}, 1.4, false)
	if len(grids[0]) != 1 || !approxEqual(grids[0][0], 0.03, 1e-12) {
		t.Errorf("short interval steps = %v, want a single cell of 0.03", grids[0])
	}
}
