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
)

// domainParams builds coordinate-generation parameters for a bare simulation
// domain of the given size, centered on the origin.
func domainParams(axis int, size Coordinate) CoordsParams {
	return CoordsParams{
		Axis:       axis,
		Structures: []GridStructure{Structure{Geometry: NewBox(Coordinate{}, size)}},
		Wavelength: 1,
	}
}

func TestUniformGridSnapsToDomain(t *testing.T) {
	// 0.3 does not divide the domain size 1; the step shrinks to 0.25
	coords, err := MakeCoords(UniformGrid{Dl: 0.3}, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{-0.5, -0.25, 0, 0.25, 0.5}, 1e-12)
}

func TestUniformGridZeroSize(t *testing.T) {
	coords, err := MakeCoords(UniformGrid{Dl: 0.3}, domainParams(2, Coordinate{1, 1, 0}), nil)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{0, 0.3}, 1e-12)
}

func TestUniformGridRejectsNonPositiveStep(t *testing.T) {
	_, err := MakeCoords(UniformGrid{}, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err == nil {
		t.Fatal("expected an error for a zero step size")
	}
	if _, ok := err.(*SetupError); !ok {
		t.Errorf("error is %T, want *SetupError", err)
	}
}

func TestCustomGridBoundariesTrimAndExtend(t *testing.T) {
	g := CustomGridBoundaries{Coords: Coords1D{-0.2, 0, 0.2, 0.4, 0.6, 0.8}}
	coords, err := MakeCoords(g, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err != nil {
		t.Fatal(err)
	}
	// boundaries outside [-0.5, 0.5] are dropped and the edge cells repeat
	// down to the lower domain bound
	checkFloats(t, "coords", coords, []float64{-0.4, -0.2, 0, 0.2, 0.4}, 1e-12)
}

func TestCustomGridBoundariesOutsideDomain(t *testing.T) {
	g := CustomGridBoundaries{Coords: Coords1D{10, 11, 12}}
	_, err := MakeCoords(g, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err == nil {
		t.Fatal("expected an error for a grid that misses the domain")
	}
}

func TestCustomGridBoundariesZeroSize(t *testing.T) {
	g := CustomGridBoundaries{Coords: Coords1D{-0.3, -0.1, 0.2, 0.5}}
	coords, err := MakeCoords(g, domainParams(2, Coordinate{1, 1, 0}), nil)
	if err != nil {
		t.Fatal(err)
	}
	// the single cell containing the collapsed domain survives
	checkFloats(t, "coords", coords, []float64{-0.1, 0.2}, 1e-12)
}

func TestCustomGridCentered(t *testing.T) {
	g := CustomGrid{Dl: []float64{0.2, 0.2, 0.2, 0.2, 0.2}}
	coords, err := MakeCoords(g, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{-0.5, -0.3, -0.1, 0.1, 0.3, 0.5}, 1e-12)
}

func TestCustomGridAnchored(t *testing.T) {
	g := CustomGrid{Dl: []float64{0.25, 0.25, 0.25, 0.25}, Offset: -0.5, Anchored: true}
	coords, err := MakeCoords(g, domainParams(0, Coordinate{1, 1, 1}), nil)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "coords", coords, []float64{-0.5, -0.25, 0, 0.25, 0.5}, 1e-12)
}

func TestMakeCoordsSymmetry(t *testing.T) {
	p := domainParams(0, Coordinate{1, 1, 1})
	p.Symmetry = [3]int{1, 0, 0}
	// dl = 1/3 places no boundary on the symmetry plane; folding shifts the
	// nearest one onto it and mirrors the upper half
	coords, err := MakeCoords(UniformGrid{Dl: 0.4}, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(coords) != 5 {
		t.Fatalf("got %d coords, want 5: %v", len(coords), coords)
	}
	for i := range coords {
		mirror := coords[len(coords)-1-i]
		if !approxEqual(coords[i], -mirror, 1e-12) {
			t.Errorf("coords not symmetric: %g vs %g", coords[i], mirror)
		}
	}
	if !approxEqual(coords[2], 0, 1e-12) {
		t.Errorf("center boundary = %g, want 0", coords[2])
	}
}

func TestMakeCoordsPML(t *testing.T) {
	p := domainParams(0, Coordinate{1, 1, 1})
	p.NumPMLLayers = [2]int{2, 3}
	coords, err := MakeCoords(UniformGrid{Dl: 0.25}, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(coords) != 10 {
		t.Fatalf("got %d coords, want 10: %v", len(coords), coords)
	}
	if !approxEqual(coords[0], -1, 1e-12) {
		t.Errorf("first boundary = %g, want -1", coords[0])
	}
	if !approxEqual(coords[len(coords)-1], 1.25, 1e-12) {
		t.Errorf("last boundary = %g, want 1.25", coords[len(coords)-1])
	}
}

func TestEstimatedMinDl(t *testing.T) {
	simSize := Coordinate{2, 2, 2}
	if got := (UniformGrid{Dl: 0.1}).EstimatedMinDl(1, nil, simSize); got != 0.1 {
		t.Errorf("uniform estimate = %g, want 0.1", got)
	}
	if got := (CustomGrid{Dl: []float64{0.3, 0.1, 0.2}}).EstimatedMinDl(1, nil, simSize); got != 0.1 {
		t.Errorf("custom estimate = %g, want 0.1", got)
	}
	g := CustomGridBoundaries{Coords: Coords1D{0, 0.3, 0.4, 0.8}}
	if got := g.EstimatedMinDl(1, nil, simSize); !approxEqual(got, 0.1, 1e-12) {
		t.Errorf("boundaries estimate = %g, want 0.1", got)
	}

	structures := []Structure{{
		Geometry: NewBox(Coordinate{}, simSize),
		Medium:   Medium{Permittivity: 4},
	}}
	if got := (AutoGrid{}).EstimatedMinDl(1, structures, simSize); !approxEqual(got, 0.05, 1e-12) {
		t.Errorf("auto estimate = %g, want 0.05", got)
	}
}

func TestAddPMLToBoundsEmpty(t *testing.T) {
	coords := addPMLToBounds([2]int{3, 3}, Coords1D{0.5})
	if len(coords) != 1 {
		t.Errorf("got %v, want the single boundary unchanged", coords)
	}
}

func TestCloseTo(t *testing.T) {
	if !closeTo(1, 1+1e-9) {
		t.Error("1 and 1+1e-9 should compare close")
	}
	if closeTo(1, 1.001) {
		t.Error("1 and 1.001 should not compare close")
	}
	if !closeTo(0, 1e-9) {
		t.Error("0 and 1e-9 should compare close")
	}
	if closeTo(math.Inf(1), 1) {
		t.Error("infinity should not compare close to 1")
	}
}
