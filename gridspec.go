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
	"strings"
)

// GridParams carries the simulation context for GridSpec.MakeGrid.
type GridParams struct {
	// Structures present in the simulation; the first entry must be the
	// simulation domain with the background medium.
	Structures []Structure
	// Symmetry holds the reflection symmetry (-1, 0 or 1) across a plane
	// bisecting the simulation domain normal to each axis.
	Symmetry [3]int
	// Periodic marks axes with periodic boundaries.
	Periodic [3]bool
	// Sources supply the central frequency when the grid specification has
	// no explicit wavelength.
	Sources []Source
	// NumPMLLayers is the number of absorber layers beyond the minus and
	// plus domain boundaries along each axis.
	NumPMLLayers [3][2]int
}

// GridSpec is the collective grid specification for all three dimensions.
// Nil per-axis specifications default to the zero-valued AutoGrid.
type GridSpec struct {
	// GridX, GridY, GridZ select the strategy along each axis.
	GridX GridSpec1D
	GridY GridSpec1D
	GridZ GridSpec1D

	// Wavelength is the free-space wavelength for automatic grids. Zero
	// derives it from the central frequency of the sources. It only takes
	// effect when at least one axis uses AutoGrid.
	Wavelength float64

	// OverrideStructures are added on top of the simulation structures
	// during grid generation, to locally refine or coarsen the grid. Only
	// effective along axes using AutoGrid or QuasiUniformGrid.
	OverrideStructures []GridStructure

	// SnappingPoints force grid boundaries to pass through them. A point
	// closer than the effective lower step bound to a structure boundary or
	// an earlier point is absorbed by it and skipped. Only effective along
	// axes using AutoGrid or QuasiUniformGrid.
	SnappingPoints []CoordinateOptional

	// LayerRefinementSpecs request automatic refinement in layered
	// structures. Only effective along axes using AutoGrid.
	LayerRefinementSpecs []LayerRefinementSpec
}

// AutoSpec builds a GridSpec using the same AutoGrid along all three axes.
// Zero minStepsPerWvl selects the default of 10; zero wavelength derives it
// from the sources.
func AutoSpec(wavelength, minStepsPerWvl float64) GridSpec {
	g := AutoGrid{MinStepsPerWvl: minStepsPerWvl}
	return GridSpec{GridX: g, GridY: g, GridZ: g, Wavelength: wavelength}
}

// UniformSpec builds a GridSpec using the same UniformGrid along all three
// axes.
func UniformSpec(dl float64) GridSpec {
	g := UniformGrid{Dl: dl}
	return GridSpec{GridX: g, GridY: g, GridZ: g}
}

// QuasiUniformSpec builds a GridSpec using the same QuasiUniformGrid along
// all three axes.
func QuasiUniformSpec(dl float64) GridSpec {
	g := QuasiUniformGrid{Dl: dl}
	return GridSpec{GridX: g, GridY: g, GridZ: g}
}

// FromGrid imports the grid of another simulation as a fixed specification.
func FromGrid(grid *Grid) GridSpec {
	return GridSpec{
		GridX: CustomGridBoundaries{Coords: append(Coords1D(nil), grid.Boundaries.X...)},
		GridY: CustomGridBoundaries{Coords: append(Coords1D(nil), grid.Boundaries.Y...)},
		GridZ: CustomGridBoundaries{Coords: append(Coords1D(nil), grid.Boundaries.Z...)},
	}
}

func (gs GridSpec) grids() [3]GridSpec1D {
	out := [3]GridSpec1D{gs.GridX, gs.GridY, gs.GridZ}
	for d, g := range out {
		if g == nil {
			out[d] = AutoGrid{}
		}
	}
	return out
}

// AutoGridUsed reports whether any axis uses AutoGrid.
func (gs GridSpec) AutoGridUsed() bool {
	for _, g := range gs.grids() {
		if _, ok := g.(AutoGrid); ok {
			return true
		}
	}
	return false
}

// SnappedGridUsed reports whether any axis uses an automatic strategy that
// adjusts the grid with snapping points and geometry boundaries.
func (gs GridSpec) SnappedGridUsed() bool {
	for _, g := range gs.grids() {
		switch g.(type) {
		case AutoGrid, QuasiUniformGrid:
			return true
		}
	}
	return false
}

// CustomGridUsed reports whether any axis uses externally supplied
// coordinates.
func (gs GridSpec) CustomGridUsed() bool {
	for _, g := range gs.grids() {
		switch g.(type) {
		case CustomGrid, CustomGridBoundaries:
			return true
		}
	}
	return false
}

func (gs GridSpec) layerRefinementUsed() bool { return len(gs.LayerRefinementSpecs) > 0 }

// snappingPointsUsed reports, per axis, whether any snapping point
// constrains that axis.
func (gs GridSpec) snappingPointsUsed() [3]bool {
	var used [3]bool
	for _, p := range gs.SnappingPoints {
		for d, coord := range p {
			if !math.IsNaN(coord) {
				used[d] = true
			}
		}
	}
	return used
}

// overrideStructuresUsed reports, per axis, whether any override structure
// constrains that axis.
func (gs GridSpec) overrideStructuresUsed() [3]bool {
	var used [3]bool
	for _, s := range gs.OverrideStructures {
		o, ok := s.(MeshOverrideStructure)
		if !ok {
			// a physical override structure affects all axes
			return [3]bool{true, true, true}
		}
		for d, dl := range o.Dl {
			if !math.IsNaN(dl) {
				used[d] = true
			}
		}
	}
	return used
}

// wavelengthFromSources derives the wavelength from the central frequency
// shared by the sources.
func wavelengthFromSources(sources []Source) (float64, error) {
	if len(sources) == 0 {
		return 0, setupErrorf("automatic grid generation requires a wavelength or sources")
	}
	freq0 := sources[0].Freq0
	for _, s := range sources[1:] {
		if !closeTo(s.Freq0, freq0) {
			return 0, setupErrorf("sources of different central frequencies are supplied; " +
				"please supply a wavelength for the grid specification")
		}
	}
	if freq0 <= 0 {
		return 0, setupErrorf("source central frequency must be positive, got %g", freq0)
	}
	return C0 / freq0, nil
}

// GetWavelength resolves the wavelength for automatic mesh generation. The
// result is zero when no axis needs one.
func (gs GridSpec) GetWavelength(sources []Source) (float64, error) {
	if gs.Wavelength != 0 {
		return gs.Wavelength, nil
	}
	if gs.AutoGridUsed() {
		return wavelengthFromSources(sources)
	}
	return 0, nil
}

// InternalSnappingPoints returns the snapping points generated by the layer
// refinement specifications. They only take effect when AutoGrid is used.
// The first structure (the simulation domain) is excluded from corner
// detection.
func (gs GridSpec) InternalSnappingPoints(structures []Structure) []CoordinateOptional {
	if !(gs.AutoGridUsed() && gs.layerRefinementUsed()) {
		return nil
	}
	if len(structures) > 0 {
		structures = structures[1:]
	}
	var points []CoordinateOptional
	for _, layer := range gs.LayerRefinementSpecs {
		points = append(points, layer.GenerateSnappingPoints(structures)...)
	}
	return points
}

// AllSnappingPoints returns the internal and external snapping points;
// external points come last and take higher priority.
func (gs GridSpec) AllSnappingPoints(structures []Structure) []CoordinateOptional {
	return append(gs.InternalSnappingPoints(structures), gs.SnappingPoints...)
}

// InternalOverrideStructures returns the override structures generated by
// the layer refinement specifications.
func (gs GridSpec) InternalOverrideStructures(structures []Structure, wavelength float64, simSize Coordinate) []GridStructure {
	if !(gs.AutoGridUsed() && gs.layerRefinementUsed()) {
		return nil
	}
	if len(structures) > 0 {
		structures = structures[1:]
	}
	vacuumDl := gs.minVacuumDlInAutoGrid(wavelength, simSize)
	var overrides []GridStructure
	for _, layer := range gs.LayerRefinementSpecs {
		for _, o := range layer.GenerateOverrideStructures(vacuumDl, structures) {
			overrides = append(overrides, o)
		}
	}
	return overrides
}

// AllOverrideStructures returns the internal and external override
// structures; external structures come last and take higher priority.
func (gs GridSpec) AllOverrideStructures(structures []Structure, wavelength float64, simSize Coordinate) []GridStructure {
	return append(gs.InternalOverrideStructures(structures, wavelength, simSize), gs.OverrideStructures...)
}

// minVacuumDlInAutoGrid returns the vacuum step size of the AutoGrid axes;
// the minimum when more than one axis uses AutoGrid.
func (gs GridSpec) minVacuumDlInAutoGrid(wavelength float64, simSize Coordinate) float64 {
	dl := math.Inf(1)
	for _, g := range gs.grids() {
		if auto, ok := g.(AutoGrid); ok {
			dl = math.Min(dl, auto.vacuumDl(wavelength, simSize))
		}
	}
	return dl
}

// derivedDlMin estimates the lower step bound applied to AutoGrid axes with
// an unset DlMin.
func (gs GridSpec) derivedDlMin(wavelength float64, structureList []GridStructure, simSize Coordinate) float64 {
	var structures []Structure
	minDl := math.Inf(1)
	for _, s := range structureList {
		switch st := s.(type) {
		case Structure:
			structures = append(structures, st)
		case MeshOverrideStructure:
			for _, dl := range st.Dl {
				if !math.IsNaN(dl) && dl < minDl {
					minDl = dl
				}
			}
		}
	}
	for _, g := range gs.grids() {
		minDl = math.Min(minDl, g.EstimatedMinDl(wavelength, structures, simSize))
	}
	if gs.layerRefinementUsed() {
		vacuumDl := gs.minVacuumDlInAutoGrid(wavelength, simSize)
		for _, layer := range gs.LayerRefinementSpecs {
			minDl = math.Min(minDl, layer.SuggestedDlMin(vacuumDl))
		}
	}
	return minDl * minStepBoundScale
}

// MakeGrid makes the entire simulation grid. The first structure must be the
// simulation domain with the background medium. Diagnostics may be nil.
func (gs GridSpec) MakeGrid(params GridParams, diag *Diagnostics) (*Grid, error) {
	if len(params.Structures) == 0 || params.Structures[0].Geometry == nil {
		return nil, setupErrorf("grid generation requires the simulation domain as the first structure")
	}
	simSize := params.Structures[0].Geometry.Size()
	var collapsed []string
	for d := 0; d < 3; d++ {
		if simSize[d] == 0 {
			collapsed = append(collapsed, axisName(d))
		}
	}
	if len(collapsed) > 1 {
		return nil, setupErrorf("simulation domain has zero size along the %s axes; "+
			"at most one axis may have zero size", strings.Join(collapsed, " and "))
	}

	wavelength, err := gs.GetWavelength(params.Sources)
	if err != nil {
		return nil, err
	}

	grids := gs.grids()

	// specification pieces that silently take no effect deserve a warning
	overrideUsed := gs.overrideStructuresUsed()
	snappingUsed := gs.snappingPointsUsed()
	for d, g := range grids {
		snapped := false
		switch g.(type) {
		case AutoGrid, QuasiUniformGrid:
			snapped = true
		}
		if !snapped {
			if overrideUsed[d] {
				diag.warnf("override structures take no effect along the %s-axis; "+
					"to apply them to this axis, use AutoGrid or QuasiUniformGrid", axisName(d))
			}
			if snappingUsed[d] {
				diag.warnf("snapping points take no effect along the %s-axis; "+
					"to apply them to this axis, use AutoGrid or QuasiUniformGrid", axisName(d))
			}
		}
		if gs.layerRefinementUsed() {
			if _, ok := g.(AutoGrid); !ok {
				diag.warnf("layer refinement specifications take no effect along the %s-axis; "+
					"to apply automatic refinement to this axis, use AutoGrid", axisName(d))
			}
		}
	}

	structureList := make([]GridStructure, 0, len(params.Structures))
	for _, s := range params.Structures {
		structureList = append(structureList, s)
	}
	allStructures := append(structureList, gs.AllOverrideStructures(params.Structures, wavelength, simSize)...)

	// apply the heuristic lower step bound to AutoGrid axes without one
	needDlMin := false
	for _, g := range grids {
		if auto, ok := g.(AutoGrid); ok && auto.DlMin == 0 {
			needDlMin = true
			break
		}
	}
	if needDlMin {
		withExternal := append(append([]GridStructure(nil), structureList...), gs.OverrideStructures...)
		newDlMin := gs.derivedDlMin(wavelength, withExternal, simSize)
		if !math.IsInf(newDlMin, 1) {
			for d, g := range grids {
				if auto, ok := g.(AutoGrid); ok && auto.DlMin == 0 {
					auto.DlMin = newDlMin
					grids[d] = auto
				}
			}
		}
	}

	snappingPoints := gs.AllSnappingPoints(params.Structures)

	var coords Coords
	for d, g := range grids {
		c, err := MakeCoords(g, CoordsParams{
			Axis:           d,
			Structures:     allStructures,
			Symmetry:       params.Symmetry,
			Periodic:       params.Periodic[d],
			Wavelength:     wavelength,
			NumPMLLayers:   params.NumPMLLayers[d],
			SnappingPoints: snappingPoints,
		}, diag)
		if err != nil {
			return nil, err
		}
		switch d {
		case 0:
			coords.X = c
		case 1:
			coords.Y = c
		case 2:
			coords.Z = c
		}
	}
	return &Grid{Boundaries: coords}, nil
}
