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

import "math"

// Default meshing parameters applied when the corresponding AutoGrid or
// QuasiUniformGrid fields are left at zero.
const (
	defaultMinStepsPerWvl     = 10.0
	defaultMinStepsPerSimSize = 10.0
	defaultMaxScale           = 1.4
)

// autoGridSpec is the shared contract of the two automatic strategies.
type autoGridSpec interface {
	GridSpec1D
	preprocessStructures(structures []GridStructure) []GridStructure
	dlCollapsedAxis(wavelength float64, simSize Coordinate) float64
	internalDlMin() float64
	internalMinStepsPerWvl() float64
	internalDlMax(simSize Coordinate) float64
	internalMaxScale() float64
	internalMesher() Mesher
	validate() error
}

func validateMaxScale(maxScale float64) error {
	if maxScale != 0 && (maxScale < 1.2 || maxScale >= 2.0) {
		return setupErrorf("max scale must be in [1.2, 2.0), got %g", maxScale)
	}
	return nil
}

// autoMakeCoordsInitial is the meshing pipeline shared by AutoGrid and
// QuasiUniformGrid: halve the domain along symmetric axes, filter the
// structure list, parse intervals, insert snapping points and fill each
// interval with graded steps.
func autoMakeCoordsInitial(g autoGridSpec, p CoordsParams, isPeriodic bool, diag *Diagnostics) (Coords1D, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	domain := p.Structures[0].structureGeometry()
	simCent := domain.Center()
	simSize := domain.Size()

	// the step upper bound follows the full domain, not the symmetry-halved
	// one
	dlMax := g.internalDlMax(simSize)

	for dim, sym := range p.Symmetry {
		if sym != 0 {
			simCent[dim] += simSize[dim] / 4
			simSize[dim] /= 2
		}
	}
	symmetryDomain := NewBox(simCent, simSize)

	var background Medium
	if st, ok := p.Structures[0].(Structure); ok {
		background = st.Medium
	}
	structList := []GridStructure{Structure{Geometry: symmetryDomain, Medium: background}}
	rminDomain, rmaxDomain := symmetryDomain.Bounds()
	for _, s := range p.Structures[1:] {
		var drop bool
		if o, ok := s.(MeshOverrideStructure); ok && o.KeepOutsideSim {
			// kept as long as the projections on this axis overlap
			rmin, rmax := o.Geometry.Bounds()
			drop = rmin[p.Axis] > rmaxDomain[p.Axis] || rminDomain[p.Axis] > rmax[p.Axis]
		} else {
			drop = !symmetryDomain.Intersects(s.structureGeometry())
		}
		if !drop {
			structList = append(structList, s)
		}
	}

	mesher := g.internalMesher()
	coords, maxDl, err := mesher.ParseStructures(
		p.Axis, g.preprocessStructures(structList), p.Wavelength,
		g.internalMinStepsPerWvl(), g.internalDlMin(), dlMax)
	if err != nil {
		return nil, err
	}
	coords, maxDl = mesher.InsertSnappingPoints(g.internalDlMin(), p.Axis, coords, maxDl, p.SnappingPoints)

	// a single pixel for 2D-like simulations
	if len(coords) == 1 {
		dl := g.dlCollapsedAxis(p.Wavelength, simSize)
		c := simCent[p.Axis]
		return Coords1D{c - dl/2, c + dl/2}, nil
	}

	lens := make([]float64, len(coords)-1)
	for i := range lens {
		lens[i] = coords[i+1] - coords[i]
	}
	dlLists := mesher.MakeGridMultipleIntervals(maxDl, lens, g.internalMaxScale(), isPeriodic)

	// assemble boundaries, forcing each interval endpoint so that snapping
	// points and structure bounds appear exactly
	total := 0
	for _, steps := range dlLists {
		total += len(steps)
	}
	bounds := make(Coords1D, 0, total+1)
	bounds = append(bounds, coords[0])
	for i, steps := range dlLists {
		acc := coords[i]
		for j := 0; j < len(steps)-1; j++ {
			acc += steps[j]
			bounds = append(bounds, acc)
		}
		bounds = append(bounds, coords[i+1])
	}

	// the outermost boundaries must land on the (symmetry-halved) domain
	if !closeTo(bounds[0], rminDomain[p.Axis]) || !closeTo(bounds[len(bounds)-1], rmaxDomain[p.Axis]) {
		diag.internalf("automatic grid coordinates along the %s-axis do not match the simulation domain; "+
			"this indicates an unexpected meshing problem, please open an issue. "+
			"The outermost boundaries were snapped onto the domain.", axisName(p.Axis))
	}
	bounds[0] = rminDomain[p.Axis]
	bounds[len(bounds)-1] = rmaxDomain[p.Axis]

	return bounds, nil
}

// AutoGrid generates a nonuniform grid along one axis, placing at least
// MinStepsPerWvl steps per wavelength in each medium and grading step sizes
// between material intervals.
//
// The zero value uses the defaults: 10 steps per wavelength, 10 steps per
// simulation size, max scale 1.4, heuristic lower step bound and the
// GradedMesher.
type AutoGrid struct {
	// MinStepsPerWvl is the minimal number of steps per wavelength in each
	// medium. Must be at least 6 when set.
	MinStepsPerWvl float64
	// MinStepsPerSimSize is the minimal number of steps per longest edge of
	// the simulation domain, useful for subwavelength domains.
	MinStepsPerSimSize float64
	// MaxScale bounds the ratio between any two consecutive grid steps.
	// Must be in [1.2, 2.0) when set.
	MaxScale float64
	// DlMin is a soft lower bound of the step size regardless of structures
	// present. Zero selects a heuristic bound derived from the whole grid
	// specification.
	DlMin float64
	// Mesher overrides the grid construction tool.
	Mesher Mesher
}

func (g AutoGrid) validate() error {
	if g.MinStepsPerWvl != 0 && g.MinStepsPerWvl < 6 {
		return setupErrorf("min steps per wavelength must be at least 6, got %g", g.MinStepsPerWvl)
	}
	if g.MinStepsPerSimSize != 0 && g.MinStepsPerSimSize < 1 {
		return setupErrorf("min steps per simulation size must be at least 1, got %g", g.MinStepsPerSimSize)
	}
	return validateMaxScale(g.MaxScale)
}

func (g AutoGrid) makeCoordsInitial(p CoordsParams, isPeriodic bool, diag *Diagnostics) (Coords1D, error) {
	return autoMakeCoordsInitial(g, p, isPeriodic, diag)
}

func (g AutoGrid) preprocessStructures(structures []GridStructure) []GridStructure {
	return structures
}

func (g AutoGrid) internalMinStepsPerWvl() float64 {
	if g.MinStepsPerWvl == 0 {
		return defaultMinStepsPerWvl
	}
	return g.MinStepsPerWvl
}

func (g AutoGrid) internalDlMin() float64 { return g.DlMin }

func (g AutoGrid) internalDlMax(simSize Coordinate) float64 {
	minSteps := g.MinStepsPerSimSize
	if minSteps == 0 {
		minSteps = defaultMinStepsPerSimSize
	}
	longest := 0.0
	for _, s := range simSize {
		if !math.IsInf(s, 1) && s > longest {
			longest = s
		}
	}
	if longest == 0 {
		return math.Inf(1)
	}
	return longest / minSteps
}

func (g AutoGrid) internalMaxScale() float64 {
	if g.MaxScale == 0 {
		return defaultMaxScale
	}
	return g.MaxScale
}

func (g AutoGrid) internalMesher() Mesher {
	if g.Mesher == nil {
		return GradedMesher{}
	}
	return g.Mesher
}

func (g AutoGrid) filteredDl(dl float64, simSize Coordinate) float64 {
	return math.Max(math.Min(dl, g.internalDlMax(simSize)), g.DlMin)
}

// vacuumDl is the step size this specification produces in vacuum.
func (g AutoGrid) vacuumDl(wavelength float64, simSize Coordinate) float64 {
	return g.filteredDl(wavelength/g.internalMinStepsPerWvl(), simSize)
}

func (g AutoGrid) dlCollapsedAxis(wavelength float64, simSize Coordinate) float64 {
	return g.vacuumDl(wavelength, simSize)
}

// EstimatedMinDl implements GridSpec1D: the smallest step requirement among
// the structures, clipped by the internal step bounds.
func (g AutoGrid) EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64 {
	mesher := g.internalMesher()
	minDl := math.Inf(1)
	for _, s := range structures {
		minDl = math.Min(minDl, mesher.StructureStep(s, wavelength, g.internalMinStepsPerWvl()))
	}
	return g.filteredDl(minDl, simSize)
}

// QuasiUniformGrid generates a mostly uniform grid with the given step, with
// positions locally adjusted to land on snapping points and structure
// bounding-box edges. It uses the same meshing machinery as AutoGrid but
// ignores material information.
type QuasiUniformGrid struct {
	// Dl is the grid step size; steps at some locations can be slightly
	// smaller.
	Dl float64
	// MaxScale bounds the ratio between any two consecutive grid steps.
	// Must be in [1.2, 2.0) when set.
	MaxScale float64
	// DlMin is a soft lower bound of the step size. Zero selects half of
	// Dl.
	DlMin float64
	// Mesher overrides the grid construction tool.
	Mesher Mesher
}

func (g QuasiUniformGrid) validate() error {
	if g.Dl <= 0 {
		return setupErrorf("quasi-uniform grid step size must be positive, got %g", g.Dl)
	}
	return validateMaxScale(g.MaxScale)
}

func (g QuasiUniformGrid) makeCoordsInitial(p CoordsParams, isPeriodic bool, diag *Diagnostics) (Coords1D, error) {
	return autoMakeCoordsInitial(g, p, isPeriodic, diag)
}

// preprocessStructures strips material information so every structure
// requests the uniform step, keeping unconstrained override axes
// unconstrained.
func (g QuasiUniformGrid) preprocessStructures(structures []GridStructure) []GridStructure {
	processed := make([]GridStructure, 0, len(structures))
	for _, s := range structures {
		dl := [3]float64{g.Dl, g.Dl, g.Dl}
		if o, ok := s.(MeshOverrideStructure); ok {
			for d, dlAxis := range o.Dl {
				if math.IsNaN(dlAxis) {
					dl[d] = math.NaN()
				}
			}
		}
		processed = append(processed, MeshOverrideStructure{Geometry: s.structureGeometry(), Dl: dl})
	}
	return processed
}

func (g QuasiUniformGrid) internalDlMin() float64 {
	if g.DlMin == 0 {
		return 0.5 * g.Dl
	}
	return g.DlMin
}

// internalMinStepsPerWvl is irrelevant for quasi-uniform grids; material
// information is stripped before meshing.
func (g QuasiUniformGrid) internalMinStepsPerWvl() float64 { return 1 }

func (g QuasiUniformGrid) internalDlMax(simSize Coordinate) float64 { return g.Dl }

func (g QuasiUniformGrid) internalMaxScale() float64 {
	if g.MaxScale == 0 {
		return defaultMaxScale
	}
	return g.MaxScale
}

func (g QuasiUniformGrid) internalMesher() Mesher {
	if g.Mesher == nil {
		return GradedMesher{}
	}
	return g.Mesher
}

func (g QuasiUniformGrid) dlCollapsedAxis(wavelength float64, simSize Coordinate) float64 {
	return math.Max(math.Min(g.Dl, g.internalDlMax(simSize)), g.internalDlMin())
}

// EstimatedMinDl implements GridSpec1D; the estimate is the step itself.
func (g QuasiUniformGrid) EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64 {
	return g.Dl
}
