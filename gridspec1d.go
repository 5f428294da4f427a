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
)

// CoordsParams carries the simulation context needed to generate grid
// boundaries along one axis.
type CoordsParams struct {
	// Axis of this direction (0, 1, 2) -> (x, y, z).
	Axis int
	// Structures present in the simulation; the first entry must be the
	// simulation domain with the background medium.
	Structures []GridStructure
	// Symmetry holds the reflection symmetry (-1, 0 or 1) across a plane
	// bisecting the simulation domain normal to each axis.
	Symmetry [3]int
	// Periodic applies periodic boundary treatment along this axis.
	Periodic bool
	// Wavelength is the free-space wavelength used for material-aware
	// step sizing.
	Wavelength float64
	// NumPMLLayers is the number of absorber layers beyond the minus and
	// plus domain boundaries.
	NumPMLLayers [2]int
	// SnappingPoints force grid boundaries to pass through them.
	SnappingPoints []CoordinateOptional
}

// GridSpec1D defines how grid boundaries are generated along one axis. The
// implementations are UniformGrid, CustomGrid, CustomGridBoundaries,
// AutoGrid and QuasiUniformGrid; the interface is sealed.
type GridSpec1D interface {
	// makeCoordsInitial generates the boundaries before symmetry folding and
	// PML padding are applied.
	makeCoordsInitial(p CoordsParams, isPeriodic bool, diag *Diagnostics) (Coords1D, error)

	// EstimatedMinDl estimates the smallest step this specification will
	// produce. The actual minimal step from the mesher might be smaller.
	EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64
}

// MakeCoords generates the grid boundaries along one axis, folding in
// reflection symmetry and appending PML layers. Diagnostics may be nil.
func MakeCoords(g GridSpec1D, p CoordsParams, diag *Diagnostics) (Coords1D, error) {
	if len(p.Structures) == 0 || p.Structures[0].structureGeometry() == nil {
		return nil, setupErrorf("grid generation requires the simulation domain as the first structure")
	}

	// periodicity only affects automatic mesh generation, and only without
	// symmetry across this axis
	isPeriodic := p.Periodic && p.Symmetry[p.Axis] == 0

	coords, err := g.makeCoordsInitial(p, isPeriodic, diag)
	if err != nil {
		return nil, err
	}

	if p.Symmetry[p.Axis] != 0 && len(coords) > 0 {
		center := p.Structures[0].structureGeometry().Center()[p.Axis]
		// shift the boundary closest to the symmetry center onto it, keep
		// the upper half and mirror it
		ci := 0
		best := math.Inf(1)
		for i, c := range coords {
			if d := math.Abs(center - c); d < best {
				best = d
				ci = i
			}
		}
		shift := center - coords[ci]
		kept := coords[:0:0]
		for _, c := range coords {
			c += shift
			if c >= center {
				kept = append(kept, c)
			}
		}
		folded := make(Coords1D, 0, 2*len(kept)-1)
		for i := len(kept) - 1; i >= 1; i-- {
			folded = append(folded, 2*center-kept[i])
		}
		coords = append(folded, kept...)
	}

	return addPMLToBounds(p.NumPMLLayers, coords), nil
}

// addPMLToBounds prepends and appends absorber layers by repeating the edge
// cell sizes.
func addPMLToBounds(numLayers [2]int, bounds Coords1D) Coords1D {
	if len(bounds) < 2 {
		return bounds
	}
	firstStep := bounds[1] - bounds[0]
	lastStep := bounds[len(bounds)-1] - bounds[len(bounds)-2]

	out := make(Coords1D, 0, numLayers[0]+len(bounds)+numLayers[1])
	for i := numLayers[0]; i > 0; i-- {
		out = append(out, bounds[0]-float64(i)*firstStep)
	}
	out = append(out, bounds...)
	for i := 1; i <= numLayers[1]; i++ {
		out = append(out, bounds[len(bounds)-1]+float64(i)*lastStep)
	}
	return out
}

// closeTo is the numpy-style approximate comparison used when checking grid
// alignment.
func closeTo(a, b float64) bool {
	const (
		rtol = 1e-5
		atol = 1e-8
	)
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

// postprocessUnalignedGrid trims and extends externally supplied boundaries
// so that they cover the simulation domain. The buffer of one float32 ulp
// around the domain bounds absorbs numerical noise in the supplied
// coordinates.
func postprocessUnalignedGrid(axis int, domain Geometry, machineErrorRelaxation bool, coords Coords1D) (Coords1D, error) {
	center := domain.Center()[axis]
	size := domain.Size()[axis]
	boundMin := float64(math.Nextafter32(float32(center-size/2), float32(math.Inf(-1))))
	boundMax := float64(math.Nextafter32(float32(center+size/2), float32(math.Inf(1))))

	if boundMax < coords[0] || boundMin > coords[len(coords)-1] {
		return nil, setupErrorf("simulation domain does not overlap with the provided grid in '%s' direction", axisName(axis))
	}

	if size == 0 {
		// return the pair of boundaries between which the simulation falls
		ind := 0
		for ind < len(coords) && coords[ind] <= center {
			ind++
		}
		if ind >= len(coords) {
			ind = len(coords) - 1
		}
		if ind == 0 {
			ind = 1
		}
		return append(Coords1D(nil), coords[ind-1:ind+1]...), nil
	}

	trimmed := coords[:0:0]
	for _, c := range coords {
		if c >= boundMin && c <= boundMax {
			trimmed = append(trimmed, c)
		}
	}
	if len(trimmed) < 2 {
		return nil, setupErrorf("provided grid has fewer than two boundaries inside the simulation domain in '%s' direction", axisName(axis))
	}

	// if not extending to the simulation bounds, repeat the edge cells
	dlMin := trimmed[1] - trimmed[0]
	dlMax := trimmed[len(trimmed)-1] - trimmed[len(trimmed)-2]
	for trimmed[0]-dlMin >= boundMin {
		trimmed = append(Coords1D{trimmed[0] - dlMin}, trimmed...)
	}
	for trimmed[len(trimmed)-1]+dlMax <= boundMax {
		trimmed = append(trimmed, trimmed[len(trimmed)-1]+dlMax)
	}

	// translated grids may land numerically within the domain bounds yet
	// still get chopped off above
	if machineErrorRelaxation {
		if closeTo(trimmed[0]-dlMin, boundMin) {
			trimmed = append(Coords1D{trimmed[0] - dlMin}, trimmed...)
		}
		if closeTo(trimmed[len(trimmed)-1]+dlMax, boundMax) {
			trimmed = append(trimmed, trimmed[len(trimmed)-1]+dlMax)
		}
	}
	return trimmed, nil
}

func axisName(axis int) string {
	return [3]string{"x", "y", "z"}[axis]
}

// UniformGrid generates a uniform grid along one axis, with the step
// adjusted downward slightly if needed to fit the domain exactly.
type UniformGrid struct {
	// Dl is the grid step size.
	Dl float64
}

func (g UniformGrid) makeCoordsInitial(p CoordsParams, _ bool, _ *Diagnostics) (Coords1D, error) {
	if g.Dl <= 0 {
		return nil, setupErrorf("uniform grid step size must be positive, got %g", g.Dl)
	}
	domain := p.Structures[0].structureGeometry()
	center := domain.Center()[p.Axis]
	size := domain.Size()[p.Axis]

	numCells := int(math.Ceil(size / g.Dl))
	if numCells < 1 {
		numCells = 1
	}
	dlSnapped := g.Dl
	if size > 0 {
		dlSnapped = size / float64(numCells)
	}

	coords := make(Coords1D, numCells+1)
	for i := range coords {
		coords[i] = center - size/2 + float64(i)*dlSnapped
	}
	return coords, nil
}

// EstimatedMinDl implements GridSpec1D; the estimate is the step itself.
func (g UniformGrid) EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64 {
	return g.Dl
}

// CustomGridBoundaries uses externally supplied boundary coordinates
// directly, trimmed and extended to the simulation domain.
type CustomGridBoundaries struct {
	// Coords is a strictly increasing array of boundary coordinates.
	Coords Coords1D
}

func (g CustomGridBoundaries) makeCoordsInitial(p CoordsParams, _ bool, _ *Diagnostics) (Coords1D, error) {
	if len(g.Coords) < 2 {
		return nil, setupErrorf("custom grid boundaries require at least two coordinates")
	}
	return postprocessUnalignedGrid(p.Axis, p.Structures[0].structureGeometry(), false, g.Coords)
}

// EstimatedMinDl implements GridSpec1D.
func (g CustomGridBoundaries) EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64 {
	dl := math.Inf(1)
	for i := 1; i < len(g.Coords); i++ {
		if d := g.Coords[i] - g.Coords[i-1]; d < dl {
			dl = d
		}
	}
	return dl
}

// CustomGrid uses externally supplied cell sizes. The resulting grid is
// centered on the simulation center unless anchored, in which case it starts
// at Offset. If the sizes do not cover the simulation domain, the first and
// last sizes are repeated to cover it.
type CustomGrid struct {
	// Dl holds the custom cell sizes.
	Dl []float64
	// Offset is the starting coordinate of the grid. Only used when
	// Anchored is set.
	Offset float64
	// Anchored places the first boundary at Offset instead of centering the
	// grid on the simulation center.
	Anchored bool
}

func (g CustomGrid) makeCoordsInitial(p CoordsParams, _ bool, _ *Diagnostics) (Coords1D, error) {
	if len(g.Dl) == 0 {
		return nil, setupErrorf("custom grid requires at least one cell size")
	}
	domain := p.Structures[0].structureGeometry()
	center := domain.Center()[p.Axis]

	coords := make(Coords1D, len(g.Dl)+1)
	for i, dl := range g.Dl {
		if dl <= 0 {
			return nil, setupErrorf("custom grid cell sizes must be positive, got %g", dl)
		}
		coords[i+1] = coords[i] + dl
	}

	shift := center - coords[len(coords)-1]/2
	if g.Anchored {
		shift = g.Offset
	}
	for i := range coords {
		coords[i] += shift
	}

	return postprocessUnalignedGrid(p.Axis, domain, g.Anchored, coords)
}

// EstimatedMinDl implements GridSpec1D.
func (g CustomGrid) EstimatedMinDl(wavelength float64, structures []Structure, simSize Coordinate) float64 {
	dl := math.Inf(1)
	for _, d := range g.Dl {
		if d < dl {
			dl = d
		}
	}
	return dl
}
