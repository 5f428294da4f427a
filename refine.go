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

// GridRefinement describes local mesh refinement: the step size in the
// refined region and the number of refined cells.
//
// If both RefinementFactor and Dl are set, the step is bounded by the
// smaller of the two; if neither is set, the default refinement factor of 2
// applies.
type GridRefinement struct {
	// RefinementFactor divides the vacuum step size.
	RefinementFactor float64
	// Dl is an explicit step size in the refined region.
	Dl float64
	// NumCells is the number of refined grid cells; zero selects 3.
	NumCells int
}

func (r GridRefinement) refinementFactor() float64 {
	if r.RefinementFactor == 0 && r.Dl == 0 {
		return defaultRefinementFactor
	}
	return r.RefinementFactor
}

func (r GridRefinement) numCells() int {
	if r.NumCells == 0 {
		return 3
	}
	return r.NumCells
}

// GridSize returns the step size in the refined region given the step size
// in vacuum.
func (r GridRefinement) GridSize(gridSizeInVacuum float64) float64 {
	dl := math.Inf(1)
	if f := r.refinementFactor(); f > 0 {
		dl = math.Min(dl, gridSizeInVacuum/f)
	}
	if r.Dl > 0 {
		dl = math.Min(dl, r.Dl)
	}
	return dl
}

// OverrideStructure builds the non-shadowing override structure realizing
// this refinement around center. A NaN component of center leaves that axis
// unrefined: the override geometry is unbounded and unconstrained along it.
func (r GridRefinement) OverrideStructure(center CoordinateOptional, gridSizeInVacuum float64, dropOutsideSim bool) MeshOverrideStructure {
	dl := r.GridSize(gridSizeInVacuum)
	var dlList, centerGeo, sizeGeo [3]float64
	for d := 0; d < 3; d++ {
		if math.IsNaN(center[d]) {
			dlList[d] = math.NaN()
			centerGeo[d] = 0
			sizeGeo[d] = math.Inf(1)
			continue
		}
		dlList[d] = dl
		centerGeo[d] = center[d]
		sizeGeo[d] = dl * float64(r.numCells())
	}
	return MeshOverrideStructure{
		Geometry:       NewBox(centerGeo, sizeGeo),
		Dl:             dlList,
		NoShadow:       true,
		KeepOutsideSim: !dropOutsideSim,
	}
}

// SnapLocation selects where LayerRefinementSpec places snapping points
// along the layer axis.
type SnapLocation string

const (
	// SnapLower snaps to the lower layer bound. This is the default.
	SnapLower SnapLocation = "lower"
	// SnapUpper snaps to the upper layer bound.
	SnapUpper SnapLocation = "upper"
	// SnapCenter snaps to the layer center.
	SnapCenter SnapLocation = "center"
	// SnapBounds snaps to both layer bounds.
	SnapBounds SnapLocation = "bounds"
	// SnapNone disables bounds snapping.
	SnapNone SnapLocation = "none"
)

// LayerRefinementSpec automatically refines and snaps the grid in a layered
// structure: corners found on the cross section perpendicular to the layer
// axis get snapping points and local refinement, and the layer bounds along
// the axis can be snapped and refined as well.
//
// Corner detection is performed on the plane sitting in the middle of the
// layer; the material distribution is assumed uniform through the layer
// thickness. The specification only takes effect along axes meshed with
// AutoGrid.
//
// Use NewLayerRefinementSpec or one of the Layer* constructors, which apply
// the standard defaults (lower-bound snapping, corner snapping and corner
// refinement enabled, refinement restricted to the simulation interior).
type LayerRefinementSpec struct {
	// Layer is the extent of the layer. Size must be finite along Axis.
	Layer Box
	// Axis is the layer thickness direction.
	Axis int
	// MinStepsAlongAxis, when nonzero and the layer has nonzero thickness,
	// sets the minimal number of steps discretizing the thickness.
	MinStepsAlongAxis float64
	// BoundsRefinement refines the mesh around the layer bounds along Axis.
	// When MinStepsAlongAxis also applies, it only takes effect if it sets
	// a smaller step.
	BoundsRefinement *GridRefinement
	// BoundsSnapping places snapping points along Axis; empty defaults to
	// SnapLower.
	BoundsSnapping SnapLocation
	// CornerFinder configures in-plane corner detection; nil disables it.
	CornerFinder *CornerFinderSpec
	// CornerSnapping places snapping points at detected corners.
	CornerSnapping bool
	// CornerRefinement refines the mesh around detected corners; nil
	// disables it.
	CornerRefinement *GridRefinement
	// RefinementInsideSimOnly drops refinement features outside the
	// simulation domain. When false, outside features still take effect
	// along the axes where their projection overlaps the domain.
	RefinementInsideSimOnly bool
}

// NewLayerRefinementSpec builds a layer refinement specification with the
// standard defaults. The size must be finite along axis.
func NewLayerRefinementSpec(axis int, center, size Coordinate) (LayerRefinementSpec, error) {
	if math.IsInf(size[axis], 0) {
		return LayerRefinementSpec{}, setupErrorf("layer size must take finite values along the layer axis")
	}
	return LayerRefinementSpec{
		Layer:                   NewBox(center, size),
		Axis:                    axis,
		BoundsSnapping:          SnapLower,
		CornerFinder:            &CornerFinderSpec{},
		CornerSnapping:          true,
		CornerRefinement:        &GridRefinement{},
		RefinementInsideSimOnly: true,
	}, nil
}

// LayerFromBounds builds a layer refinement specification that is unbounded
// in the in-plane directions from the layer bounds along the axis.
func LayerFromBounds(axis int, bounds [2]float64) (LayerRefinementSpec, error) {
	inf := math.Inf(1)
	center := unpopAxis((bounds[0]+bounds[1])/2, [2]float64{0, 0}, axis)
	size := unpopAxis(bounds[1]-bounds[0], [2]float64{inf, inf}, axis)
	return NewLayerRefinementSpec(axis, center, size)
}

// LayerFromCorners builds a layer refinement specification from min and max
// coordinate bounds. Pass axis -1 to pick the thinnest dimension.
func LayerFromCorners(rmin, rmax Coordinate, axis int) (LayerRefinementSpec, error) {
	box := BoxFromBounds(rmin, rmax)
	if axis < 0 {
		axis = thinnestAxis(box.Size())
	}
	spec, err := NewLayerRefinementSpec(axis, box.Center(), box.Size())
	if err != nil {
		return spec, err
	}
	// keep the corners exactly; one-sided infinite bounds survive this way
	spec.Layer = box
	return spec, nil
}

// LayerFromStructures builds a layer refinement specification from the
// overall bounding box of the structures. Pass axis -1 to pick the thinnest
// dimension.
func LayerFromStructures(structures []Structure, axis int) (LayerRefinementSpec, error) {
	if len(structures) == 0 {
		return LayerRefinementSpec{}, setupErrorf("layer refinement from structures requires at least one structure")
	}
	rmin := Coordinate{math.Inf(1), math.Inf(1), math.Inf(1)}
	rmax := Coordinate{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, s := range structures {
		smin, smax := s.Geometry.Bounds()
		for d := 0; d < 3; d++ {
			rmin[d] = math.Min(rmin[d], smin[d])
			rmax[d] = math.Max(rmax[d], smax[d])
		}
	}
	return LayerFromCorners(rmin, rmax, axis)
}

func thinnestAxis(size Coordinate) int {
	axis := 0
	for d := 1; d < 3; d++ {
		if size[d] < size[axis] {
			axis = d
		}
	}
	return axis
}

// lengthAxis is the thickness of the layer.
func (l LayerRefinementSpec) lengthAxis() float64 { return l.Layer.Size()[l.Axis] }

// centerAxis is the center position of the layer along the layer axis.
func (l LayerRefinementSpec) centerAxis() float64 { return l.Layer.Center()[l.Axis] }

func (l LayerRefinementSpec) boundsSnapping() SnapLocation {
	if l.BoundsSnapping == "" {
		return SnapLower
	}
	return l.BoundsSnapping
}

func (l LayerRefinementSpec) isInplaneUnbounded() bool {
	a0, a1 := planeAxes(l.Axis)
	size := l.Layer.Size()
	return math.IsInf(size[a0], 1) && math.IsInf(size[a1], 1)
}

// axisPoint builds a snapping point constrained only along the layer axis.
func (l LayerRefinementSpec) axisPoint(axCoord float64) CoordinateOptional {
	nan := math.NaN()
	return CoordinateOptional(unpopAxis(axCoord, [2]float64{nan, nan}, l.Axis))
}

// SuggestedDlMin returns a lower bound of the step size small enough to
// resolve the snapping points and refinement regions of this layer.
func (l LayerRefinementSpec) SuggestedDlMin(gridSizeInVacuum float64) float64 {
	dlMin := math.Inf(1)

	if l.lengthAxis() > 0 {
		if l.boundsSnapping() == SnapBounds {
			dlMin = math.Min(dlMin, l.lengthAxis())
		}
		if l.MinStepsAlongAxis > 0 {
			dlMin = math.Min(dlMin, l.lengthAxis()/l.MinStepsAlongAxis)
		}
		if l.BoundsRefinement != nil {
			dlMin = math.Min(dlMin, l.BoundsRefinement.GridSize(gridSizeInVacuum))
		}
	}

	if l.CornerFinder != nil && l.CornerRefinement != nil {
		dlMin = math.Min(dlMin, l.CornerRefinement.GridSize(gridSizeInVacuum))
	}
	return dlMin
}

// GenerateSnappingPoints returns the snapping points this layer adds: the
// configured bounds positions along the axis plus any detected corners.
func (l LayerRefinementSpec) GenerateSnappingPoints(structures []Structure) []CoordinateOptional {
	points := l.snappingPointsAlongAxis()
	if l.CornerSnapping {
		points = append(points, l.corners(structures)...)
	}
	return points
}

// GenerateOverrideStructures returns the mesh override structures this layer
// adds, both along the axis and around in-plane corners.
func (l LayerRefinementSpec) GenerateOverrideStructures(gridSizeInVacuum float64, structures []Structure) []MeshOverrideStructure {
	overrides := l.overrideStructuresAlongAxis(gridSizeInVacuum)
	if l.CornerRefinement != nil {
		for _, corner := range l.corners(structures) {
			overrides = append(overrides, l.CornerRefinement.OverrideStructure(corner, gridSizeInVacuum, l.RefinementInsideSimOnly))
		}
	}
	return overrides
}

// corners returns the detected in-plane corners as 3D snapping points that
// are unconstrained along the layer axis.
func (l LayerRefinementSpec) corners(structures []Structure) []CoordinateOptional {
	if l.CornerFinder == nil {
		return nil
	}
	points := l.CornerFinder.Corners(l.Axis, l.centerAxis(), structures)
	var out []CoordinateOptional
	for _, p := range points {
		if !l.isInplaneUnbounded() && !l.inplaneInside(p.X, p.Y) {
			continue
		}
		nan := math.NaN()
		out = append(out, CoordinateOptional(unpopAxis(nan, [2]float64{p.X, p.Y}, l.Axis)))
	}
	return out
}

// inplaneInside reports whether an in-plane point lies inside the layer
// footprint.
func (l LayerRefinementSpec) inplaneInside(x, y float64) bool {
	p := unpopAxis(l.centerAxis(), [2]float64{x, y}, l.Axis)
	return l.Layer.Inside(p)
}

func (l LayerRefinementSpec) snappingPointsAlongAxis() []CoordinateOptional {
	rmin, rmax := l.Layer.Bounds()
	switch l.boundsSnapping() {
	case SnapNone:
		return nil
	case SnapCenter:
		return []CoordinateOptional{l.axisPoint(l.centerAxis())}
	case SnapUpper:
		return []CoordinateOptional{l.axisPoint(rmax[l.Axis])}
	case SnapBounds:
		points := []CoordinateOptional{l.axisPoint(rmin[l.Axis])}
		if l.lengthAxis() > 0 {
			points = append(points, l.axisPoint(rmax[l.Axis]))
		}
		return points
	}
	return []CoordinateOptional{l.axisPoint(rmin[l.Axis])}
}

// overrideStructuresAlongAxis refines the mesh through the layer thickness:
// a minimum step count across the layer, plus optional refinement regions at
// the layer bounds.
func (l LayerRefinementSpec) overrideStructuresAlongAxis(gridSizeInVacuum float64) []MeshOverrideStructure {
	var overrides []MeshOverrideStructure
	inf := math.Inf(1)
	nan := math.NaN()

	dl := math.Inf(1)
	if l.MinStepsAlongAxis > 0 && l.lengthAxis() > 0 {
		dl = l.lengthAxis() / l.MinStepsAlongAxis
		overrides = append(overrides, MeshOverrideStructure{
			Geometry: NewBox(
				unpopAxis(l.centerAxis(), [2]float64{0, 0}, l.Axis),
				unpopAxis(l.lengthAxis(), [2]float64{inf, inf}, l.Axis),
			),
			Dl:             unpopAxis(dl, [2]float64{nan, nan}, l.Axis),
			NoShadow:       true,
			KeepOutsideSim: !l.RefinementInsideSimOnly,
		})
	}

	if l.BoundsRefinement == nil {
		return overrides
	}
	rmin, rmax := l.Layer.Bounds()
	refined := []MeshOverrideStructure{
		l.BoundsRefinement.OverrideStructure(l.axisPoint(rmin[l.Axis]), gridSizeInVacuum, l.RefinementInsideSimOnly),
	}
	if l.lengthAxis() > 0 {
		refined = append(refined, l.BoundsRefinement.OverrideStructure(l.axisPoint(rmax[l.Axis]), gridSizeInVacuum, l.RefinementInsideSimOnly))
	}
	// merge the two bound regions when they overlap
	if len(refined) == 2 && refined[0].Geometry.Intersects(refined[1].Geometry) {
		min0, max0 := refined[0].Geometry.Bounds()
		min1, max1 := refined[1].Geometry.Bounds()
		var rlo, rhi Coordinate
		for d := 0; d < 3; d++ {
			rlo[d] = math.Min(min0[d], min1[d])
			rhi[d] = math.Max(max0[d], max1[d])
		}
		refined = []MeshOverrideStructure{{
			Geometry:       BoxFromBounds(rlo, rhi),
			Dl:             refined[0].Dl,
			NoShadow:       true,
			KeepOutsideSim: !l.RefinementInsideSimOnly,
		}}
	}
	// only applied if it sets a smaller step than the minimum-step-count
	// override
	if refined[0].Dl[l.Axis] <= dl {
		overrides = append(overrides, refined...)
	}
	return overrides
}
