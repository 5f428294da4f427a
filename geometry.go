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

	"github.com/ctessum/geom"
)

// Coordinate is a point or extent in 3D simulation space, in micrometers.
type Coordinate [3]float64

// CoordinateOptional is a 3D coordinate in which any component may be left
// unconstrained by setting it to NaN. Snapping points use this to constrain
// only some axes.
type CoordinateOptional [3]float64

// OptionalUnset is the unconstrained component value for CoordinateOptional
// and for the per-axis step sizes of MeshOverrideStructure.
func OptionalUnset() float64 { return math.NaN() }

// SnapPoint builds a CoordinateOptional from per-axis values; pass NaN
// (OptionalUnset) for axes that should stay unconstrained.
func SnapPoint(x, y, z float64) CoordinateOptional {
	return CoordinateOptional{x, y, z}
}

// planeAxes returns the two in-plane axes for a given normal axis, in
// ascending order.
func planeAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

// unpopAxis assembles a 3D coordinate from a value along axis and two values
// on the perpendicular plane (given in ascending axis order).
func unpopAxis(axCoord float64, planeCoords [2]float64, axis int) [3]float64 {
	var out [3]float64
	a0, a1 := planeAxes(axis)
	out[axis] = axCoord
	out[a0] = planeCoords[0]
	out[a1] = planeCoords[1]
	return out
}

// Geometry is the shape of a structure. Implementations are immutable value
// types.
type Geometry interface {
	// Bounds returns the axis-aligned bounding box corners (min, max).
	// Components may be infinite.
	Bounds() (Coordinate, Coordinate)
	// Center returns the bounding-box center.
	Center() Coordinate
	// Size returns the bounding-box extent along each axis.
	Size() Coordinate
	// Intersects reports whether the bounding boxes of the two geometries
	// overlap. Touching counts as overlapping.
	Intersects(other Geometry) bool
	// CrossSection returns the 2D polygons obtained by slicing the geometry
	// with the plane normal to axis at the given position, or nil if the
	// plane misses the geometry or the section is unbounded. Polygon X and Y
	// map to the two remaining axes in ascending order.
	CrossSection(axis int, position float64) []geom.Polygon
}

// Box is an axis-aligned rectangular prism stored by its corner bounds.
// Bounds may be infinite, including on one side only.
type Box struct {
	rmin Coordinate
	rmax Coordinate
}

// NewBox constructs a Box from its center and size. An infinite size makes
// the box unbounded on both sides of that axis.
func NewBox(center, size Coordinate) Box {
	var rmin, rmax Coordinate
	for d := 0; d < 3; d++ {
		if math.IsInf(size[d], 1) {
			rmin[d] = math.Inf(-1)
			rmax[d] = math.Inf(1)
			continue
		}
		rmin[d] = center[d] - size[d]/2
		rmax[d] = center[d] + size[d]/2
	}
	return Box{rmin: rmin, rmax: rmax}
}

// BoxFromBounds constructs a Box from its min and max corners. One-sided
// infinite bounds are preserved.
func BoxFromBounds(rmin, rmax Coordinate) Box {
	return Box{rmin: rmin, rmax: rmax}
}

// Bounds returns the min and max corners of b.
func (b Box) Bounds() (Coordinate, Coordinate) { return b.rmin, b.rmax }

// Center returns the bounding-box center of b. An axis unbounded on both
// sides reports 0; an axis unbounded on one side reports that infinity.
func (b Box) Center() Coordinate {
	var c Coordinate
	for d := 0; d < 3; d++ {
		if math.IsInf(b.rmin[d], -1) && math.IsInf(b.rmax[d], 1) {
			c[d] = 0
			continue
		}
		c[d] = (b.rmin[d] + b.rmax[d]) / 2
	}
	return c
}

// Size returns the extent of b along each axis.
func (b Box) Size() Coordinate {
	var s Coordinate
	for d := 0; d < 3; d++ {
		s[d] = b.rmax[d] - b.rmin[d]
	}
	return s
}

// Intersects reports whether the bounding boxes of b and other overlap.
func (b Box) Intersects(other Geometry) bool {
	return boundsOverlap(b, other)
}

// Inside reports whether the point lies inside or on the surface of b.
func (b Box) Inside(p Coordinate) bool {
	rmin, rmax := b.Bounds()
	for d := 0; d < 3; d++ {
		if p[d] < rmin[d] || p[d] > rmax[d] {
			return false
		}
	}
	return true
}

// CrossSection returns the rectangle obtained by slicing b normal to axis,
// or nil if the plane misses the box or the in-plane extent is unbounded.
func (b Box) CrossSection(axis int, position float64) []geom.Polygon {
	rmin, rmax := b.Bounds()
	if position < rmin[axis] || position > rmax[axis] {
		return nil
	}
	a0, a1 := planeAxes(axis)
	if math.IsInf(rmin[a0], -1) || math.IsInf(rmax[a0], 1) ||
		math.IsInf(rmin[a1], -1) || math.IsInf(rmax[a1], 1) {
		return nil
	}
	ring := []geom.Point{
		{X: rmin[a0], Y: rmin[a1]},
		{X: rmax[a0], Y: rmin[a1]},
		{X: rmax[a0], Y: rmax[a1]},
		{X: rmin[a0], Y: rmax[a1]},
	}
	return []geom.Polygon{{ring}}
}

// Prism is a polygonal slab: a 2D polygon extruded along one axis between
// two positions. The polygon X and Y coordinates map to the two non-slab
// axes in ascending order.
type Prism struct {
	polygon geom.Polygon
	axis    int
	slabMin float64
	slabMax float64
}

// NewPrism constructs a Prism from an in-plane polygon, the extrusion axis
// and the slab bounds along that axis.
func NewPrism(polygon geom.Polygon, axis int, slabBounds [2]float64) Prism {
	return Prism{polygon: polygon, axis: axis, slabMin: slabBounds[0], slabMax: slabBounds[1]}
}

// Bounds returns the min and max corners of the prism's bounding box.
func (p Prism) Bounds() (Coordinate, Coordinate) {
	pb := p.polygon.Bounds()
	rmin := unpopAxis(p.slabMin, [2]float64{pb.Min.X, pb.Min.Y}, p.axis)
	rmax := unpopAxis(p.slabMax, [2]float64{pb.Max.X, pb.Max.Y}, p.axis)
	return rmin, rmax
}

// Center returns the bounding-box center of p.
func (p Prism) Center() Coordinate {
	rmin, rmax := p.Bounds()
	var c Coordinate
	for d := 0; d < 3; d++ {
		c[d] = (rmin[d] + rmax[d]) / 2
	}
	return c
}

// Size returns the bounding-box extent of p along each axis.
func (p Prism) Size() Coordinate {
	rmin, rmax := p.Bounds()
	var s Coordinate
	for d := 0; d < 3; d++ {
		s[d] = rmax[d] - rmin[d]
	}
	return s
}

// Intersects reports whether the bounding boxes of p and other overlap.
func (p Prism) Intersects(other Geometry) bool {
	return boundsOverlap(p, other)
}

// CrossSection returns the prism polygon when sliced normal to the slab
// axis within the slab, the bounding-box rectangle when sliced normal to an
// in-plane axis, and nil when the plane misses the prism.
func (p Prism) CrossSection(axis int, position float64) []geom.Polygon {
	if axis == p.axis {
		if position < p.slabMin || position > p.slabMax {
			return nil
		}
		return []geom.Polygon{p.polygon}
	}
	rmin, rmax := p.Bounds()
	if position < rmin[axis] || position > rmax[axis] {
		return nil
	}
	return BoxFromBounds(rmin, rmax).CrossSection(axis, position)
}

func boundsOverlap(a, b Geometry) bool {
	amin, amax := a.Bounds()
	bmin, bmax := b.Bounds()
	for d := 0; d < 3; d++ {
		if amin[d] > bmax[d] || bmin[d] > amax[d] {
			return false
		}
	}
	return true
}

// Medium is a non-dispersive material described by its relative permittivity
// and electric conductivity.
type Medium struct {
	Name         string
	Permittivity float64
	Conductivity float64
}

// IndexOfRefraction returns the refractive index used for wavelength-based
// step sizing. A zero-valued Medium behaves as vacuum, and indices below one
// are clipped to one so that the grid never becomes coarser than in vacuum.
func (m Medium) IndexOfRefraction() float64 {
	eps := m.Permittivity
	if eps < 1 {
		eps = 1
	}
	return math.Sqrt(eps)
}

// GridStructure is either a physical Structure or a MeshOverrideStructure.
// The two are the only implementations.
type GridStructure interface {
	structureGeometry() Geometry
}

// Structure is a physical object in the simulation: a geometry filled with a
// medium. Structures listed later take precedence where they overlap.
type Structure struct {
	Geometry Geometry
	Medium   Medium
}

func (s Structure) structureGeometry() Geometry { return s.Geometry }

// MeshOverrideStructure prescribes grid step sizes inside a region without
// adding any material. Dl holds the maximum step per axis; a NaN component
// (OptionalUnset) leaves that axis unaffected.
//
// The zero values of NoShadow and KeepOutsideSim give the standard behavior:
// the override shadows earlier entries where it overlaps them, and it is
// dropped entirely when it lies outside the simulation domain.
type MeshOverrideStructure struct {
	Geometry Geometry
	Dl       [3]float64

	// NoShadow makes the override non-invasive: instead of replacing the
	// step prescribed by earlier structures it only tightens it, taking the
	// smaller of the two.
	NoShadow bool

	// KeepOutsideSim keeps the override active along an axis whenever its
	// projection onto that axis overlaps the domain, even if the full 3D
	// region lies outside the simulation.
	KeepOutsideSim bool
}

func (s MeshOverrideStructure) structureGeometry() Geometry { return s.Geometry }

// minDl returns the smallest constrained step of the override, or +Inf when
// every axis is unconstrained.
func (s MeshOverrideStructure) minDl() float64 {
	dl := math.Inf(1)
	for _, d := range s.Dl {
		if !math.IsNaN(d) && d < dl {
			dl = d
		}
	}
	return dl
}
