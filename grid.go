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

// Coords1D is a strictly increasing array of grid-cell boundary coordinates
// along one axis.
type Coords1D []float64

// Coords holds boundary coordinates along all three axes.
type Coords struct {
	X Coords1D
	Y Coords1D
	Z Coords1D
}

// Axis returns the coordinates along the given axis (0, 1, 2) -> (x, y, z).
func (c Coords) Axis(axis int) Coords1D {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// Grid is the full three-dimensional discretization of a simulation: the
// tensor product of three 1D boundary arrays.
type Grid struct {
	Boundaries Coords
}

// NumCells returns the number of grid cells along each axis.
func (g *Grid) NumCells() [3]int {
	var n [3]int
	for d := 0; d < 3; d++ {
		n[d] = len(g.Boundaries.Axis(d)) - 1
		if n[d] < 0 {
			n[d] = 0
		}
	}
	return n
}

// Centers returns the cell-center coordinates along each axis.
func (g *Grid) Centers() Coords {
	return Coords{
		X: centers(g.Boundaries.X),
		Y: centers(g.Boundaries.Y),
		Z: centers(g.Boundaries.Z),
	}
}

// Sizes returns the cell sizes along each axis.
func (g *Grid) Sizes() Coords {
	return Coords{
		X: diffs(g.Boundaries.X),
		Y: diffs(g.Boundaries.Y),
		Z: diffs(g.Boundaries.Z),
	}
}

func centers(bounds Coords1D) Coords1D {
	if len(bounds) < 2 {
		return nil
	}
	c := make(Coords1D, len(bounds)-1)
	for i := range c {
		c[i] = (bounds[i] + bounds[i+1]) / 2
	}
	return c
}

func diffs(bounds Coords1D) Coords1D {
	if len(bounds) < 2 {
		return nil
	}
	d := make(Coords1D, len(bounds)-1)
	for i := range d {
		d[i] = bounds[i+1] - bounds[i]
	}
	return d
}
