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

// Source is a time-harmonic excitation. Only the central frequency matters
// for grid generation; the full source description lives server side.
type Source struct {
	Name string
	// Freq0 is the central frequency in Hz.
	Freq0 float64
}

// Wavelength returns the free-space wavelength of the source in micrometers.
func (s Source) Wavelength() float64 { return C0 / s.Freq0 }

// Simulation is the declarative description of an electromagnetic
// simulation, as far as grid generation is concerned: the domain box, the
// background medium, the structures and sources it contains, its boundary
// treatment and the grid specification.
//
// Simulation is a value type; derived simulations are made by copying and
// overriding fields.
type Simulation struct {
	// Center and Size define the simulation domain box.
	Center Coordinate
	Size   Coordinate

	// Medium is the background material filling the domain.
	Medium Medium

	// Structures are the physical objects in the simulation, in order of
	// increasing precedence.
	Structures []Structure

	// Sources present in the simulation.
	Sources []Source

	// Symmetry holds the reflection symmetry (-1, 0 or 1) across a plane
	// bisecting the domain normal to each axis.
	Symmetry [3]int

	// Periodic marks axes with periodic boundaries.
	Periodic [3]bool

	// NumPMLLayers is the number of absorber layers beyond the minus and
	// plus domain boundaries along each axis.
	NumPMLLayers [3][2]int

	// GridSpec selects how the simulation grid is generated. The zero
	// value meshes all three axes with the default AutoGrid.
	GridSpec GridSpec
}

// Domain returns the simulation domain box.
func (s *Simulation) Domain() Box { return NewBox(s.Center, s.Size) }

// GridStructures returns the domain-first structure list used for grid
// generation.
func (s *Simulation) GridStructures() []Structure {
	structures := make([]Structure, 0, len(s.Structures)+1)
	structures = append(structures, Structure{Geometry: s.Domain(), Medium: s.Medium})
	return append(structures, s.Structures...)
}

// Grid generates the simulation grid. Diagnostics may be nil.
func (s *Simulation) Grid(diag *Diagnostics) (*Grid, error) {
	return s.GridSpec.MakeGrid(GridParams{
		Structures:   s.GridStructures(),
		Symmetry:     s.Symmetry,
		Periodic:     s.Periodic,
		Sources:      s.Sources,
		NumPMLLayers: s.NumPMLLayers,
	}, diag)
}
