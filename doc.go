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

// Package emgrid generates the non-uniform simulation grids used by the
// EMGrid electromagnetic solver platform. A simulation is described
// declaratively as a domain box plus an ordered list of structures, and the
// grid specification (GridSpec) turns that description into three 1D arrays
// of grid-cell boundary coordinates, one per axis. The actual time-stepping
// solver runs remotely (see the cloud subpackage); this package is
// exclusively concerned with producing a consistent discretization that
// resolves structure boundaries, honors a minimum number of steps per
// wavelength, bounds the growth ratio between neighboring cells, snaps to
// requested coordinates, and folds reflection symmetries.
//
// All specification types in this package are immutable value types: grid
// generation never modifies its inputs, so a single GridSpec may be used
// concurrently from multiple goroutines.
//
// Lengths are in micrometers and frequencies in Hz throughout.
package emgrid

// Version gives the version number.
const Version = "0.1.0"

// Physical and meshing constants.
const (
	// C0 is the speed of light in vacuum in micrometers per second.
	C0 = 2.99792458e14

	// minStepBoundScale scales the internally derived lower bound of the
	// grid size computed from the estimated minimal step of the
	// specification. The estimate is approximate, so the bound is kept
	// deliberately loose.
	minStepBoundScale = 0.5

	// defaultRefinementFactor applies in GridRefinement when neither an
	// explicit step size nor a refinement factor is given.
	defaultRefinementFactor = 2

	// fpEps is the relative tolerance used when deciding whether two
	// coordinates are numerically the same boundary.
	fpEps = 1e-10
)
