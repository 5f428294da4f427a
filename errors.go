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

import "fmt"

// SetupError indicates a problem in the user-supplied simulation or grid
// specification, such as a grid that does not overlap the simulation domain
// or automatic meshing requested without a wavelength or sources.
type SetupError struct {
	msg string
}

func (e *SetupError) Error() string { return e.msg }

func setupErrorf(format string, a ...interface{}) error {
	return &SetupError{msg: "emgrid: " + fmt.Sprintf(format, a...)}
}

// InternalError indicates an inconsistency produced by the meshing machinery
// itself rather than by user input. These should not occur; please open an
// issue if one does.
type InternalError struct {
	msg string
}

func (e *InternalError) Error() string { return e.msg }

func internalErrorf(format string, a ...interface{}) error {
	return &InternalError{msg: "emgrid: " + fmt.Sprintf(format, a...)}
}
