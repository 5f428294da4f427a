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

// Command emgrid is a command-line interface for the EMGrid simulation grid
// generator and compute service.
package main

import (
	"fmt"
	"os"

	"github.com/emcompute/emgrid/emgridutil"
)

func main() {
	if err := emgridutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
