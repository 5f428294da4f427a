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

package emgridutil

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/emcompute/emgrid"
)

// gridFile is the on-disk representation of a generated grid.
type gridFile struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

// Grid generates the simulation grid and saves its boundary coordinates to
// outputFile as JSON. The saved grid can be inspected or fed back into a
// later simulation.
func Grid(sim *emgrid.Simulation, outputFile string) error {
	log.Println("Generating grid")

	var diag emgrid.Diagnostics
	grid, err := sim.Grid(&diag)
	if err != nil {
		return err
	}
	for _, w := range diag.Warnings() {
		log.Println("WARNING:", w)
	}
	for _, msg := range diag.Internal() {
		log.Println("INTERNAL:", msg)
	}
	n := grid.NumCells()
	log.Printf("Grid size: %d x %d x %d cells", n[0], n[1], n[2])

	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("emgrid: problem creating output file: %v", err)
	}
	defer w.Close()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(gridFile{
		X: grid.Boundaries.X,
		Y: grid.Boundaries.Y,
		Z: grid.Boundaries.Z,
	})
}
