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
	"os"
	"path/filepath"
	"testing"

	"github.com/emcompute/emgrid"
)

func TestGrid(t *testing.T) {
	sim := &emgrid.Simulation{
		Size:     emgrid.Coordinate{1, 1, 1},
		GridSpec: emgrid.UniformSpec(0.25),
	}
	outputFile := filepath.Join(t.TempDir(), "grid.json")
	if err := Grid(sim, outputFile); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	var saved gridFile
	if err := json.Unmarshal(b, &saved); err != nil {
		t.Fatal(err)
	}
	for _, bounds := range [][]float64{saved.X, saved.Y, saved.Z} {
		if len(bounds) != 5 {
			t.Errorf("saved grid has %d boundaries, want 5", len(bounds))
		}
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected an error for an empty output file")
	}
	if _, err := checkOutputFile(filepath.Join(t.TempDir(), "out.json")); err != nil {
		t.Errorf("unexpected error for a valid output path: %v", err)
	}
	if _, err := checkOutputFile("/no/such/directory/out.json"); err == nil {
		t.Error("expected an error for a missing output directory")
	}
}
