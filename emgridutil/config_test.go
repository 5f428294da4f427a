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
	"testing"

	"github.com/spf13/viper"

	"github.com/emcompute/emgrid"
)

func testConfig() *viper.Viper {
	cfg := viper.New()
	cfg.Set("Simulation.Center", []float64{0, 0, 0})
	cfg.Set("Simulation.Size", []float64{2, 2, 2})
	cfg.Set("Simulation.Symmetry", []int{0, 0, 0})
	cfg.Set("Simulation.NumPMLLayers", []int{0, 0, 1})
	cfg.Set("Simulation.BackgroundPermittivity", 1.0)
	cfg.Set("Grid.Type", "auto")
	cfg.Set("Grid.Wavelength", 1.0)
	cfg.Set("Structures", []map[string]interface{}{{
		"name":         "resonator",
		"center":       []float64{0, 0, 0},
		"size":         []float64{0.5, 0.5, 0.5},
		"permittivity": 4.0,
	}})
	cfg.Set("Sources", []map[string]interface{}{{
		"name":  "dipole",
		"freq0": emgrid.C0 / 1.0,
	}})
	return cfg
}

func TestSimulationConfig(t *testing.T) {
	sim, err := SimulationConfig(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sim.Size != (emgrid.Coordinate{2, 2, 2}) {
		t.Errorf("size = %v, want [2 2 2]", sim.Size)
	}
	if len(sim.Structures) != 1 || sim.Structures[0].Medium.Permittivity != 4 {
		t.Errorf("structures = %v, want one with permittivity 4", sim.Structures)
	}
	if len(sim.Sources) != 1 || sim.Sources[0].Name != "dipole" {
		t.Errorf("sources = %v, want one named dipole", sim.Sources)
	}
	if sim.NumPMLLayers != [3][2]int{{0, 0}, {0, 0}, {1, 1}} {
		t.Errorf("pml layers = %v", sim.NumPMLLayers)
	}
	if sim.GridSpec.Wavelength != 1 {
		t.Errorf("wavelength = %g, want 1", sim.GridSpec.Wavelength)
	}
	if !sim.GridSpec.AutoGridUsed() {
		t.Error("grid type auto must select AutoGrid")
	}

	// the configured simulation actually meshes
	grid, err := sim.Grid(nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := grid.NumCells(); n[0] < 20 {
		t.Errorf("cells = %v, want at least 20 along x", n)
	}
}

func TestSimulationConfigGridTypes(t *testing.T) {
	cfg := testConfig()
	cfg.Set("Grid.Type", "uniform")
	cfg.Set("Grid.Dl", 0.25)
	sim, err := SimulationConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sim.GridSpec.AutoGridUsed() || sim.GridSpec.SnappedGridUsed() {
		t.Error("grid type uniform must not select an automatic strategy")
	}

	cfg.Set("Grid.Type", "quasiuniform")
	sim, err = SimulationConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.GridSpec.SnappedGridUsed() {
		t.Error("grid type quasiuniform must select QuasiUniformGrid")
	}

	cfg.Set("Grid.Type", "nonsense")
	if _, err := SimulationConfig(cfg); err == nil {
		t.Error("expected an error for an unknown grid type")
	}
}

func TestToCoordinateE(t *testing.T) {
	c, err := toCoordinateE([]interface{}{1, 2.5, "3"})
	if err != nil {
		t.Fatal(err)
	}
	if c != (emgrid.Coordinate{1, 2.5, 3}) {
		t.Errorf("coordinate = %v, want [1 2.5 3]", c)
	}
	if _, err := toCoordinateE([]float64{1, 2}); err == nil {
		t.Error("expected an error for a 2-element coordinate")
	}
}
