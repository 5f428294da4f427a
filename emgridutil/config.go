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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/emcompute/emgrid"
)

// toCoordinateE converts a configuration value into a 3D coordinate.
func toCoordinateE(v interface{}) (emgrid.Coordinate, error) {
	var c emgrid.Coordinate
	if v == nil {
		return c, nil
	}
	var items []float64
	switch t := v.(type) {
	case []float64:
		items = t
	case []int:
		for _, n := range t {
			items = append(items, float64(n))
		}
	case []interface{}:
		for _, e := range t {
			f, err := cast.ToFloat64E(e)
			if err != nil {
				return c, err
			}
			items = append(items, f)
		}
	default:
		// viper may hand us a comma-separated flag value instead of a list
		for _, p := range strings.Split(strings.Trim(cast.ToString(v), "[]"), ",") {
			f, err := cast.ToFloat64E(strings.TrimSpace(p))
			if err != nil {
				return c, err
			}
			items = append(items, f)
		}
	}
	if len(items) != 3 {
		return c, fmt.Errorf("expected 3 values, got %d", len(items))
	}
	copy(c[:], items)
	return c, nil
}

// toIntTripleE converts a configuration value into three integers.
func toIntTripleE(v interface{}) ([3]int, error) {
	c, err := toCoordinateE(v)
	if err != nil {
		return [3]int{}, err
	}
	return [3]int{int(c[0]), int(c[1]), int(c[2])}, nil
}

// gridSpec1DFromConfig builds one axis of the grid specification.
func gridSpec1DFromConfig(cfg *viper.Viper) (emgrid.GridSpec1D, error) {
	switch typ := cfg.GetString("Grid.Type"); typ {
	case "", "auto":
		return emgrid.AutoGrid{
			MinStepsPerWvl: cfg.GetFloat64("Grid.MinStepsPerWvl"),
			MaxScale:       cfg.GetFloat64("Grid.MaxScale"),
			DlMin:          cfg.GetFloat64("Grid.DlMin"),
		}, nil
	case "uniform":
		return emgrid.UniformGrid{Dl: cfg.GetFloat64("Grid.Dl")}, nil
	case "quasiuniform":
		return emgrid.QuasiUniformGrid{
			Dl:       cfg.GetFloat64("Grid.Dl"),
			MaxScale: cfg.GetFloat64("Grid.MaxScale"),
			DlMin:    cfg.GetFloat64("Grid.DlMin"),
		}, nil
	default:
		return nil, fmt.Errorf("emgrid: unknown Grid.Type %q; expected auto, uniform or quasiuniform", typ)
	}
}

// structuresFromConfig reads the Structures list: each entry is a box with a
// center, a size and a medium.
func structuresFromConfig(cfg *viper.Viper) ([]emgrid.Structure, error) {
	raw := cfg.Get("Structures")
	if raw == nil {
		return nil, nil
	}
	list, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("emgrid: Structures: %v", err)
	}
	var structures []emgrid.Structure
	for i, item := range list {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("emgrid: Structures[%d]: %v", i, err)
		}
		center, err := toCoordinateE(m["center"])
		if err != nil {
			return nil, fmt.Errorf("emgrid: Structures[%d].Center: %v", i, err)
		}
		size, err := toCoordinateE(m["size"])
		if err != nil {
			return nil, fmt.Errorf("emgrid: Structures[%d].Size: %v", i, err)
		}
		structures = append(structures, emgrid.Structure{
			Geometry: emgrid.NewBox(center, size),
			Medium: emgrid.Medium{
				Name:         cast.ToString(m["name"]),
				Permittivity: cast.ToFloat64(m["permittivity"]),
				Conductivity: cast.ToFloat64(m["conductivity"]),
			},
		})
	}
	return structures, nil
}

// sourcesFromConfig reads the Sources list of named central frequencies.
func sourcesFromConfig(cfg *viper.Viper) ([]emgrid.Source, error) {
	raw := cfg.Get("Sources")
	if raw == nil {
		return nil, nil
	}
	list, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("emgrid: Sources: %v", err)
	}
	var sources []emgrid.Source
	for i, item := range list {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("emgrid: Sources[%d]: %v", i, err)
		}
		freq0, err := cast.ToFloat64E(m["freq0"])
		if err != nil {
			return nil, fmt.Errorf("emgrid: Sources[%d].Freq0: %v", i, err)
		}
		sources = append(sources, emgrid.Source{
			Name:  cast.ToString(m["name"]),
			Freq0: freq0,
		})
	}
	return sources, nil
}

// SimulationConfig unmarshals a viper configuration into a simulation.
func SimulationConfig(cfg *viper.Viper) (*emgrid.Simulation, error) {
	center, err := toCoordinateE(cfg.Get("Simulation.Center"))
	if err != nil {
		return nil, fmt.Errorf("emgrid: Simulation.Center: %v", err)
	}
	size, err := toCoordinateE(cfg.Get("Simulation.Size"))
	if err != nil {
		return nil, fmt.Errorf("emgrid: Simulation.Size: %v", err)
	}
	symmetry, err := toIntTripleE(cfg.Get("Simulation.Symmetry"))
	if err != nil {
		return nil, fmt.Errorf("emgrid: Simulation.Symmetry: %v", err)
	}
	pml, err := toIntTripleE(cfg.Get("Simulation.NumPMLLayers"))
	if err != nil {
		return nil, fmt.Errorf("emgrid: Simulation.NumPMLLayers: %v", err)
	}
	structures, err := structuresFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sources, err := sourcesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	grid1d, err := gridSpec1DFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	sim := &emgrid.Simulation{
		Center: center,
		Size:   size,
		Medium: emgrid.Medium{
			Permittivity: cfg.GetFloat64("Simulation.BackgroundPermittivity"),
		},
		Structures: structures,
		Sources:    sources,
		Symmetry:   symmetry,
		GridSpec: emgrid.GridSpec{
			GridX:      grid1d,
			GridY:      grid1d,
			GridZ:      grid1d,
			Wavelength: cfg.GetFloat64("Grid.Wavelength"),
		},
	}
	for d := 0; d < 3; d++ {
		sim.NumPMLLayers[d] = [2]int{pml[d], pml[d]}
	}
	return sim, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="grid.json")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("emgrid: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
