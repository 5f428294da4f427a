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

// Package emgridutil wires the emgrid grid generator and the cloud client
// into a command-line tool with file- and flag-based configuration.
package emgridutil

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/emcompute/emgrid"
	"github.com/emcompute/emgrid/cloud"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to EMGrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path where the generated grid or the
              downloaded simulation results are saved.`,
			shorthand:  "o",
			defaultVal: "grid.json",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Simulation.Center",
			usage: `
              Simulation.Center specifies the center of the simulation domain
              in micrometers.`,
			defaultVal: []float64{0, 0, 0},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Simulation.Size",
			usage: `
              Simulation.Size specifies the extent of the simulation domain
              along each axis in micrometers.`,
			defaultVal: []float64{1, 1, 1},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Simulation.Symmetry",
			usage: `
              Simulation.Symmetry specifies the reflection symmetry (-1, 0 or
              1) across a plane bisecting the domain normal to each axis.`,
			defaultVal: []int{0, 0, 0},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Simulation.NumPMLLayers",
			usage: `
              Simulation.NumPMLLayers specifies the number of absorber layers
              added beyond both domain boundaries along each axis.`,
			defaultVal: []int{0, 0, 0},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Simulation.BackgroundPermittivity",
			usage: `
              Simulation.BackgroundPermittivity specifies the relative
              permittivity of the medium filling the domain.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.Type",
			usage: `
              Grid.Type selects the meshing strategy applied along all three
              axes: auto, uniform or quasiuniform.`,
			defaultVal: "auto",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.Wavelength",
			usage: `
              Grid.Wavelength specifies the free-space wavelength in
              micrometers used for automatic meshing. If zero, the wavelength
              is derived from the central frequency of the sources.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.MinStepsPerWvl",
			usage: `
              Grid.MinStepsPerWvl specifies the minimal number of grid steps
              per wavelength in each medium for automatic meshing. If zero,
              the default of 10 applies.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.MaxScale",
			usage: `
              Grid.MaxScale bounds the ratio between any two consecutive grid
              steps. If zero, the default of 1.4 applies.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.Dl",
			usage: `
              Grid.Dl specifies the step size in micrometers for the uniform
              and quasiuniform grid types.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Grid.DlMin",
			usage: `
              Grid.DlMin specifies a soft lower bound of the step size. If
              zero, a heuristic bound is derived from the specification.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Cloud.Address",
			usage: `
              Cloud.Address specifies the URL of the EMGrid compute service.`,
			defaultVal: "https://compute.emgrid.dev",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Cloud.APIKey",
			usage: `
              Cloud.APIKey specifies the key used to authenticate with the
              compute service.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Cloud.TaskName",
			usage: `
              Cloud.TaskName specifies the name under which the simulation is
              uploaded.`,
			defaultVal: "emgrid-task",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Cloud.PollSeconds",
			usage: `
              Cloud.PollSeconds specifies the pause in seconds between task
              status polls.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("EMGRID")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, v, option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, v, option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, v, option.usage)
				} else {
					set.IntP(option.name, option.shorthand, v, option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, v, option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, v, option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, v, option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, v, option.usage)
				}
			case []float64:
				if option.shorthand == "" {
					set.Float64Slice(option.name, v, option.usage)
				} else {
					set.Float64SliceP(option.name, option.shorthand, v, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("emgrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "emgrid",
	Short: "A grid generator for cloud electromagnetic simulations.",
	Long: `EMGrid generates the non-uniform grids used by the EMGrid
electromagnetic solver platform and manages simulations running on the
remote compute service. Use the subcommands specified below to access the
functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'EMGRID_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of EMGrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("EMGrid v%s\n", emgrid.Version)
	},
	DisableAutoGenTag: true,
}

// gridCmd is a command that generates and saves a simulation grid.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate a simulation grid",
	Long: `grid generates the non-uniform simulation grid as specified by the
information in the configuration file and saves its boundary coordinates.
The saved grid can be inspected or fed back into future simulations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := SimulationConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Grid(sim, outputFile)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a simulation on the compute service.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation on the compute service",
	Long: `run resolves the simulation grid locally, uploads the simulation to
the EMGrid compute service, waits for it to finish and saves the downloaded
results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := SimulationConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		apiKey := Cfg.GetString("Cloud.APIKey")
		if apiKey == "" {
			apiKey = os.Getenv("EMGRID_API_KEY")
		}
		c := cloud.NewClient(Cfg.GetString("Cloud.Address"), apiKey)
		c.PollInterval = time.Duration(Cfg.GetInt("Cloud.PollSeconds")) * time.Second
		return Run(cmd.Context(), c, Cfg.GetString("Cloud.TaskName"), sim, outputFile)
	},
	DisableAutoGenTag: true,
}
