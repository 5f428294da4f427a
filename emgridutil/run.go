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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/emcompute/emgrid"
	"github.com/emcompute/emgrid/cloud"
)

// Run uploads the simulation to the compute service, waits for it to finish
// and saves the downloaded results to outputFile as JSON.
func Run(ctx context.Context, c *cloud.Client, name string, sim *emgrid.Simulation, outputFile string) error {
	log.Printf("Uploading task %q", name)
	taskID, err := c.Upload(ctx, name, sim)
	if err != nil {
		return err
	}
	log.Printf("Starting task %s", taskID)
	if err := c.Start(ctx, taskID); err != nil {
		return err
	}

	status, err := c.Monitor(ctx, taskID)
	if err != nil {
		return err
	}
	log.Printf("Task %s finished with status %s", taskID, status)
	if status != cloud.StatusSuccess {
		return fmt.Errorf("emgrid: task %s did not succeed: %s", taskID, status)
	}

	data, err := c.Load(ctx, taskID)
	if err != nil {
		return err
	}
	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("emgrid: problem creating output file: %v", err)
	}
	defer w.Close()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(data)
}
