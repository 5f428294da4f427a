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

// Package cloud is a client for the EMGrid remote compute service. A
// simulation is uploaded as a task, started, monitored until it reaches a
// terminal state and its results downloaded. The grid is always resolved
// locally before upload so that the solver and the SDK agree on the
// discretization.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/emcompute/emgrid"
)

// Status is the lifecycle state of a remote task.
type Status string

// Task lifecycle states.
const (
	StatusDraft    Status = "draft"
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusDiverged Status = "diverged"
	StatusDeleted  Status = "deleted"
)

// Terminal reports whether the task has finished and will not change state
// again.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusDiverged, StatusDeleted:
		return true
	}
	return false
}

// DefaultPollInterval is the pause between status polls while monitoring a
// task.
const DefaultPollInterval = 5 * time.Second

// Client talks to the EMGrid compute service over HTTP.
type Client struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string
	// APIKey authenticates every request.
	APIKey string
	// HTTPClient overrides the transport; nil uses http.DefaultClient.
	HTTPClient *http.Client
	// PollInterval overrides the pause between status polls; zero uses
	// DefaultPollInterval.
	PollInterval time.Duration
}

// NewClient returns a Client for the service at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

// Task describes a remote task.
type Task struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// uploadRequest is the JSON payload describing a simulation. The grid is
// resolved client side and shipped as explicit boundaries.
type uploadRequest struct {
	Name          string     `json:"name"`
	Center        [3]float64 `json:"center"`
	Size          [3]float64 `json:"size"`
	Symmetry      [3]int     `json:"symmetry"`
	NumStructures int        `json:"numStructures"`
	NumSources    int        `json:"numSources"`
	GridX         []float64  `json:"gridX"`
	GridY         []float64  `json:"gridY"`
	GridZ         []float64  `json:"gridZ"`
	Warnings      []string   `json:"warnings,omitempty"`
}

// SimulationData holds the downloaded results of a finished task.
type SimulationData struct {
	TaskID    string               `json:"taskId"`
	Status    Status               `json:"status"`
	FieldData map[string][]float64 `json:"fieldData"`
	Log       string               `json:"log"`
}

// Upload resolves the simulation grid locally, creates a remote task in the
// draft state and returns its ID.
func (c *Client) Upload(ctx context.Context, name string, sim *emgrid.Simulation) (string, error) {
	var diag emgrid.Diagnostics
	grid, err := sim.Grid(&diag)
	if err != nil {
		return "", fmt.Errorf("cloud: resolving simulation grid: %w", err)
	}
	req := uploadRequest{
		Name:          name,
		Center:        sim.Center,
		Size:          sim.Size,
		Symmetry:      sim.Symmetry,
		NumStructures: len(sim.Structures),
		NumSources:    len(sim.Sources),
		GridX:         grid.Boundaries.X,
		GridY:         grid.Boundaries.Y,
		GridZ:         grid.Boundaries.Z,
		Warnings:      diag.Warnings(),
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return "", err
	}
	if task.ID == "" {
		return "", fmt.Errorf("cloud: service returned a task without an id")
	}
	return task.ID, nil
}

// Start queues a previously uploaded task for execution.
func (c *Client) Start(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+taskID+"/start", nil, nil)
}

// Status fetches the current state of a task.
func (c *Client) Status(ctx context.Context, taskID string) (Status, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+taskID, nil, &task); err != nil {
		return "", err
	}
	return task.Status, nil
}

// Monitor polls the task until it reaches a terminal state and returns that
// state. It respects ctx for cancellation.
func (c *Client) Monitor(ctx context.Context, taskID string) (Status, error) {
	var status Status
	op := func() error {
		s, err := c.Status(ctx, taskID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !s.Terminal() {
			return fmt.Errorf("cloud: task %s still %s", taskID, s)
		}
		status = s
		return nil
	}
	b := backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval()), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if perm, ok := err.(*backoff.PermanentError); ok {
			return "", perm.Err
		}
		return "", err
	}
	return status, nil
}

// Load downloads the results of a finished task.
func (c *Client) Load(ctx context.Context, taskID string) (*SimulationData, error) {
	var data SimulationData
	if err := c.do(ctx, http.MethodGet, "/tasks/"+taskID+"/results", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Delete removes a remote task.
func (c *Client) Delete(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, nil)
}

// do performs one JSON request against the service, retrying transient
// failures with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cloud: encoding request: %w", err)
		}
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("cloud: %s %s: server error %d", method, path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
			return backoff.Permanent(fmt.Errorf("cloud: %s %s: %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg)))
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("cloud: decoding response: %w", err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(op, b)
	if perm, ok := err.(*backoff.PermanentError); ok {
		return perm.Err
	}
	return err
}
