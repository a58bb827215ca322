package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/dynamo"
)

type ExportData struct {
	Name       string             `json:"name"`
	Integrator string             `json:"integrator"`
	Config     *config.Config     `json:"config"`
	Samples    int                `json:"samples"`
	Times      []float64          `json:"times"`
	Heights    []float64          `json:"heights"`
	Velocities []float64          `json:"velocities"`
	Metrics    map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, cfg *config.Config, traj *dynamo.Trajectory, metrics map[string]float64) error {
	data := ExportData{
		Name:       cfg.Name,
		Integrator: cfg.Integrator,
		Config:     cfg,
		Samples:    traj.Len(),
		Times:      traj.Times,
		Heights:    traj.Positions(),
		Velocities: traj.Velocities(),
		Metrics:    metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
