package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/bungee/internal/config"
)

func newTestCmd() *cobra.Command {
	configFile, preset = "", ""
	cmd := &cobra.Command{Use: "run"}
	addJumpFlags(cmd)
	return cmd
}

func TestBuildConfigDefaults(t *testing.T) {
	cmd := newTestCmd()
	cfg, err := buildConfig(cmd, "")
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestBuildConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jump.yaml")
	data := "name: bridge\nphysics:\n  mass: 90\n  length: 25\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newTestCmd()
	if err := cmd.ParseFlags([]string{"--preset", "stiff", "--config", path, "--length", "35", "--time", "20"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(cmd, "named")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "named" {
		t.Errorf("expected positional name to win, got %s", cfg.Name)
	}
	if cfg.Physics.Mass != 90 {
		t.Errorf("expected mass from config file, got %f", cfg.Physics.Mass)
	}
	if cfg.Physics.Length != 35 {
		t.Errorf("expected length from flag, got %f", cfg.Physics.Length)
	}
	if cfg.Solver.TEnd != 20 {
		t.Errorf("expected time from flag, got %f", cfg.Solver.TEnd)
	}
	if cfg.Physics.Stiffness != 120 {
		t.Errorf("expected stiffness from preset, got %f", cfg.Physics.Stiffness)
	}
}

func TestBuildConfigPreset(t *testing.T) {
	cmd := newTestCmd()
	if err := cmd.ParseFlags([]string{"--preset", "heavy", "--integrator", "heun"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(cmd, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "heavy" || cfg.Physics.Mass != 120 || cfg.Integrator != "heun" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestBuildConfigUnknownPreset(t *testing.T) {
	cmd := newTestCmd()
	if err := cmd.ParseFlags([]string{"--preset", "bridge"}); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cmd, ""); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestDesignCordRejectsBadPoints(t *testing.T) {
	saved := points
	defer func() { points = saved }()

	for _, n := range []int{0, -1} {
		points = n
		if err := designCord(newTestCmd(), nil); err == nil {
			t.Errorf("points=%d: expected error", n)
		}
	}
}
