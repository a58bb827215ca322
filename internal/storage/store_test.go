package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/dynamo"
)

func testTrajectory() *dynamo.Trajectory {
	return &dynamo.Trajectory{
		Times: []float64{0, 0.05, 0.1},
		States: []dynamo.State{
			{80, 0},
			{79.98773, -0.4905},
			{79.9509341, -0.98066},
		},
		Steps:       2,
		Rejected:    1,
		Evaluations: 19,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("heavy")
	runID, err := st.Save(cfg, testTrajectory(), map[string]float64{"min_height": 13.7})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(runID, "heavy_") {
		t.Errorf("expected run id prefixed with preset name, got '%s'", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if *meta.Config != *cfg {
		t.Errorf("config mismatch: got %+v", meta.Config)
	}
	if meta.Samples != 3 || meta.Steps != 2 || meta.Rejected != 1 || meta.Evaluations != 19 {
		t.Errorf("unexpected statistics %+v", meta)
	}
	if meta.Metrics["min_height"] != 13.7 {
		t.Errorf("expected min_height 13.7, got %f", meta.Metrics["min_height"])
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}

	want := testTrajectory()
	if traj.Len() != want.Len() {
		t.Fatalf("expected %d samples, got %d", want.Len(), traj.Len())
	}
	for i := range want.Times {
		if traj.Times[i] != want.Times[i] {
			t.Errorf("time %d: expected %v, got %v", i, want.Times[i], traj.Times[i])
		}
		for j := range want.States[i] {
			if traj.States[i][j] != want.States[i][j] {
				t.Errorf("state %d[%d]: expected %v, got %v", i, j, want.States[i][j], traj.States[i][j])
			}
		}
	}
	if traj.Evaluations != 19 {
		t.Errorf("expected evaluations carried from metadata, got %d", traj.Evaluations)
	}
}

func TestStoreCSVHeader(t *testing.T) {
	traj := testTrajectory()
	traj.States[2][0] = 79.950934123

	var buf bytes.Buffer
	if err := WriteCSV(&buf, traj); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "time,height,velocity" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[3] != "0.1,79.9509341,-0.98066" {
		t.Errorf("expected nine significant digits, got %q", lines[3])
	}
}

func TestReadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"short row":   "time,height,velocity\n0,80\n",
		"not numeric": "time,height,velocity\n0,eighty,0\n",
	}
	for name, data := range cases {
		if _, err := ReadCSV(strings.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, name := range []string{"classic", "soft"} {
		if _, err := st.Save(config.GetPreset(name), testTrajectory(), nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	// Stray entries are ignored.
	os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Config.Name != "classic" || runs[1].Config.Name != "soft" {
		t.Errorf("expected runs in save order, got %s, %s", runs[0].Config.Name, runs[1].Config.Name)
	}
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	_, err := st.Save(config.DefaultConfig(), testTrajectory(), map[string]float64{"g_load": math.NaN()})
	if err == nil {
		t.Fatal("expected error saving a NaN metric")
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected failed save to clean up, found %d entries", len(entries))
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); err == nil {
		t.Error("expected error loading missing run")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	if err := ExportJSON(&buf, cfg, testTrajectory(), map[string]float64{"max_speed": 1}); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}

	if data.Name != "classic" || data.Integrator != "rk45" {
		t.Errorf("unexpected header %s/%s", data.Name, data.Integrator)
	}
	if data.Samples != 3 || len(data.Heights) != 3 || len(data.Velocities) != 3 {
		t.Errorf("expected 3 samples, got %d", data.Samples)
	}
	if data.Heights[0] != 80 || data.Config.Physics.Stiffness != 50 {
		t.Errorf("unexpected payload %+v", data)
	}
}
