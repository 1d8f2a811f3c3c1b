package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/molvid/internal/job"
)

func sampleResult() *job.Result {
	return &job.Result{
		Frames: []job.FrameStat{
			{Index: 0, Total: 3, Camera: [3]float32{0, 0, 32}, Render: 4 * time.Millisecond, Encode: time.Millisecond},
			{Index: 1, Total: 3, Camera: [3]float32{-2, 3.5, 32}, Render: 6 * time.Millisecond, Encode: time.Millisecond},
			{Index: 2, Total: 3, Camera: [3]float32{-6, 0, 32}, Render: 5 * time.Millisecond, Encode: 4 * time.Millisecond},
		},
		Elapsed: 30 * time.Millisecond,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{Output: "out.mp4", Scene: "caffeine", Motion: "orbit", Width: 64, Height: 64, FPS: 30, Packets: 3}
	runID, err := st.Save(meta, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Frames != 3 || loaded.Motion != "orbit" || loaded.Packets != 3 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if got := loaded.Metrics["mean_render_ms"]; got != 5 {
		t.Errorf("expected mean render 5ms, got %f", got)
	}
	if got := loaded.Metrics["fps"]; math.Abs(got-100) > 1e-9 {
		t.Errorf("expected 100 fps, got %f", got)
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[2].PTS != 6000 {
		t.Errorf("expected pts 6000, got %d", frames[2].PTS)
	}
	if frames[1].Camera != [3]float64{-2, 3.5, 32} {
		t.Errorf("unexpected camera %v", frames[1].Camera)
	}
	if frames[2].EncodeMS != 4 {
		t.Errorf("expected encode 4ms, got %f", frames[2].EncodeMS)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	first, _ := st.Save(RunMetadata{Scene: "caffeine", FPS: 30}, sampleResult())
	second, _ := st.Save(RunMetadata{Scene: "water", FPS: 30}, sampleResult())
	os.MkdirAll(filepath.Join(dir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected runs oldest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreSaveScenePath(t *testing.T) {
	tests := []struct {
		scene string
		name  string
	}{
		{"molecules/water.xyz", "water"},
		{"../mols/x.xyz", "x"},
		{"..", "run"},
	}
	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "data")
			st := New(dir)

			runID, err := st.Save(RunMetadata{Scene: tt.scene, FPS: 30}, sampleResult())
			if err != nil {
				t.Fatalf("save failed: %v", err)
			}
			if !strings.HasPrefix(runID, tt.name+"_") {
				t.Errorf("expected id to start with %q, got %q", tt.name+"_", runID)
			}
			if _, err := os.Stat(filepath.Join(dir, runID, "metadata.json")); err != nil {
				t.Errorf("run not stored under data dir: %v", err)
			}

			runs, err := st.List()
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != 1 || runs[0].ID != runID {
				t.Fatalf("expected run %s in list, got %+v", runID, runs)
			}
			if runs[0].Scene != tt.scene {
				t.Errorf("expected scene source %q kept, got %q", tt.scene, runs[0].Scene)
			}

			entries, _ := os.ReadDir(root)
			if len(entries) != 1 {
				t.Errorf("expected only the data dir under root, got %d entries", len(entries))
			}
		})
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadFrames("nope"); err == nil {
		t.Error("expected error for missing frames")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Scene: "caffeine", FPS: 60}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var doc Export
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.ID != runID || len(doc.FrameLog) != 3 {
		t.Errorf("unexpected export %+v", doc)
	}
	if doc.FrameLog[1].PTS != 1500 {
		t.Errorf("expected pts 1500 at 60fps, got %d", doc.FrameLog[1].PTS)
	}
}
