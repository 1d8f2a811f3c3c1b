package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/molvid/internal/job"
	"github.com/san-kum/molvid/internal/video"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Output    string             `json:"output"`
	Scene     string             `json:"scene"`
	Motion    string             `json:"motion"`
	Timestamp time.Time          `json:"timestamp"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	FPS       int                `json:"fps"`
	Frames    int                `json:"frames"`
	Packets   int                `json:"packets"`
	Elapsed   float64            `json:"elapsed_seconds"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FrameRecord is one row of frames.csv.
type FrameRecord struct {
	Frame    int        `json:"frame"`
	PTS      int64      `json:"pts"`
	Camera   [3]float64 `json:"camera"`
	RenderMS float64    `json:"render_ms"`
	EncodeMS float64    `json:"encode_ms"`
}

var frameHeader = []string{"frame", "pts", "cam_x", "cam_y", "cam_z", "render_ms", "encode_ms"}

// Save writes metadata.json and frames.csv for a finished run. ID and
// Timestamp are filled in; Frames and Metrics are derived from result.
func (s *Store) Save(meta RunMetadata, result *job.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", runName(meta.Scene), now.UnixNano())
	meta.Timestamp = now
	meta.Frames = len(result.Frames)
	meta.Elapsed = result.Elapsed.Seconds()
	meta.Metrics = map[string]float64{
		"mean_render_ms": ms(result.MeanRender()),
		"mean_encode_ms": ms(result.MeanEncode()),
		"fps":            result.FPS(),
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(frameHeader); err != nil {
		return "", err
	}

	step := int64(0)
	if meta.FPS > 0 {
		step = int64(video.TicksPerSecond / meta.FPS)
	}
	for _, f := range result.Frames {
		row := []string{
			strconv.Itoa(f.Index),
			strconv.FormatInt(int64(f.Index)*step, 10),
			strconv.FormatFloat(float64(f.Camera[0]), 'f', 6, 64),
			strconv.FormatFloat(float64(f.Camera[1]), 'f', 6, 64),
			strconv.FormatFloat(float64(f.Camera[2]), 'f', 6, 64),
			strconv.FormatFloat(ms(f.Render), 'f', 3, 64),
			strconv.FormatFloat(ms(f.Encode), 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// runName reduces a scene source, possibly an XYZ path, to a single
// directory name.
func runName(scene string) string {
	name := strings.TrimSuffix(filepath.Base(scene), filepath.Ext(scene))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "run"
	}
	return name
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// List returns every run, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]FrameRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []FrameRecord{}, nil
	}

	frames := make([]FrameRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		var f FrameRecord
		var perr error
		parseF := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}

		f.Frame, perr = strconv.Atoi(rec[0])
		if perr == nil {
			f.PTS, perr = strconv.ParseInt(rec[1], 10, 64)
		}
		f.Camera = [3]float64{parseF(rec[2]), parseF(rec[3]), parseF(rec[4])}
		f.RenderMS = parseF(rec[5])
		f.EncodeMS = parseF(rec[6])
		if perr != nil {
			return nil, fmt.Errorf("frames.csv line %d: %w", i+2, perr)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Export is the JSON document written by ExportJSON.
type Export struct {
	RunMetadata
	FrameLog []FrameRecord `json:"frame_log"`
}

// ExportJSON writes a run's metadata and frame log as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{RunMetadata: *meta, FrameLog: frames})
}
