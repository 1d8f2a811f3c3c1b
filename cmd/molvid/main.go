package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/molvid/internal/animate"
	"github.com/san-kum/molvid/internal/config"
	"github.com/san-kum/molvid/internal/job"
	"github.com/san-kum/molvid/internal/render"
	"github.com/san-kum/molvid/internal/scene"
	"github.com/san-kum/molvid/internal/storage"
	"github.com/san-kum/molvid/internal/tui"
	"github.com/san-kum/molvid/internal/video/ffmpeg"
)

var (
	dataDir string
	verbose bool
	// Clip
	width     int
	height    int
	fps       int
	frames    int
	sceneSrc  string
	motion    string
	amplitude float64
	turns     float64
	// Config file
	configFile string
	// Preset name
	preset string
	// Progress view
	useTUI bool
	theme  string
	// Still
	frameIdx int
	// Export
	format string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "molvid",
		Short:         "ray-traced molecule video renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".molvid", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and container dump")

	renderCmd := &cobra.Command{
		Use:   "render [output]",
		Short: "render a clip and encode it to HEVC",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderClip,
	}
	clipFlags(renderCmd)
	renderCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate (must divide 90000)")
	renderCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	renderCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	renderCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress")
	renderCmd.Flags().StringVar(&theme, "theme", "cpk", "progress view theme")

	stillCmd := &cobra.Command{
		Use:   "still [output.png]",
		Short: "render one frame to PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderStill,
	}
	clipFlags(stillCmd)
	stillCmd.Flags().IntVar(&frameIdx, "frame", 0, "frame index within the clip")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the renderer without encoding",
		RunE:  benchRender,
	}
	benchCmd.Flags().StringVar(&sceneSrc, "scene", config.DefaultScene, "built-in scene name or .xyz file")
	benchCmd.Flags().IntVar(&frames, "frames", 10, "frames per size")

	probeCmd := &cobra.Command{
		Use:   "probe [file]",
		Short: "decode a video file and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE:  probeFile,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-frame timings of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and frame log",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json or csv")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tFPS\tFRAMES\tMOTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%dx%d\t%d\t%d\t%s\n", name, p.Width, p.Height, p.FPS, p.Frames, p.Motion)
			}
			return w.Flush()
		},
	}

	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "print the atoms of a scene",
		RunE:  printScene,
	}
	sceneCmd.Flags().StringVar(&sceneSrc, "scene", config.DefaultScene, "built-in scene name or .xyz file")

	rootCmd.AddCommand(renderCmd, stillCmd, benchCmd, probeCmd, listCmd, plotCmd, exportCmd, presetsCmd, sceneCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func clipFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&width, "width", config.DefaultSize, "frame width")
	cmd.Flags().IntVar(&height, "height", config.DefaultSize, "frame height")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().StringVar(&sceneSrc, "scene", config.DefaultScene, "built-in scene name or .xyz file")
	cmd.Flags().StringVar(&motion, "motion", config.DefaultMotion, fmt.Sprintf("camera motion %v", animate.Names()))
	cmd.Flags().Float64Var(&amplitude, "amplitude", config.DefaultAmplitude, "orbit radius or dolly travel")
	cmd.Flags().Float64Var(&turns, "turns", config.DefaultTurns, "orbit turns over the clip")
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "molvid",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("scene") {
		cfg.Scene = sceneSrc
	}
	if flags.Changed("motion") {
		cfg.Motion = motion
	}
	if flags.Changed("amplitude") {
		cfg.Amplitude = amplitude
	}
	if flags.Changed("turns") {
		cfg.Turns = turns
	}
	if len(args) > 0 {
		cfg.Output = args[0]
	}

	return cfg, nil
}

func renderClip(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger()
	if useTUI && !verbose {
		logger.SetLevel(log.ErrorLevel)
	}

	sc, err := scene.Load(cfg.Scene)
	if err != nil {
		return err
	}
	mot, err := cfg.BuildMotion()
	if err != nil {
		return err
	}
	logger.Debug("scene loaded", "source", cfg.Scene, "atoms", sc.Len(), "extent", sc.Extent())

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	pipeline, err := ffmpeg.Create(cfg.Params(verbose), logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	work := func(ctx context.Context, progress func(job.FrameStat)) (*job.Result, error) {
		return job.Run(ctx, job.Options{
			Scene:    sc,
			Motion:   mot,
			Width:    cfg.Width,
			Height:   cfg.Height,
			Frames:   cfg.Frames,
			Pipeline: pipeline,
			Progress: progress,
		})
	}

	var result *job.Result
	if useTUI {
		title := fmt.Sprintf("molvid  %s -> %s  %dx%d@%d", cfg.Scene, cfg.Output, cfg.Width, cfg.Height, cfg.FPS)
		result, err = tui.Run(ctx, title, cfg.Frames, tui.GetTheme(theme), work)
	} else {
		fmt.Printf("rendering %d frames of %s...\n", cfg.Frames, cfg.Scene)
		result, err = work(ctx, func(s job.FrameStat) {
			logger.Debug("frame", "index", s.Index, "render", s.Render, "encode", s.Encode)
		})
	}
	if err != nil {
		return err
	}

	stats := pipeline.Stats()
	runID, err := st.Save(storage.RunMetadata{
		Output:  cfg.Output,
		Scene:   cfg.Scene,
		Motion:  cfg.Motion,
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Packets: stats.Packets,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed.Truncate(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("output: %s (%.2fs, %d frames, %d packets)\n", cfg.Output, cfg.Duration(), stats.Frames, stats.Packets)
	fmt.Printf("render: %v/frame  encode: %v/frame  throughput: %.1f fps\n",
		result.MeanRender().Truncate(time.Microsecond), result.MeanEncode().Truncate(time.Microsecond), result.FPS())
	return nil
}

func renderStill(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	out := "still.png"
	if len(args) > 0 {
		out = args[0]
	}

	sc, err := scene.Load(cfg.Scene)
	if err != nil {
		return err
	}
	mot, err := cfg.BuildMotion()
	if err != nil {
		return err
	}

	fb, err := job.Still(sc, mot, cfg.Width, cfg.Height, frameIdx, cfg.Frames)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, fb); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%dx%d, frame %d/%d)\n", out, cfg.Width, cfg.Height, frameIdx, cfg.Frames)
	return nil
}

// discard satisfies job.Encoder without encoding anything.
type discard struct{}

func (discard) Open() error        { return nil }
func (discard) Write([]byte) error { return nil }
func (discard) Finish() error      { return nil }

func benchRender(cmd *cobra.Command, args []string) error {
	sc, err := scene.Load(sceneSrc)
	if err != nil {
		return err
	}
	mot := animate.Orbit{Eye: animate.DefaultEye, Radius: config.DefaultAmplitude, Turns: 1}
	sizes := []int{64, 256, 540, 1080}

	fmt.Printf("benchmarking %s (%d atoms)\n\n", sceneSrc, sc.Len())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tFRAMES\tTIME\tMS/FRAME\tMPIX/SEC")

	for _, size := range sizes {
		res, err := job.Run(context.Background(), job.Options{
			Scene: sc, Motion: mot, Width: size, Height: size, Frames: frames, Pipeline: discard{},
		})
		if err != nil {
			return err
		}
		perFrame := res.MeanRender()
		mpix := float64(size*size) / perFrame.Seconds() / 1e6
		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.2f\t%.1f\n",
			size, size, frames, res.Elapsed.Truncate(time.Millisecond), float64(perFrame)/float64(time.Millisecond), mpix)
	}

	return w.Flush()
}

func probeFile(cmd *cobra.Command, args []string) error {
	res, err := ffmpeg.Probe(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "file\t%s\n", res.Path)
	fmt.Fprintf(w, "container\t%s\n", res.Container)
	fmt.Fprintf(w, "codec\t%s\n", res.Codec)
	fmt.Fprintf(w, "size\t%dx%d\n", res.Width, res.Height)
	fmt.Fprintf(w, "frames\t%d\n", res.Frames)
	fmt.Fprintf(w, "frame rate\t%.3f\n", res.FrameRate)
	fmt.Fprintf(w, "duration\t%.3fs\n", res.Duration)
	fmt.Fprintf(w, "mean rgb\t(%.1f, %.1f, %.1f)\n", res.MeanR, res.MeanG, res.MeanB)
	return w.Flush()
}

func printScene(cmd *cobra.Command, args []string) error {
	sc, err := scene.Load(sceneSrc)
	if err != nil {
		return err
	}

	c, ext := sc.Centroid(), sc.Extent()
	fmt.Printf("scene: %s\n", sceneSrc)
	fmt.Printf("atoms: %d\n", sc.Len())
	fmt.Printf("centroid: (%.3f, %.3f, %.3f)\n", c.X, c.Y, c.Z)
	fmt.Printf("extent: (%.3f, %.3f, %.3f)\n\n", ext.X, ext.Y, ext.Z)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEL\tX\tY\tZ\tRADIUS")
	for i := 0; i < sc.Len(); i++ {
		a := sc.At(i)
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.3f\t%.3f\t%.3f\n", i, a.Element, a.Position.X, a.Position.Y, a.Position.Z, a.Radius)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tMOTION\tTIME\tSIZE\tFPS\tFRAMES\tOUTPUT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d\t%d\t%d\t%s\n",
			run.ID,
			run.Scene,
			run.Motion,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.FPS,
			run.Frames,
			run.Output,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	recs, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(recs) < 2 {
		return fmt.Errorf("not enough frames to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s  motion: %s\n", meta.Scene, meta.Motion)
	fmt.Printf("frames: %d\n\n", len(recs))

	series := []struct {
		caption string
		value   func(storage.FrameRecord) float64
	}{
		{"render ms/frame", func(r storage.FrameRecord) float64 { return r.RenderMS }},
		{"encode ms/frame", func(r storage.FrameRecord) float64 { return r.EncodeMS }},
		{"camera x", func(r storage.FrameRecord) float64 { return r.Camera[0] }},
		{"camera z", func(r storage.FrameRecord) float64 { return r.Camera[2] }},
	}

	for _, s := range series {
		data := make([]float64, len(recs))
		for i, r := range recs {
			data[i] = s.value(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	switch format {
	case "json":
		return st.ExportJSON(os.Stdout, runID)
	case "csv":
		recs, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"frame", "pts", "cam_x", "cam_y", "cam_z", "render_ms", "encode_ms"}); err != nil {
			return err
		}
		for _, r := range recs {
			row := []string{
				strconv.Itoa(r.Frame),
				strconv.FormatInt(r.PTS, 10),
				strconv.FormatFloat(r.Camera[0], 'f', 6, 64),
				strconv.FormatFloat(r.Camera[1], 'f', 6, 64),
				strconv.FormatFloat(r.Camera[2], 'f', 6, 64),
				strconv.FormatFloat(r.RenderMS, 'f', 3, 64),
				strconv.FormatFloat(r.EncodeMS, 'f', 3, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s (json, csv)", format)
}
