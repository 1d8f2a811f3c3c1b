package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/molvid/internal/job"
)

const (
	barWidth      = 40
	previewCols   = 24
	previewRows   = 12
	graphWidth    = 40
	graphHistory  = 240
	lumaThreshold = 12
	refreshEvery  = time.Second / 10
)

type TickMsg time.Time

// FrameMsg reports one encoded frame.
type FrameMsg struct {
	Stat    job.FrameStat
	Preview string
}

// DoneMsg ends the view.
type DoneMsg struct {
	Result *job.Result
	Err    error
}

// Model is the bubbletea model of a render run.
type Model struct {
	title    string
	total    int
	done     int
	last     job.FrameStat
	renderMS []float64
	preview  string
	started  time.Time
	now      time.Time
	finished bool
	err      error
	cancel   func()
	st       styles
}

func NewModel(title string, total int, theme Theme, cancel func()) Model {
	now := time.Now()
	return Model{
		title:    title,
		total:    total,
		renderMS: make([]float64, 0, graphHistory),
		started:  now,
		now:      now,
		cancel:   cancel,
		st:       newStyles(theme),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case TickMsg:
		if m.finished {
			return m, nil
		}
		m.now = time.Time(msg)
		return m, tick()
	case FrameMsg:
		m.done = msg.Stat.Index + 1
		m.last = msg.Stat
		if msg.Preview != "" {
			m.preview = msg.Preview
		}
		m.renderMS = append(m.renderMS, float64(msg.Stat.Render)/float64(time.Millisecond))
		if len(m.renderMS) > graphHistory {
			m.renderMS = m.renderMS[1:]
		}
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		m.now = time.Now()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.title.Render(m.title) + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = 100 * float64(m.done) / float64(m.total)
	}
	s.WriteString(m.st.bar.Render(ProgressBar(m.done, m.total, barWidth)))
	s.WriteString(fmt.Sprintf(" %3.0f%%  %d/%d\n\n", pct, m.done, m.total))

	var stats strings.Builder
	elapsed := m.now.Sub(m.started)
	stats.WriteString(m.st.label.Render("Elapsed") + m.st.value.Render(elapsed.Truncate(time.Millisecond).String()) + "\n")
	if elapsed > 0 && m.done > 0 {
		stats.WriteString(m.st.label.Render("Rate") + m.st.value.Render(fmt.Sprintf("%.1f fps", float64(m.done)/elapsed.Seconds())) + "\n")
	}
	stats.WriteString(m.st.label.Render("Render") + m.st.value.Render(fmt.Sprintf("%.2f ms", float64(m.last.Render)/float64(time.Millisecond))) + "\n")
	stats.WriteString(m.st.label.Render("Encode") + m.st.value.Render(fmt.Sprintf("%.2f ms", float64(m.last.Encode)/float64(time.Millisecond))) + "\n")
	c := m.last.Camera
	stats.WriteString(m.st.label.Render("Camera") + m.st.value.Render(fmt.Sprintf("(%.1f, %.1f, %.1f)", c[0], c[1], c[2])))

	left := m.st.panel.Render(stats.String())
	if m.preview != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top, m.st.panel.Render(m.st.preview.Render(m.preview)), left)
	}
	s.WriteString(left + "\n")

	if len(m.renderMS) > 1 {
		chart := asciigraph.Plot(m.renderMS, asciigraph.Height(5), asciigraph.Width(graphWidth), asciigraph.Caption("render ms/frame"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	switch {
	case m.finished && m.err != nil:
		s.WriteString(m.st.failed.Render("failed: "+m.err.Error()) + "\n")
	case m.finished:
		s.WriteString(m.st.done.Render("done") + "\n")
	default:
		s.WriteString(m.st.help.Render("q: abort") + "\n")
	}
	return s.String()
}

func (m Model) Done() int  { return m.done }
func (m Model) Err() error { return m.err }

// Work is a render loop that reports every frame to progress.
type Work func(ctx context.Context, progress func(job.FrameStat)) (*job.Result, error)

// Run shows the progress view while work runs on its own goroutine. Quitting
// the view cancels ctx for work.
func Run(ctx context.Context, title string, total int, theme Theme, work Work) (*job.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, total, theme, cancel))
	canvas := NewCanvas(previewCols, previewRows)

	var (
		res     *job.Result
		workErr error
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, workErr = work(ctx, func(s job.FrameStat) {
			preview := ""
			if s.Frame != nil {
				canvas.Plot(s.Frame, lumaThreshold)
				preview = canvas.String()
			}
			s.Frame = nil
			p.Send(FrameMsg{Stat: s, Preview: preview})
		})
		p.Send(DoneMsg{Result: res, Err: workErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return res, err
	}
	<-done
	return res, workErr
}
