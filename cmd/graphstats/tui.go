package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-graphstats/pkg/config"
	"github.com/dd0wney/cluso-graphstats/pkg/pipeline"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginBottom(1)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

const maxProgressWidth = 80

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "abort"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

type eventMsg pipeline.Event

type doneMsg struct{}

// waitForEvent turns the next pipeline event into a message. A closed
// channel means the run is over.
func waitForEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

type model struct {
	input    string
	events   <-chan pipeline.Event
	cancel   context.CancelFunc
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     keyMap
	current  string
	finished []pipeline.Event
	total    int
	done     bool
	aborted  bool
}

func initialModel(input string, events <-chan pipeline.Event, cancel context.CancelFunc) model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))),
	)
	return model{
		input:    input,
		events:   events,
		cancel:   cancel,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     keys,
		total:    len(pipeline.Stages),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-4, maxProgressWidth)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.aborted = true
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		ev := pipeline.Event(msg)
		if ev.Total > 0 {
			m.total = ev.Total
		}
		if ev.Finished() {
			m.finished = append(m.finished, ev)
			if m.current == ev.Stage {
				m.current = ""
			}
		} else {
			m.current = ev.Stage
		}
		return m, tea.Batch(
			m.progress.SetPercent(m.percent()),
			waitForEvent(m.events),
		)

	case doneMsg:
		m.done = true
		m.current = ""
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(len(m.finished)) / float64(m.total)
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("graphstats: " + m.input))
	b.WriteString("\n")

	for _, ev := range m.finished {
		b.WriteString(renderFinished(ev))
		b.WriteString("\n")
	}
	if m.current != "" {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), stageStyle.Render(m.current))
	}

	b.WriteString("\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")

	switch {
	case m.aborted:
		b.WriteString(errorStyle.Render("aborted"))
		b.WriteString("\n")
	case !m.done:
		b.WriteString(helpStyle.Render(m.help.View(m.keys)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFinished(ev pipeline.Event) string {
	switch ev.State {
	case pipeline.StateFailed:
		return errorStyle.Render(fmt.Sprintf("✗ %s: %v", ev.Stage, ev.Err))
	case pipeline.StateSkipped:
		return skipStyle.Render("- " + ev.Stage + " (skipped)")
	default:
		return doneStyle.Render(fmt.Sprintf("✓ %s", ev.Stage)) +
			skipStyle.Render(fmt.Sprintf(" %s", ev.Elapsed.Round(time.Millisecond)))
	}
}

// runWithProgress runs the pipeline in the background while the progress
// view follows its events. Aborting the view cancels the run.
func runWithProgress(ctx context.Context, cfg *config.Config, opts []pipeline.Option) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 2*len(pipeline.Stages))
	opts = append(opts, pipeline.WithEvents(events))

	type outcome struct {
		res *pipeline.Result
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := pipeline.New(cfg, opts...).Run(ctx)
		close(events)
		finished <- outcome{res, err}
	}()

	p := tea.NewProgram(initialModel(cfg.Input.Path, events, cancel))
	if _, err := p.Run(); err != nil {
		cancel()
		out := <-finished
		return out.res, fmt.Errorf("progress display: %w", err)
	}

	out := <-finished
	return out.res, out.err
}
