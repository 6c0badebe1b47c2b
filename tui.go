package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lingo/catalog"
	"lingo/session"
	"lingo/speech"
)

// Messages pushed into the TUI from the controller's sink and from
// background workflow commands.
type InputChangedMsg struct{ Text string }
type OutputChangedMsg struct{ Text string }
type FailureMsg struct {
	Stage string
	Err   string
}
type AudioLevelMsg struct{ Level float64 }
type StatusMsg struct{ Text string }
type WorkDoneMsg struct{ Action string }

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiProgramRef() *tea.Program {
	tuiMu.Lock()
	defer tuiMu.Unlock()
	return tuiProgram
}

func tuiSend(msg tea.Msg) {
	if p := tuiProgramRef(); p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards controller events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) InputChanged(text string)  { tuiSend(InputChangedMsg{Text: text}) }
func (tuiSink) OutputChanged(text string) { tuiSend(OutputChangedMsg{Text: text}) }
func (tuiSink) Failure(stage string, err error) {
	tuiSend(FailureMsg{Stage: stage, Err: err.Error()})
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	outputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

type tuiModel struct {
	ctrl      *session.Controller
	input     textarea.Model
	output    string
	sources   []string
	targets   []string
	sourceIdx int
	targetIdx int
	status    string
	statusErr bool
	listening bool
	busy      bool
	level     float64
	width     int
	height    int
	micDevice string
}

func newTUIModel(ctrl *session.Controller, micDevice string) tuiModel {
	ta := textarea.New()
	ta.Placeholder = "Type text to translate..."
	ta.SetHeight(5)
	ta.ShowLineNumbers = false
	ta.Focus()

	targets := catalog.Names()[1:] // auto detect is never a target
	m := tuiModel{
		ctrl:      ctrl,
		input:     ta,
		sources:   catalog.Names(),
		targets:   targets,
		micDevice: micDevice,
	}
	snap := ctrl.Snapshot()
	for i, n := range m.sources {
		if n == snap.Source {
			m.sourceIdx = i
		}
	}
	for i, n := range m.targets {
		if n == snap.Target {
			m.targetIdx = i
		}
	}
	return m
}

func NewTUIProgram(ctrl *session.Controller, micDevice string) *tea.Program {
	return tea.NewProgram(newTUIModel(ctrl, micDevice), tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m tuiModel) workflow(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background()) // failures arrive through the sink
		return WorkDoneMsg{Action: action}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ctrl.StopRealTime()
			return m, tea.Quit

		case "tab":
			m.sourceIdx = (m.sourceIdx + 1) % len(m.sources)
			m.ctrl.SetSource(m.sources[m.sourceIdx])
			return m, nil

		case "shift+tab":
			m.targetIdx = (m.targetIdx + 1) % len(m.targets)
			m.ctrl.SetTarget(m.targets[m.targetIdx])
			return m, nil

		case "ctrl+t":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "translating..."
			m.statusErr = false
			m.ctrl.SetInput(m.input.Value())
			return m, m.workflow("translate", func(ctx context.Context) error {
				_, err := m.ctrl.TranslateText(ctx)
				return err
			})

		case "ctrl+o":
			m.status = "speaking..."
			m.statusErr = false
			return m, m.workflow("speak", m.ctrl.SpeakOutput)

		case "ctrl+r":
			if m.busy || m.ctrl.RealTimeActive() {
				return m, nil
			}
			m.busy = true
			m.listening = true
			m.status = ""
			return m, m.workflow("listen", func(ctx context.Context) error {
				_, err := m.ctrl.SpeechToText(ctx)
				return err
			})

		case "ctrl+x":
			if m.busy || m.ctrl.RealTimeActive() {
				return m, nil
			}
			m.busy = true
			m.listening = true
			m.status = ""
			return m, m.workflow("speech", m.ctrl.SpeechToSpeech)

		case "ctrl+e":
			if m.ctrl.RealTimeActive() {
				m.ctrl.StopRealTime()
				m.status = "real-time stopped"
				m.statusErr = false
			} else if err := m.ctrl.StartRealTime(); err != nil {
				m.status = err.Error()
				m.statusErr = true
			} else {
				m.status = "real-time running"
				m.statusErr = false
			}
			return m, nil

		case "ctrl+y":
			if err := m.ctrl.CopyOutput(); err == nil {
				m.status = "copied to clipboard"
				m.statusErr = false
			}
			return m, nil
		}

	case InputChangedMsg:
		m.input.SetValue(msg.Text)

	case OutputChangedMsg:
		m.output = msg.Text

	case FailureMsg:
		m.status = fmt.Sprintf("%s: %s", msg.Stage, msg.Err)
		m.statusErr = true

	case AudioLevelMsg:
		m.level = msg.Level

	case StatusMsg:
		m.status = msg.Text
		m.statusErr = false

	case WorkDoneMsg:
		m.busy = false
		m.listening = false
		m.level = 0
		if !m.statusErr && (msg.Action == "translate" || msg.Action == "listen" || msg.Action == "speech") {
			m.status = ""
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func levelMeter(level float64) string {
	const slots = 20
	filled := int(level * 4 * slots)
	if filled > slots {
		filled = slots
	}
	return "[" + strings.Repeat("■", filled) + strings.Repeat(" ", slots-filled) + "]"
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("lingo "+version) + "\n")

	langLine := labelStyle.Render(m.sources[m.sourceIdx]) +
		dimStyle.Render(" → ") +
		labelStyle.Render(m.targets[m.targetIdx])
	b.WriteString(langLine + "\n")

	mic := m.micDevice
	if mic == "" {
		mic = "none (text only)"
	}
	b.WriteString(dimStyle.Render("mic: "+mic) + "\n\n")

	b.WriteString(m.input.View() + "\n\n")

	b.WriteString(dimStyle.Render("Translation") + "\n")
	wrapWidth := m.width - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	if m.output != "" {
		for _, line := range strings.Split(m.output, "\n") {
			for _, wrapped := range wrapText(line, wrapWidth) {
				b.WriteString(outputStyle.Render(wrapped) + "\n")
			}
		}
	} else {
		b.WriteString(dimStyle.Render("(nothing yet)") + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.ctrl.RealTimeActive():
		b.WriteString(liveStyle.Render("● LIVE") + dimStyle.Render("  ctrl+e to stop") + "\n")
	case m.listening:
		b.WriteString(recStyle.Render("● listening ") + dimStyle.Render(levelMeter(m.level)) + "\n")
	}

	if m.status != "" {
		style := dimStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString("\n")

	help := [][2]string{
		{"ctrl+t", "translate"},
		{"ctrl+r", "speak→text"},
		{"ctrl+x", "speak→speak"},
		{"ctrl+e", "real-time"},
		{"ctrl+o", "say it"},
		{"ctrl+y", "copy"},
		{"tab", "source"},
		{"shift+tab", "target"},
	}
	var parts []string
	for _, h := range help {
		parts = append(parts, helpKeyStyle.Render(h[0])+helpStyle.Render(" "+h[1]))
	}
	b.WriteString(helpStyle.Render(strings.Join(parts, helpStyle.Render("  "))) + "\n")

	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

func runTUI(ctrl *session.Controller, micDevice string, listener *speech.Capture) {
	if listener != nil {
		listener.SetLevelFunc(func(rms float64) {
			tuiSend(AudioLevelMsg{Level: rms})
		})
	}

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(ctrl, micDevice)
	p := tuiProgram
	tuiMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
	}
}
