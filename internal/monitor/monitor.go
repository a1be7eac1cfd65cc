// Package monitor implements the live weight plotter TUI using BubbleTea:
// serial connection controls, LAST/MAX readouts and a braille plot of the
// recent history.
package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/luki/weighplot/internal/config"
	"github.com/luki/weighplot/internal/decoder"
	"github.com/luki/weighplot/internal/export"
	"github.com/luki/weighplot/internal/ingest"
	"github.com/luki/weighplot/internal/series"
	"github.com/luki/weighplot/internal/transport"
)

const readBufSize = 4096

// ── Messages ─────────────────────────────────────────────────────────

// Every poll message carries the connection generation it was issued
// for, so results from a closed link are ignored after a reconnect.
type tickMsg struct{ gen int }

type chunkMsg struct {
	gen  int
	data []byte
}

type transportErrMsg struct {
	gen int
	err error
}

type portsMsg struct {
	ports []transport.PortInfo
	err   error
}

type exportMsg struct {
	paths []string
	err   error
}

type autoConnectMsg struct{}

// ── Model ────────────────────────────────────────────────────────────

// Deps are the collaborators the monitor is built from.
type Deps struct {
	Open      transport.Opener
	ListPorts func() ([]transport.PortInfo, error)
	Log       *zap.Logger
	Now       func() time.Time
}

// Model is the BubbleTea model for the live plotter.
type Model struct {
	cfg  config.Config
	deps Deps
	pipe *ingest.Pipeline

	tr   transport.Transport
	gen  int
	port string
	baud int

	ports   []transport.PortInfo
	portIdx int

	baudInput   textinput.Model
	editingBaud bool

	help help.Model
	dark bool

	err    error
	notice string

	width     int
	height    int
	paused    bool
	frozen    series.Snapshot
	startTime time.Time
	lastData  time.Time
	malformed int
	overflows int
}

// New creates the initial model. cfg must already be validated.
func New(cfg config.Config, deps Deps) Model {
	if deps.Open == nil {
		deps.Open = transport.Open
	}
	if deps.ListPorts == nil {
		deps.ListPorts = transport.ListPorts
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	delim, err := cfg.DelimiterRune()
	if err != nil {
		delim = decoder.DefaultDelimiter
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 8
	ti.Width = 8
	ti.SetValue(strconv.Itoa(cfg.BaudRate))

	m := Model{
		cfg:       cfg,
		deps:      deps,
		pipe:      ingest.New(decoder.New(delim, cfg.MaxPending), series.New(cfg.MaxPoints)),
		baud:      cfg.BaudRate,
		baudInput: ti,
		help:      help.New(),
		dark:      true,
		startTime: deps.Now(),
	}
	if cfg.Port != "" {
		m.ports = []transport.PortInfo{{Name: cfg.Port}}
	}
	return m
}

// Store exposes the series store, mainly for tests.
func (m Model) Store() *series.Store { return m.pipe.Store }

// Connected reports whether a transport is open.
func (m Model) Connected() bool { return m.tr != nil }

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func readCmd(tr transport.Transport, gen int) tea.Cmd {
	return func() tea.Msg {
		buf := make([]byte, readBufSize)
		n, err := tr.Read(buf)
		if err != nil {
			return transportErrMsg{gen: gen, err: err}
		}
		return chunkMsg{gen: gen, data: buf[:n]}
	}
}

func listPortsCmd(list func() ([]transport.PortInfo, error)) tea.Cmd {
	return func() tea.Msg {
		ports, err := list()
		return portsMsg{ports: ports, err: err}
	}
}

func exportCmd(dir string, snap series.Snapshot, t time.Time) tea.Cmd {
	return func() tea.Msg {
		csvPath, err := export.WriteCSV(dir, snap, t)
		if err != nil {
			return exportMsg{err: err}
		}
		pngPath, err := export.WritePNG(dir, snap, t)
		if err != nil {
			return exportMsg{paths: []string{csvPath}, err: err}
		}
		return exportMsg{paths: []string{csvPath, pngPath}}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listPortsCmd(m.deps.ListPorts), textinput.Blink}
	if m.cfg.Port != "" {
		cmds = append(cmds, func() tea.Msg { return autoConnectMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.editingBaud {
			return m.updateBaudInput(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case autoConnectMsg:
		return m.connect()

	case tickMsg:
		if msg.gen != m.gen || m.tr == nil {
			return m, nil
		}
		return m, readCmd(m.tr, m.gen)

	case chunkMsg:
		if msg.gen != m.gen || m.tr == nil {
			return m, nil
		}
		if len(msg.data) > 0 {
			m.applyChunk(msg.data)
		}
		return m, tickCmd(m.cfg.PollInterval, m.gen)

	case transportErrMsg:
		if msg.gen != m.gen || m.tr == nil {
			return m, nil
		}
		m.deps.Log.Error("uart error", zap.String("port", m.port), zap.Error(msg.err))
		m.disconnect()
		m.err = fmt.Errorf("UART error: %w", msg.err)

	case portsMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("list ports: %w", msg.err)
			m.deps.Log.Warn("list ports failed", zap.Error(msg.err))
			return m, nil
		}
		m.setPorts(msg.ports)

	case exportMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("export: %w", msg.err)
			m.deps.Log.Warn("export failed", zap.Error(msg.err))
		} else {
			m.err = nil
			m.notice = "saved " + strings.Join(msg.paths, ", ")
			m.deps.Log.Info("exported", zap.Strings("paths", msg.paths))
		}
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.disconnect()
		_ = m.deps.Log.Sync()
		return m, tea.Quit

	case key.Matches(msg, keys.Connect):
		if m.tr != nil {
			m.disconnect()
			return m, nil
		}
		return m.connect()

	case key.Matches(msg, keys.NextPort):
		if m.tr == nil && len(m.ports) > 0 {
			m.portIdx = (m.portIdx + 1) % len(m.ports)
		}

	case key.Matches(msg, keys.Refresh):
		return m, listPortsCmd(m.deps.ListPorts)

	case key.Matches(msg, keys.Baud):
		if m.tr == nil {
			m.editingBaud = true
			m.baudInput.CursorEnd()
			return m, m.baudInput.Focus()
		}

	case key.Matches(msg, keys.ResetMax):
		m.pipe.Store.ResetMax()
		m.refreeze()

	case key.Matches(msg, keys.Clear):
		m.pipe.Store.Clear()
		m.refreeze()
		m.deps.Log.Info("history cleared")

	case key.Matches(msg, keys.Export):
		return m, exportCmd(m.cfg.ExportDir, m.snapshot(), m.deps.Now())

	case key.Matches(msg, keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.frozen = m.pipe.Store.Snapshot()
		}

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateBaudInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		m.disconnect()
		return m, tea.Quit
	case key.Matches(msg, applyKey):
		m.editingBaud = false
		m.baudInput.Blur()
		baud, err := parseBaud(m.baudInput.Value())
		if err != nil {
			m.err = err
			m.baudInput.SetValue(strconv.Itoa(m.baud))
			return m, nil
		}
		m.baud = baud
		m.err = nil
		return m, nil
	case key.Matches(msg, cancelKey):
		m.editingBaud = false
		m.baudInput.Blur()
		m.baudInput.SetValue(strconv.Itoa(m.baud))
		return m, nil
	}

	var cmd tea.Cmd
	m.baudInput, cmd = m.baudInput.Update(msg)
	return m, cmd
}

func parseBaud(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return config.DefaultBaudRate, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", s)
	}
	return n, nil
}

// connect opens the selected port and starts the poll loop.
func (m Model) connect() (tea.Model, tea.Cmd) {
	port := m.selectedPort()
	if port == "" {
		m.err = transport.ErrNoPort
		return m, nil
	}

	tr, err := m.deps.Open(port, m.baud)
	if err != nil {
		m.err = fmt.Errorf("failed to open port: %w", err)
		m.deps.Log.Error("open failed", zap.String("port", port), zap.Int("baud", m.baud), zap.Error(err))
		return m, nil
	}

	m.tr = tr
	m.port = port
	m.gen++
	m.err = nil
	m.notice = ""
	m.pipe.Decoder.Reset()
	m.malformed, m.overflows = 0, 0
	m.deps.Log.Info("connected", zap.String("port", port), zap.Int("baud", m.baud))
	return m, tickCmd(m.cfg.PollInterval, m.gen)
}

// disconnect closes the transport; in-flight poll results are dropped by
// the generation check.
func (m *Model) disconnect() {
	if m.tr == nil {
		return
	}
	if err := m.tr.Close(); err != nil {
		m.deps.Log.Warn("close failed", zap.String("port", m.port), zap.Error(err))
	}
	m.deps.Log.Info("disconnected", zap.String("port", m.port))
	m.tr = nil
	m.gen++
	m.pipe.Decoder.Reset()
}

func (m *Model) applyChunk(data []byte) {
	values := m.pipe.Ingest(data)
	if len(values) > 0 {
		m.lastData = m.deps.Now()
	}

	st := m.pipe.Decoder.Stats()
	if st.Malformed > m.malformed {
		m.deps.Log.Debug("malformed tokens dropped",
			zap.Int("count", st.Malformed-m.malformed),
			zap.Int("total", st.Malformed))
	}
	if st.Overflows > m.overflows {
		m.deps.Log.Warn("pending buffer overflow, resyncing",
			zap.Int("limit", m.cfg.MaxPending),
			zap.Int("total", st.Overflows))
	}
	m.malformed, m.overflows = st.Malformed, st.Overflows
}

func (m *Model) setPorts(ports []transport.PortInfo) {
	current := m.selectedPort()
	if m.cfg.Port != "" && !containsPort(ports, m.cfg.Port) {
		ports = append([]transport.PortInfo{{Name: m.cfg.Port}}, ports...)
	}
	m.ports = ports
	m.portIdx = 0
	for i, p := range ports {
		if p.Name == current {
			m.portIdx = i
			break
		}
	}
}

func containsPort(ports []transport.PortInfo, name string) bool {
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (m Model) selectedPort() string {
	if m.portIdx < 0 || m.portIdx >= len(m.ports) {
		return ""
	}
	return m.ports[m.portIdx].Name
}

// snapshot is what the view shows: frozen while paused, live otherwise.
func (m Model) snapshot() series.Snapshot {
	if m.paused {
		return m.frozen
	}
	return m.pipe.Store.Snapshot()
}

// refreeze keeps the paused view in step with Clear and ResetMax.
func (m *Model) refreeze() {
	if m.paused {
		m.frozen = m.pipe.Store.Snapshot()
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(cfg config.Config, deps Deps) error {
	m := New(cfg, deps)
	m.dark = lipgloss.HasDarkBackground()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
