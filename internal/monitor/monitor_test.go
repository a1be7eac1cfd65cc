package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/luki/weighplot/internal/config"
	"github.com/luki/weighplot/internal/transport"
)

// scriptedPort hands out one queued chunk per Read, then fails with err
// once the queue is empty (if err is set).
type scriptedPort struct {
	chunks []string
	err    error
	closed bool
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if p.closed {
		return 0, transport.ErrClosed
	}
	if len(p.chunks) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *scriptedPort) Close() error { p.closed = true; return nil }
func (p *scriptedPort) Name() string { return "fake" }

func newTestModel(t *testing.T, port *scriptedPort) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Port = "/dev/ttyFAKE"
	cfg.ExportDir = t.TempDir()
	return New(cfg, Deps{
		Open: func(name string, baud int) (transport.Transport, error) {
			if port == nil {
				return nil, errors.New("no such device")
			}
			return port, nil
		},
		ListPorts: func() ([]transport.PortInfo, error) {
			return []transport.PortInfo{{Name: "/dev/ttyUSB0"}}, nil
		},
		Log: zaptest.NewLogger(t),
		Now: func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) },
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// poll runs one tick → read → chunk cycle.
func poll(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, tickMsg{gen: m.gen})
	if cmd == nil {
		t.Fatal("tick produced no read command")
	}
	m, _ = update(t, m, cmd())
	return m
}

func TestConnectAndIngest(t *testing.T) {
	port := &scriptedPort{chunks: []string{"100;5", "0;junk;2", "00;"}}
	m := newTestModel(t, port)

	m, cmd := update(t, m, autoConnectMsg{})
	if !m.Connected() {
		t.Fatalf("not connected, err=%v", m.err)
	}
	if cmd == nil {
		t.Fatal("connect did not schedule a tick")
	}

	for i := 0; i < 3; i++ {
		m = poll(t, m)
	}

	snap := m.Store().Snapshot()
	want := []float64{100, 50, 200}
	if len(snap.Values) != len(want) {
		t.Fatalf("values = %v, want %v", snap.Values, want)
	}
	for i := range want {
		if snap.Values[i] != want[i] || snap.Indices[i] != i {
			t.Errorf("point %d = (%d, %v)", i, snap.Indices[i], snap.Values[i])
		}
	}
	if snap.Last != 200 || snap.Max != 200 {
		t.Errorf("last=%v max=%v", snap.Last, snap.Max)
	}
	if m.malformed != 1 {
		t.Errorf("malformed = %d, want 1", m.malformed)
	}
}

func TestTransportErrorDisconnects(t *testing.T) {
	port := &scriptedPort{chunks: []string{"10;"}, err: errors.New("device unplugged")}
	m := newTestModel(t, port)
	m, _ = update(t, m, autoConnectMsg{})

	m = poll(t, m)
	m = poll(t, m)

	if m.Connected() {
		t.Error("still connected after transport error")
	}
	if !port.closed {
		t.Error("transport not closed")
	}
	if m.err == nil || !strings.Contains(m.err.Error(), "device unplugged") {
		t.Errorf("err = %v", m.err)
	}
	if m.Store().Len() != 1 {
		t.Errorf("samples before the error were lost: %d", m.Store().Len())
	}

	// The loop stops: a stale tick issues nothing.
	if _, cmd := update(t, m, tickMsg{gen: m.gen}); cmd != nil {
		t.Error("tick after disconnect scheduled a read")
	}
}

func TestStaleChunkIgnored(t *testing.T) {
	port := &scriptedPort{}
	m := newTestModel(t, port)
	m, _ = update(t, m, autoConnectMsg{})
	old := m.gen

	m, _ = update(t, m, keyMsg("c")) // disconnect
	m, _ = update(t, m, chunkMsg{gen: old, data: []byte("999;")})
	if m.Store().Len() != 0 {
		t.Error("chunk from a closed connection was applied")
	}
}

func TestOpenFailureShowsError(t *testing.T) {
	m := newTestModel(t, nil)
	m, cmd := update(t, m, autoConnectMsg{})
	if m.Connected() || cmd != nil {
		t.Fatal("connected despite open failure")
	}
	if m.err == nil || !strings.Contains(m.err.Error(), "failed to open port") {
		t.Errorf("err = %v", m.err)
	}
}

func TestResetMaxAndClearKeys(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})
	for _, v := range []float64{300, 100} {
		m.Store().Append(v)
	}

	m, _ = update(t, m, keyMsg("m"))
	if _, ok := m.Store().Max(); ok {
		t.Error("max survived reset")
	}
	if v, _ := m.Store().Last(); v != 100 {
		t.Errorf("last = %v, want 100", v)
	}

	m, _ = update(t, m, keyMsg("x"))
	if m.Store().Len() != 0 {
		t.Error("clear left samples")
	}
	if _, ok := m.Store().Last(); ok {
		t.Error("clear left last value")
	}
}

func TestBaudEditing(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})

	m, _ = update(t, m, keyMsg("b"))
	if !m.editingBaud {
		t.Fatal("baud editor not opened")
	}
	m.baudInput.SetValue("9600")
	m, _ = update(t, m, keyMsg("enter"))
	if m.editingBaud || m.baud != 9600 {
		t.Errorf("baud = %d editing=%v, want 9600", m.baud, m.editingBaud)
	}

	m, _ = update(t, m, keyMsg("b"))
	m.baudInput.SetValue("fast")
	m, _ = update(t, m, keyMsg("enter"))
	if m.baud != 9600 {
		t.Errorf("invalid entry changed baud to %d", m.baud)
	}
	if m.err == nil || !strings.Contains(m.err.Error(), "invalid baud rate") {
		t.Errorf("err = %v", m.err)
	}
}

func TestParseBaud(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"115200", 115200, false},
		{" 9600 ", 9600, false},
		{"", 115200, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBaud(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseBaud(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestPortsRefreshKeepsConfiguredPort(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})
	m, _ = update(t, m, portsMsg{ports: []transport.PortInfo{{Name: "/dev/ttyUSB0"}, {Name: "/dev/ttyUSB1"}}})

	if len(m.ports) != 3 || m.selectedPort() != "/dev/ttyFAKE" {
		t.Fatalf("ports = %+v selected %q", m.ports, m.selectedPort())
	}
	m, _ = update(t, m, keyMsg("tab"))
	if m.selectedPort() != "/dev/ttyUSB0" {
		t.Errorf("tab selected %q", m.selectedPort())
	}
}

func TestNoPortSelected(t *testing.T) {
	cfg := config.Default()
	m := New(cfg, Deps{
		ListPorts: func() ([]transport.PortInfo, error) { return nil, nil },
		Log:       zaptest.NewLogger(t),
	})
	m, _ = update(t, m, keyMsg("c"))
	if !errors.Is(m.err, transport.ErrNoPort) {
		t.Errorf("err = %v, want ErrNoPort", m.err)
	}
}

func TestPauseFreezesView(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})
	m.Store().Append(10)
	m, _ = update(t, m, keyMsg("p"))
	m.Store().Append(20)

	if got := m.snapshot(); len(got.Values) != 1 {
		t.Errorf("paused view has %d values, want 1", len(got.Values))
	}
	m, _ = update(t, m, keyMsg("p"))
	if got := m.snapshot(); len(got.Values) != 2 {
		t.Errorf("live view has %d values, want 2", len(got.Values))
	}
}

func TestExport(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})
	for _, v := range []float64{0, 1200, 1250} {
		m.Store().Append(v)
	}

	m, cmd := update(t, m, keyMsg("e"))
	if cmd == nil {
		t.Fatal("export produced no command")
	}
	m, _ = update(t, m, cmd())
	if m.err != nil {
		t.Fatalf("export error: %v", m.err)
	}

	for _, ext := range []string{"csv", "png"} {
		path := filepath.Join(m.cfg.ExportDir, "weight-20261014-120000."+ext)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing export %s: %v", path, err)
		}
	}
}

func TestViewRendersReadouts(t *testing.T) {
	m := newTestModel(t, &scriptedPort{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()
	if !strings.Contains(out, "--- kg") {
		t.Error("empty view should show the placeholder")
	}
	if !strings.Contains(out, "Disconnected") {
		t.Error("status should read Disconnected")
	}

	m.Store().Append(1230)
	m.Store().Append(2500)
	out = m.View()
	if !strings.Contains(out, "2.50 kg") {
		t.Error("view missing 2.50 kg readout")
	}
	if !strings.Contains(out, "LAST") || !strings.Contains(out, "MAX") {
		t.Error("view missing LAST/MAX panels")
	}
	if !strings.Contains(out, "avg") {
		t.Error("view missing window summary")
	}
}

func TestQuitClosesTransport(t *testing.T) {
	port := &scriptedPort{}
	m := newTestModel(t, port)
	m, _ = update(t, m, autoConnectMsg{})
	_, cmd := update(t, m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not yield QuitMsg")
	}
	if !port.closed {
		t.Error("transport left open on quit")
	}
}
