// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/kiosk/internal/clock"
	"github.com/ManuGH/kiosk/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// sha256 of "secret"
const secretHash = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"

type call struct {
	op      string
	view    string
	name    string
	value   bool
	payload map[string]any
}

type fakeDisplay struct {
	mu    sync.Mutex
	calls []call
}

func (d *fakeDisplay) record(c call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}

func (d *fakeDisplay) Attach(v View)   { d.record(call{op: "attach", view: v.ID}) }
func (d *fakeDisplay) DetachAll()      { d.record(call{op: "detach-all"}) }
func (d *fakeDisplay) ShowLockScreen() { d.record(call{op: "lock-screen"}) }
func (d *fakeDisplay) HideLockScreen() { d.record(call{op: "unlock-screen"}) }
func (d *fakeDisplay) OpenDialog(dl Dialog, payload map[string]any) {
	d.record(call{op: "dialog-open", name: string(dl), payload: payload})
}
func (d *fakeDisplay) CloseDialog(dl Dialog) { d.record(call{op: "dialog-close", name: string(dl)}) }
func (d *fakeDisplay) Signal(v View, name string, value bool) {
	d.record(call{op: "signal", view: v.ID, name: name, value: value})
}
func (d *fakeDisplay) Broadcast(name string, payload map[string]any) {
	d.record(call{op: "broadcast", name: name, payload: payload})
}

func (d *fakeDisplay) attaches() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, c := range d.calls {
		if c.op == "attach" {
			out = append(out, c.view)
		}
	}
	return out
}

func (d *fakeDisplay) count(op, name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.op == op && (name == "" || c.name == name) {
			n++
		}
	}
	return n
}

func (d *fakeDisplay) last(op string) (call, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i].op == op {
			return d.calls[i], true
		}
	}
	return call{}, false
}

// fakeQuerier answers synchronously with playing unless manual is set, in
// which case callbacks are held until answer is called.
type fakeQuerier struct {
	mu      sync.Mutex
	playing bool
	manual  bool
	pending []func(bool, error)
	queries int
}

func (p *fakeQuerier) QueryMedia(_ context.Context, _ View, done func(bool, error)) {
	p.mu.Lock()
	p.queries++
	if p.manual {
		p.pending = append(p.pending, done)
		p.mu.Unlock()
		return
	}
	playing := p.playing
	p.mu.Unlock()
	done(playing, nil)
}

func (p *fakeQuerier) setPlaying(v bool) {
	p.mu.Lock()
	p.playing = v
	p.mu.Unlock()
}

func (p *fakeQuerier) answer(playing bool) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, done := range pending {
		done(playing, nil)
	}
}

type fakeFlag struct {
	mu       sync.Mutex
	present  bool
	consumed int
}

func (f *fakeFlag) Consume() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.present
	if p {
		f.consumed++
	}
	f.present = false
	return p, nil
}

func (f *fakeFlag) raise() {
	f.mu.Lock()
	f.present = true
	f.mu.Unlock()
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []string
}

func (a *fakeAuditor) add(e string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *fakeAuditor) Locked(reason string, _ time.Time) { a.add("locked:" + reason) }
func (a *fakeAuditor) Unlocked(time.Time)                { a.add("unlocked") }
func (a *fakeAuditor) UnlockFailed(time.Time)            { a.add("unlock-failed") }
func (a *fakeAuditor) HiddenAccess(granted bool, reason string, _ time.Time) {
	a.add(fmt.Sprintf("hidden:%t:%s", granted, reason))
}
func (a *fakeAuditor) PowerAction(action, result string, _ time.Time) {
	a.add("power:" + action + ":" + result)
}

type fakePower struct {
	mu      sync.Mutex
	actions []PowerAction
}

func (p *fakePower) Execute(_ context.Context, a PowerAction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, a)
	return nil
}

// testSettings builds a snapshot with one site per duration.
func testSettings(durations ...int) config.Settings {
	s := config.Defaults()
	for i, d := range durations {
		s.Sites = append(s.Sites, config.Site{
			Index:    i,
			URL:      fmt.Sprintf("https://site%d.example", i),
			Duration: d,
		})
	}
	return s
}

func withLockout(s config.Settings, timeout time.Duration) config.Settings {
	s.Lockout.Enabled = true
	s.Lockout.PasswordHash = secretHash
	s.Lockout.Timeout = timeout
	return s
}

type harness struct {
	c       *Controller
	clk     *clock.Manual
	display *fakeDisplay
	querier *fakeQuerier
	auditor *fakeAuditor
	power   *fakePower
	boot    *fakeFlag
	wake    *fakeFlag
}

func newHarness(t *testing.T, s config.Settings, mutate ...func(*harness)) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewManual(testStart),
		display: &fakeDisplay{},
		querier: &fakeQuerier{},
		auditor: &fakeAuditor{},
		power:   &fakePower{},
		boot:    &fakeFlag{},
		wake:    &fakeFlag{},
	}
	for _, m := range mutate {
		m(h)
	}
	logger := zerolog.New(io.Discard)
	c, err := New(Options{
		Settings: s,
		Clock:    h.clk,
		Display:  h.display,
		Querier:  h.querier,
		Auditor:  h.auditor,
		Power:    h.power,
		BootFlag: h.boot,
		WakeFlag: h.wake,
		Logger:   &logger,
	})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	h.c = c
	return h
}

// step advances the clock one second at a time, ticking after each second.
func (h *harness) step(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += time.Second {
		h.clk.Advance(time.Second)
		h.c.Tick()
	}
}

// at jumps to testStart+offset and ticks once.
func (h *harness) at(offset time.Duration) {
	h.clk.Set(testStart.Add(offset))
	h.c.Tick()
}

func (h *harness) send(name CommandName) error {
	return h.c.Dispatch(Command{Name: name})
}

func (h *harness) elapsed() time.Duration { return h.clk.Now().Sub(testStart) }
