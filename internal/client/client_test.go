package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/go-ps"

	"github.com/sadopc/focuskit/internal/api"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/lockfile"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/timer"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withFindProcess(t *testing.T, fn func(int) (ps.Process, error)) {
	t.Helper()
	old := findProcessFunc
	findProcessFunc = fn
	t.Cleanup(func() { findProcessFunc = old })
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	if _, err := Discover(dir); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("no lockfile: err = %v, want ErrDaemonNotRunning", err)
	}

	if err := lockfile.Write(dir, lockfile.Info{Port: 7421, PID: 99, Secret: "s"}); err != nil {
		t.Fatal(err)
	}

	withFindProcess(t, func(int) (ps.Process, error) { return nil, nil })
	if _, err := Discover(dir); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("dead pid: err = %v", err)
	}

	withFindProcess(t, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "other-app"}, nil
	})
	if _, err := Discover(dir); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("foreign pid: err = %v", err)
	}

	withFindProcess(t, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "focuskit"}, nil
	})
	c, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() = %v", err)
	}
	if c.baseURL != "http://127.0.0.1:7421" || c.secret != "s" {
		t.Fatalf("client = %+v", c)
	}
}

type fakeDaemon struct{}

func (fakeDaemon) Dispatch(_ context.Context, req protocol.Request) protocol.Response {
	switch req.Command {
	case protocol.GetTimerState:
		return protocol.Response{Status: string(timer.StatusCurrent), State: &timer.Snapshot{FocusMode: true, SecondsLeft: 1500}}
	case protocol.UpdateBlockedSites:
		return protocol.Response{Status: protocol.StatusBlockedSitesUpdated, Sites: req.Sites}
	}
	return protocol.Failure(errors.New("unknown command"))
}

func newTestServer(t *testing.T) (*httptest.Server, *events.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := events.NewHub()
	srv := httptest.NewServer(api.NewRouter(fakeDaemon{}, hub, "secret"))
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestSend(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL, "secret")
	ctx := context.Background()

	resp, err := c.Command(ctx, protocol.GetTimerState)
	if err != nil {
		t.Fatal(err)
	}
	if resp.State == nil || resp.State.SecondsLeft != 1500 {
		t.Fatalf("state = %+v", resp.State)
	}

	resp, err = c.Send(ctx, protocol.Request{Command: protocol.UpdateBlockedSites, Sites: []string{"example.com"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Sites) != 1 || resp.Sites[0] != "example.com" {
		t.Fatalf("sites = %v", resp.Sites)
	}

	if _, err := c.Command(ctx, "bogus"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("bogus command err = %v", err)
	}
}

func TestSendWrongSecret(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL, "nope")
	if _, err := c.Command(context.Background(), protocol.GetTimerState); err == nil {
		t.Fatal("expected an error for a rejected secret")
	}
}

func TestSendNoDaemon(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL
	srv.Close()

	c := New(url, "secret")
	if _, err := c.Command(context.Background(), protocol.GetTimerState); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("err = %v, want ErrDaemonNotRunning", err)
	}
}

func TestHealthy(t *testing.T) {
	srv, _ := newTestServer(t)
	if !New(srv.URL, "").Healthy(context.Background()) {
		t.Fatal("Healthy() = false")
	}
}

func TestEvents(t *testing.T) {
	srv, hub := newTestServer(t)
	c := New(srv.URL, "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Events(ctx)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Listeners() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Broadcast(events.TimerEnded, timer.Snapshot{FocusMode: false, SecondsLeft: 300})

	select {
	case ev := <-ch:
		if ev.Command != events.TimerEnded {
			t.Fatalf("command = %q", ev.Command)
		}
		if !strings.Contains(string(ev.Payload), `"time_left":300`) {
			t.Fatalf("payload = %s", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A buffered event may still arrive; the channel must close next.
			<-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
