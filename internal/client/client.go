// Package client talks to a running daemon.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/sadopc/focuskit/internal/api"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/lockfile"
	"github.com/sadopc/focuskit/internal/protocol"
)

// ErrDaemonNotRunning means no live daemon could be found. Foreground views
// fall back to offline mode.
var ErrDaemonNotRunning = errors.New("focuskit daemon is not running")

const executableName = "focuskit"

var findProcessFunc = ps.FindProcess

type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// New returns a client for the daemon at baseURL, e.g. http://127.0.0.1:7421.
func New(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Discover reads the lockfile in dir and checks that the recorded pid is a
// live focuskit process.
func Discover(dir string) (*Client, error) {
	info, err := lockfile.Read(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}

	process, err := findProcessFunc(info.PID)
	if err != nil || process == nil {
		return nil, fmt.Errorf("%w: process %d not found", ErrDaemonNotRunning, info.PID)
	}
	if !strings.HasPrefix(process.Executable(), executableName) {
		return nil, fmt.Errorf("%w: process with PID %d is %s", ErrDaemonNotRunning, info.PID, process.Executable())
	}
	return New(fmt.Sprintf("http://127.0.0.1:%d", info.Port), info.Secret), nil
}

// Send posts one command. A response carrying an error is returned as both
// the response and a non-nil error.
func (c *Client) Send(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/command", bytes.NewReader(body))
	if err != nil {
		return protocol.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(api.SecretHeader, c.secret)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return protocol.Response{}, fmt.Errorf("daemon responded with status %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	if res.StatusCode != http.StatusOK {
		return resp, fmt.Errorf("daemon responded with status %d", res.StatusCode)
	}
	return resp, nil
}

// Command sends a request that carries only a command name.
func (c *Client) Command(ctx context.Context, command string) (protocol.Response, error) {
	return c.Send(ctx, protocol.Request{Command: command})
}

// Events streams daemon events until ctx is cancelled or the connection
// drops; the channel is closed then.
func (c *Client) Events(ctx context.Context) (<-chan events.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(api.SecretHeader, c.secret)

	// The stream outlives any request timeout.
	stream := &http.Client{Transport: c.http.Transport}
	res, err := stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("event stream: status %d", res.StatusCode)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer res.Body.Close()
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			var ev events.Event
			if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Healthy reports whether the daemon answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()
	return res.StatusCode == http.StatusOK
}
