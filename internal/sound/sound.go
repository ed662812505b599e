// Package sound plays looping ambient audio during Pro focus intervals.
package sound

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

const (
	DefaultSound  = "lofi"
	DefaultVolume = 0.5
)

var ErrUnknownSound = errors.New("unknown sound")

type Sound struct {
	ID   string
	Name string
}

// Catalog lists the bundled sounds in display order.
var Catalog = []Sound{
	{ID: "lofi", Name: "Lo-fi Beats"},
	{ID: "rain", Name: "Rain"},
	{ID: "cafe", Name: "Café Ambience"},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Sound, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Sound{}, false
}

type Prefs struct {
	Enabled  bool    `json:"enabled"`
	Selected string  `json:"selected"`
	Volume   float64 `json:"volume"`
}

func LoadPrefs(kv store.KV) Prefs {
	return Prefs{
		Enabled:  store.Value(kv, store.KeySoundEnabled, false),
		Selected: store.Value(kv, store.KeySoundSelected, DefaultSound),
		Volume:   clamp(store.Value(kv, store.KeySoundVolume, DefaultVolume)),
	}
}

// Player renders one looping file at a time.
type Player interface {
	Play(path string, volume float64) error
	Stop() error
}

type Entitlement interface {
	IsEntitled() bool
}

type Manager struct {
	kv     store.KV
	gate   Entitlement
	player Player
	dir    string

	mu      sync.Mutex
	playing string
}

// NewManager returns a Manager reading sound files from dir as <id>.mp3.
func NewManager(kv store.KV, g Entitlement, player Player, dir string) *Manager {
	return &Manager{kv: kv, gate: g, player: player, dir: dir}
}

func (m *Manager) Prefs() Prefs {
	return LoadPrefs(m.kv)
}

// Playing returns the id of the sound currently playing, or "".
func (m *Manager) Playing() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Play starts the selected sound. It stops playback instead when the user
// is not Pro or sounds are disabled. An unknown selection falls back to the
// default sound and the fallback is saved.
func (m *Manager) Play() error {
	if m.gate == nil || !m.gate.IsEntitled() {
		m.Pause()
		return gate.ErrNotEntitled
	}
	prefs := m.Prefs()
	if !prefs.Enabled {
		m.Pause()
		return nil
	}

	if _, ok := Lookup(prefs.Selected); !ok {
		logger.Warn("selected sound not found, using default", "sound", prefs.Selected)
		prefs.Selected = DefaultSound
		if err := m.kv.Set(store.KeySoundSelected, DefaultSound); err != nil {
			logger.Warn("save sound fallback", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing == prefs.Selected {
		return nil
	}
	m.stopLocked()

	path := filepath.Join(m.dir, prefs.Selected+".mp3")
	if err := m.player.Play(path, prefs.Volume); err != nil {
		return fmt.Errorf("play %s: %w", prefs.Selected, err)
	}
	m.playing = prefs.Selected
	logger.Debug("playing sound", "sound", prefs.Selected, "volume", prefs.Volume)
	return nil
}

// Pause stops playback.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) SetEnabled(enabled bool) error {
	if err := m.kv.Set(store.KeySoundEnabled, enabled); err != nil {
		return fmt.Errorf("save sound enabled: %w", err)
	}
	if !enabled {
		m.Pause()
	}
	return nil
}

// Select changes the sound, switching tracks when something is playing.
func (m *Manager) Select(id string) error {
	if _, ok := Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSound, id)
	}
	if err := m.kv.Set(store.KeySoundSelected, id); err != nil {
		return fmt.Errorf("save sound selection: %w", err)
	}
	if m.Playing() != "" {
		return m.Play()
	}
	return nil
}

// SetVolume stores v clamped to [0, 1] and restarts playback at the new
// level when something is playing.
func (m *Manager) SetVolume(v float64) error {
	if math.IsNaN(v) {
		return errors.New("invalid volume")
	}
	if err := m.kv.Set(store.KeySoundVolume, clamp(v)); err != nil {
		return fmt.Errorf("save volume: %w", err)
	}
	if m.Playing() != "" {
		m.Pause()
		return m.Play()
	}
	return nil
}

func (m *Manager) stopLocked() {
	if m.playing == "" {
		return
	}
	if err := m.player.Stop(); err != nil {
		logger.Warn("stop sound", "error", err)
	}
	m.playing = ""
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ExecPlayer plays through an external audio command. Command is split on
// spaces; {file} is replaced with the sound path and {volume} with 0-100.
// The command itself is responsible for looping, e.g.
// "ffplay -nodisp -loglevel quiet -loop 0 -volume {volume} {file}".
type ExecPlayer struct {
	Command string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (p *ExecPlayer) Args(path string, volume float64) []string {
	fields := strings.Fields(p.Command)
	vol := strconv.Itoa(int(math.Round(clamp(volume) * 100)))
	for i, f := range fields {
		f = strings.ReplaceAll(f, "{file}", path)
		fields[i] = strings.ReplaceAll(f, "{volume}", vol)
	}
	return fields
}

func (p *ExecPlayer) Play(path string, volume float64) error {
	args := p.Args(path, volume)
	if len(args) == 0 {
		return errors.New("no sound player command configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		p.kill()
	}
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd
	go cmd.Wait()
	return nil
}

func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kill()
}

func (p *ExecPlayer) kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		p.cmd = nil
		return nil
	}
	err := p.cmd.Process.Kill()
	p.cmd = nil
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
