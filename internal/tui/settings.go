package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/blocker"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/sound"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/tabs"
	"github.com/sadopc/focuskit/internal/theme"
	"github.com/sadopc/focuskit/internal/timer"
)

// prefs is a snapshot of everything the settings view shows.
type prefs struct {
	notify       bool
	focusMinutes int
	breakMinutes int
	limiter      tabs.Settings
	autoBlock    bool
	sites        []string
	theme        theme.Theme
	sound        sound.Prefs
}

func loadPrefs(kv store.KV) prefs {
	return prefs{
		notify:       store.Value(kv, store.KeyPomodoroNotify, false),
		focusMinutes: store.Value(kv, store.KeyCustomFocusMinutes, timer.DefaultFocusMinutes),
		breakMinutes: store.Value(kv, store.KeyCustomBreakMinutes, timer.DefaultBreakMinutes),
		limiter:      tabs.LoadSettings(kv),
		autoBlock:    store.Value(kv, store.KeyAutoBlockerPref, true),
		sites:        blocker.Sites(kv),
		theme:        theme.Current(kv),
		sound:        sound.LoadPrefs(kv),
	}
}

type settingsModel struct {
	kv     store.KV
	client Commander
	gate   *gate.Gate
	sound  *sound.Manager
	width  int
	height int

	current    prefs
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	notify       *bool
	focusMinutes *string
	breakMinutes *string
	limiterOn    *bool
	maxTabs      *string
	autoBlock    *bool
	sites        *string
	theme        *string
	soundOn      *bool
	soundID      *string
	volume       *string
}

func newSettingsModel(kv store.KV, client Commander, g *gate.Gate, snd *sound.Manager) settingsModel {
	var notify, limiterOn, autoBlock, soundOn bool
	var fm, bm, mt, sites, th, sid, vol string
	return settingsModel{
		kv:           kv,
		client:       client,
		gate:         g,
		sound:        snd,
		notify:       &notify,
		focusMinutes: &fm,
		breakMinutes: &bm,
		limiterOn:    &limiterOn,
		maxTabs:      &mt,
		autoBlock:    &autoBlock,
		sites:        &sites,
		theme:        &th,
		soundOn:      &soundOn,
		soundID:      &sid,
		volume:       &vol,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	current prefs
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{current: loadPrefs(s.kv)}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.current = msg.current
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) pro() bool {
	return s.gate != nil && s.gate.IsEntitled()
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	c := loadPrefs(s.kv)
	*s.notify = c.notify
	*s.focusMinutes = strconv.Itoa(c.focusMinutes)
	*s.breakMinutes = strconv.Itoa(c.breakMinutes)
	*s.limiterOn = c.limiter.Enabled
	*s.maxTabs = strconv.Itoa(c.limiter.MaxTabs)
	*s.autoBlock = c.autoBlock
	*s.sites = strings.Join(c.sites, "\n")
	*s.theme = string(c.theme)
	*s.soundOn = c.sound.Enabled
	*s.soundID = c.sound.Selected
	*s.volume = strconv.Itoa(int(c.sound.Volume * 100))

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewConfirm().Title("Notify when an interval ends").Value(s.notify),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Warn about too many tabs").Value(s.limiterOn),
			huh.NewInput().Title("Max tabs").Value(s.maxTabs).Validate(positiveInt),
		).Title("Tab limiter"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Light", string(theme.Light)),
					huh.NewOption("Dark", string(theme.Dark)),
				).Value(s.theme),
		).Title("Appearance"),
	}

	if s.pro() {
		soundOptions := make([]huh.Option[string], len(sound.Catalog))
		for i, snd := range sound.Catalog {
			soundOptions[i] = huh.NewOption(snd.Name, snd.ID)
		}
		groups = append(groups,
			huh.NewGroup(
				huh.NewInput().Title("Focus (min)").Value(s.focusMinutes).Validate(positiveInt),
				huh.NewInput().Title("Break (min)").Value(s.breakMinutes).Validate(positiveInt),
			).Title("Custom intervals"),
			huh.NewGroup(
				huh.NewConfirm().Title("Block sites during focus").Value(s.autoBlock),
				huh.NewText().Title("Blocked sites (one per line)").Value(s.sites).Validate(validSites),
			).Title("Auto-blocker"),
			huh.NewGroup(
				huh.NewConfirm().Title("Play ambient sound while focusing").Value(s.soundOn),
				huh.NewSelect[string]().Title("Sound").Options(soundOptions...).Value(s.soundID),
				huh.NewInput().Title("Volume (0-100)").Value(s.volume).Validate(validVolume),
			).Title("Focus sounds"),
		)
	}

	s.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save()
	}

	return s, cmd
}

// save applies the form. Values the daemon owns go through it when it is
// reachable so it can validate them and react at once.
func (s settingsModel) save() tea.Cmd {
	next := s.formValues()
	pro := s.pro()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		var errs []error
		if err := s.kv.Set(store.KeyPomodoroNotify, next.notify); err != nil {
			errs = append(errs, err)
		}
		if err := theme.Set(s.kv, next.theme); err != nil {
			errs = append(errs, err)
		}
		if err := s.saveLimiter(ctx, next.limiter); err != nil {
			errs = append(errs, err)
		}
		if pro {
			if err := s.saveIntervals(ctx, next.focusMinutes, next.breakMinutes); err != nil {
				errs = append(errs, err)
			}
			if err := s.kv.Set(store.KeyAutoBlockerPref, next.autoBlock); err != nil {
				errs = append(errs, err)
			}
			if err := s.saveSites(ctx, next.sites); err != nil {
				errs = append(errs, err)
			}
			if err := s.saveSound(next.sound); err != nil {
				errs = append(errs, err)
			}
		}

		if err := errors.Join(errs...); err != nil {
			return statusErr("Settings", err)
		}
		return settingsSavedMsg{}
	}
}

type settingsSavedMsg struct{}

func (s settingsModel) formValues() prefs {
	p := prefs{
		notify:    *s.notify,
		limiter:   tabs.Settings{Enabled: *s.limiterOn},
		autoBlock: *s.autoBlock,
		sites:     splitLines(*s.sites),
		theme:     theme.Theme(*s.theme),
		sound:     sound.Prefs{Enabled: *s.soundOn, Selected: *s.soundID},
	}
	p.limiter.MaxTabs, _ = strconv.Atoi(strings.TrimSpace(*s.maxTabs))
	p.focusMinutes, _ = strconv.Atoi(strings.TrimSpace(*s.focusMinutes))
	p.breakMinutes, _ = strconv.Atoi(strings.TrimSpace(*s.breakMinutes))
	if v, err := strconv.Atoi(strings.TrimSpace(*s.volume)); err == nil {
		p.sound.Volume = float64(v) / 100
	}
	return p
}

func (s settingsModel) saveLimiter(ctx context.Context, ls tabs.Settings) error {
	if s.client == nil {
		return tabs.SaveSettings(s.kv, ls)
	}
	_, err := s.client.Send(ctx, protocol.Request{
		Command:  protocol.UpdateTabLimiterSettings,
		Settings: &tabs.Patch{Enabled: &ls.Enabled, MaxTabs: &ls.MaxTabs},
	})
	return err
}

func (s settingsModel) saveIntervals(ctx context.Context, focus, brk int) error {
	if s.client == nil {
		if focus < 1 || brk < 1 {
			return timer.ErrInvalidDuration
		}
		return s.kv.SetMany(map[string]any{
			store.KeyCustomFocusMinutes: focus,
			store.KeyCustomBreakMinutes: brk,
		})
	}
	_, err := s.client.Send(ctx, protocol.Request{
		Command:   protocol.UpdateIntervals,
		Intervals: &protocol.Intervals{FocusMinutes: focus, BreakMinutes: brk},
	})
	return err
}

func (s settingsModel) saveSites(ctx context.Context, sites []string) error {
	if s.client == nil {
		_, err := blocker.SaveSites(s.kv, sites)
		return err
	}
	_, err := s.client.Send(ctx, protocol.Request{Command: protocol.UpdateBlockedSites, Sites: sites})
	return err
}

func (s settingsModel) saveSound(p sound.Prefs) error {
	if s.sound == nil {
		return nil
	}
	if err := s.sound.Select(p.Selected); err != nil {
		return err
	}
	if err := s.sound.SetVolume(p.Volume); err != nil {
		return err
	}
	return s.sound.SetEnabled(p.Enabled)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	c := s.current
	limiter := "off"
	if c.limiter.Enabled {
		limiter = fmt.Sprintf("on, max %d tabs", c.limiter.MaxTabs)
	}

	rows := []string{title, ""}
	rows = append(rows,
		settingRow("Notifications", onOff(c.notify)),
		settingRow("Tab limiter", limiter),
		settingRow("Theme", string(c.theme)),
	)

	if s.pro() {
		sites := "none"
		if len(c.sites) > 0 {
			sites = strings.Join(c.sites, ", ")
		}
		soundLabel := "off"
		if c.sound.Enabled {
			name := c.sound.Selected
			if snd, ok := sound.Lookup(name); ok {
				name = snd.Name
			}
			soundLabel = fmt.Sprintf("%s at %d%%", name, int(c.sound.Volume*100))
		}
		rows = append(rows,
			settingRow("Intervals", fmt.Sprintf("%d min focus, %d min break", c.focusMinutes, c.breakMinutes)),
			settingRow("Auto-blocker", onOff(c.autoBlock)),
			settingRow("Blocked sites", sites),
			settingRow("Focus sound", soundLabel),
		)
	} else {
		rows = append(rows, "", mutedStyle.Render("  Custom intervals, the auto-blocker and focus sounds need Pro."))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render(label), highlightStyle.Render(value))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number greater than 0")
	}
	return nil
}

func validVolume(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return errors.New("enter a number from 0 to 100")
	}
	return nil
}

func validSites(s string) error {
	for _, site := range splitLines(s) {
		if _, err := blocker.Normalize(site); err != nil {
			return err
		}
	}
	return nil
}
