package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/prefs"
	"github.com/clouxart/breathe/internal/sound"
)

// Engine is the cycle engine the App controls.
type Engine interface {
	Start() error
	Stop() (breath.Summary, error)
	Pause() error
	Resume() error
	TogglePause() error
	SetPattern(p pattern.Pattern) error
	Snapshot() breath.Snapshot
}

// PrefsStore persists settings changed in the UI.
type PrefsStore interface {
	SetPattern(ctx context.Context, index int) error
	SetCustom(ctx context.Context, p pattern.Pattern) error
	SetSound(ctx context.Context, cfg sound.Config) error
	ResetBreaths(ctx context.Context) error
}

// SoundController receives sound setting changes and previews.
type SoundController interface {
	UpdateConfig(cfg sound.Config)
	Preview(kind sound.SoundType) error
	PreviewAmbient(kind sound.AmbientType) error
}

// Options configures an App.
type Options struct {
	Engine  Engine
	Store   PrefsStore
	Sound   SoundController
	Library *pattern.Library
	Initial prefs.Prefs
	// RefreshRate is the orb animation frame interval.
	RefreshRate time.Duration
	Context     context.Context
}

// App is the main bubbletea model for the breathe TUI.
type App struct {
	ctx     context.Context
	engine  Engine
	store   PrefsStore
	sound   SoundController
	library *pattern.Library

	patternIndex int
	custom       pattern.Pattern
	soundCfg     sound.Config
	totalBreaths int
	snapshot     breath.Snapshot

	settingsOpen bool
	// pausedBySettings is set when opening settings paused the session, so
	// closing them resumes it.
	pausedBySettings bool

	width       int
	height      int
	refreshRate time.Duration

	keys     KeyMap
	header   *Header
	orb      *Orb
	bar      progress.Model
	stats    *StatsView
	settings *Settings
	footer   *Footer

	labelStyle     lipgloss.Style
	countdownStyle lipgloss.Style
	dimStyle       lipgloss.Style
}

// NewApp creates the App.
func NewApp(opts Options) *App {
	if opts.Library == nil {
		opts.Library = pattern.NewLibrary(nil)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = 50 * time.Millisecond
	}
	if opts.Sound == nil {
		opts.Sound = nopSound{}
	}

	a := &App{
		ctx:          opts.Context,
		engine:       opts.Engine,
		store:        opts.Store,
		sound:        opts.Sound,
		library:      opts.Library,
		patternIndex: opts.Initial.PatternIndex,
		custom:       opts.Initial.Custom,
		soundCfg:     opts.Initial.Sound,
		totalBreaths: opts.Initial.TotalBreaths,
		refreshRate:  opts.RefreshRate,
		width:        80,
		height:       24,

		keys:     DefaultKeyMap(),
		header:   NewHeader(),
		orb:      NewOrb(6),
		bar:      progress.New(progress.WithGradient("#4ECDC4", "#96E6A1"), progress.WithoutPercentage()),
		stats:    NewStatsView(),
		settings: NewSettings(),
		footer:   NewFooter(),

		labelStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		countdownStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4")),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
	if a.patternIndex >= a.library.Len() || a.patternIndex < 0 {
		a.patternIndex = 0
	}
	if a.engine != nil {
		a.snapshot = a.engine.Snapshot()
	}
	a.resize(a.width, a.height)
	return a
}

// NewProgram wraps app in a bubbletea program.
func NewProgram(app *App, altScreen bool) *tea.Program {
	var opts []tea.ProgramOption
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(app, opts...)
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.frame()
}

func (a *App) frame() tea.Cmd {
	return tea.Tick(a.refreshRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case frameMsg:
		if a.engine != nil {
			a.snapshot = a.engine.Snapshot()
		}
		return a, a.frame()

	case EngineEventMsg:
		a.handleEvent(msg.Event)
		return a, nil

	case TotalBreathsMsg:
		a.totalBreaths = msg.Total
		return a, nil

	case PatternsReloadedMsg:
		a.reloadPatterns(msg)
		return a, nil

	case tea.KeyMsg:
		if a.settingsOpen {
			return a, a.handleSettingsKey(msg)
		}
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleEvent(ev breath.Event) {
	a.snapshot = ev.Snapshot
	switch ev.Type {
	case breath.EventStarted:
		a.footer.SetMessage("", false)
	case breath.EventStopped:
		if ev.Summary != nil {
			a.footer.SetMessage(fmt.Sprintf("Session complete: %d breaths in %s",
				ev.Summary.Cycles, FormatClock(ev.Summary.Seconds)), false)
		}
	}
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.stopSession()
		return tea.Quit

	case key.Matches(msg, a.keys.StartStop):
		if a.snapshot.Running {
			a.stopSession()
		} else {
			a.report(a.engine.Start())
		}
		a.refresh()

	case key.Matches(msg, a.keys.Pause):
		if a.snapshot.Running {
			a.report(a.engine.TogglePause())
			a.refresh()
		}

	case key.Matches(msg, a.keys.Pattern):
		a.selectPattern(a.library.Next(a.patternIndex))

	case key.Matches(msg, a.keys.Settings):
		a.openSettings()

	case key.Matches(msg, a.keys.Reset):
		if err := a.store.ResetBreaths(a.ctx); err != nil {
			a.report(err)
		} else {
			a.totalBreaths = 0
			a.footer.SetMessage("Total breaths reset", false)
		}
	}
	return nil
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	st := a.settingsState()
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.stopSession()
		return tea.Quit
	case key.Matches(msg, a.keys.Close):
		a.closeSettings()
	case key.Matches(msg, a.keys.Up):
		a.settings.Move(-1, st)
	case key.Matches(msg, a.keys.Down):
		a.settings.Move(1, st)
	case key.Matches(msg, a.keys.Left):
		a.adjust(-1)
	case key.Matches(msg, a.keys.Right):
		a.adjust(1)
	case key.Matches(msg, a.keys.StartStop), key.Matches(msg, a.keys.Preview):
		a.activate()
	}
	return nil
}

func (a *App) openSettings() {
	a.settingsOpen = true
	a.keys.settingsOpen = true
	a.settings.Reset()
	if a.snapshot.Running && !a.snapshot.Paused {
		if err := a.engine.Pause(); err == nil {
			a.pausedBySettings = true
		}
		a.refresh()
	}
}

func (a *App) closeSettings() {
	a.settingsOpen = false
	a.keys.settingsOpen = false
	if a.pausedBySettings {
		a.pausedBySettings = false
		a.report(a.engine.Resume())
		a.refresh()
	}
}

// adjust applies a ←/→ press to the selected settings row.
func (a *App) adjust(delta int) {
	switch row := a.settings.Current(a.settingsState()); row {
	case rowPattern:
		n := a.library.Len()
		a.selectPattern(((a.patternIndex+delta)%n + n) % n)
	case rowInhale, rowHold1, rowExhale, rowHold2:
		ph := durationRows[row]
		d := a.custom.Duration(ph) + delta
		if d < 0 || d > pattern.MaxCustomSeconds {
			return
		}
		custom := a.custom.WithDuration(ph, d)
		if err := custom.ValidateCustom(); err != nil {
			a.report(err)
			return
		}
		a.custom = custom
		a.report(a.store.SetCustom(a.ctx, custom))
		a.applyPattern()
	case rowSound:
		a.soundCfg.Enabled = !a.soundCfg.Enabled
		a.saveSound()
	case rowIndicator:
		a.soundCfg.PhaseIndicator = cycleSound(a.soundCfg.PhaseIndicator, delta)
		a.saveSound()
	case rowIndicatorVolume:
		a.soundCfg.IndicatorVolume = stepVolume(a.soundCfg.IndicatorVolume, delta)
		a.saveSound()
	case rowAmbient:
		a.soundCfg.Ambient = cycleAmbient(a.soundCfg.Ambient, delta)
		a.saveSound()
	case rowAmbientVolume:
		a.soundCfg.AmbientVolume = stepVolume(a.soundCfg.AmbientVolume, delta)
		a.saveSound()
	}
}

// activate handles enter/space on the selected row.
func (a *App) activate() {
	switch a.settings.Current(a.settingsState()) {
	case rowSound:
		a.soundCfg.Enabled = !a.soundCfg.Enabled
		a.saveSound()
	case rowIndicator:
		a.report(a.sound.Preview(a.soundCfg.PhaseIndicator))
	case rowAmbient:
		a.report(a.sound.PreviewAmbient(a.soundCfg.Ambient))
	}
}

func (a *App) saveSound() {
	a.soundCfg = a.soundCfg.Normalize()
	a.sound.UpdateConfig(a.soundCfg)
	a.report(a.store.SetSound(a.ctx, a.soundCfg))
}

func (a *App) selectPattern(index int) {
	a.patternIndex = index
	a.report(a.store.SetPattern(a.ctx, index))
	a.applyPattern()
}

// applyPattern hands the selected pattern to the engine. A running session
// restarts its cycle at inhale.
func (a *App) applyPattern() {
	p := a.library.Resolve(a.patternIndex, a.custom)
	a.report(a.engine.SetPattern(p))
	a.refresh()
}

func (a *App) reloadPatterns(msg PatternsReloadedMsg) {
	if msg.Err != nil {
		a.footer.SetMessage("Pattern file: "+msg.Err.Error(), true)
		return
	}
	current := a.library.Resolve(a.patternIndex, a.custom)
	a.library = pattern.NewLibrary(msg.Patterns)
	if a.patternIndex >= a.library.Len() {
		a.patternIndex = 0
		a.report(a.store.SetPattern(a.ctx, 0))
	}
	if next := a.library.Resolve(a.patternIndex, a.custom); next != current {
		a.applyPattern()
	}
	a.footer.SetMessage(fmt.Sprintf("Loaded %d patterns", a.library.Len()), false)
}

func (a *App) stopSession() {
	if !a.snapshot.Running {
		return
	}
	if _, err := a.engine.Stop(); err != nil {
		a.report(err)
	}
	a.pausedBySettings = false
}

func (a *App) refresh() {
	a.snapshot = a.engine.Snapshot()
}

func (a *App) report(err error) {
	if err != nil {
		a.footer.SetMessage(err.Error(), true)
	}
}

func (a *App) settingsState() settingsState {
	return settingsState{
		patterns:     a.library.All(a.custom),
		patternIndex: a.patternIndex,
		custom:       a.custom,
		sound:        a.soundCfg,
	}
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.header.SetWidth(width)
	a.footer.SetWidth(width)
	a.settings.SetWidth(width)

	barWidth := width / 2
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth < 10 {
		barWidth = 10
	}
	a.bar.Width = barWidth

	// Leave room for header, label, countdown, bar, stats and footer.
	radius := (height - a.header.Height() - 9) / 2
	if radius > 8 {
		radius = 8
	}
	a.orb.SetRadius(radius)
}

// View implements tea.Model.
func (a *App) View() string {
	pat := a.snapshot.Pattern
	if pat.Name == "" {
		pat = a.library.Resolve(a.patternIndex, a.custom)
	}

	var body string
	if a.settingsOpen {
		body = a.settings.View(a.settingsState())
	} else {
		body = a.breathingView()
	}

	keys := a.keys
	keys.StartStop.SetHelp("space", "start")
	if a.snapshot.Running {
		keys.StartStop.SetHelp("space", "stop")
	}
	if a.snapshot.Paused {
		keys.Pause.SetHelp("p", "resume")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		a.header.View(pat),
		body,
		"",
		a.stats.View(a.snapshot, a.totalBreaths),
		"",
		a.footer.View(keys),
	)
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, content)
}

func (a *App) breathingView() string {
	s := a.snapshot

	label := s.Label
	if s.Paused {
		label = "Paused"
	}
	countdown := ""
	phaseInfo := ""
	if s.Running {
		countdown = fmt.Sprintf("%d", s.Countdown)
		phaseInfo = fmt.Sprintf("%d/%d", s.PhaseIndex, s.PhaseTotal)
	} else {
		countdown = a.dimStyle.Render("press space to begin")
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		a.orb.View(s),
		"",
		a.labelStyle.Render(label),
		a.countdownStyle.Render(countdown),
		a.dimStyle.Render(phaseInfo),
		a.bar.ViewAs(s.Progress),
	)
}

func cycleSound(cur sound.SoundType, delta int) sound.SoundType {
	n := len(sound.SoundTypes)
	for i, t := range sound.SoundTypes {
		if t == cur {
			return sound.SoundTypes[((i+delta)%n+n)%n]
		}
	}
	return sound.SoundTypes[0]
}

func cycleAmbient(cur sound.AmbientType, delta int) sound.AmbientType {
	n := len(sound.AmbientTypes)
	for i, t := range sound.AmbientTypes {
		if t == cur {
			return sound.AmbientTypes[((i+delta)%n+n)%n]
		}
	}
	return sound.AmbientTypes[0]
}

func stepVolume(v float64, delta int) float64 {
	v += float64(delta) * volumeStep
	// round to one decimal so repeated steps land on 0 and 1 exactly
	v = float64(int(v*10+0.5)) / 10
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type nopSound struct{}

func (nopSound) UpdateConfig(sound.Config)              {}
func (nopSound) Preview(sound.SoundType) error          { return nil }
func (nopSound) PreviewAmbient(sound.AmbientType) error { return nil }
