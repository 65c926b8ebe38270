package app

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/internal/readings"
	"github.com/klabast/wb-services/abfall-fhem/internal/source"
	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

// Module is one defined waste calendar device. All session state lives here
// and is guarded by mu, so the update loop, the day switch loop and fetches
// never interleave their writes.
type Module struct {
	name     string
	store    readings.Store
	registry *source.Registry
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) bool

	mu           sync.Mutex
	ctx          context.Context
	attrs        config.Attributes
	sources      []config.SourceDefinition // definitions of the last successful fetch
	shells       []*waste.SourceShell
	fetchNeeded  bool
	fetching     bool
	includeToday bool
	locations    map[string]LocationEntry
	upcoming     []UpcomingEvent
	ical         string

	loopMu          sync.Mutex
	running         bool
	cancelUpdate    context.CancelFunc
	cancelDaySwitch context.CancelFunc
	wg              sync.WaitGroup
}

// Option configures a Module
type Option func(*Module)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Module) { m.now = now }
}

// WithRegistry sets the source providers available to the Sources attribute
func WithRegistry(r *source.Registry) Option {
	return func(m *Module) { m.registry = r }
}

// NewModule creates a module named name that publishes its readings to store
func NewModule(name string, attrs config.Attributes, store readings.Store, opts ...Option) *Module {
	m := &Module{
		name:         name,
		store:        store,
		registry:     source.Builtin(),
		now:          time.Now,
		sleep:        sleepCtx,
		ctx:          context.Background(),
		attrs:        attrs,
		includeToday: true,
		locations:    make(map[string]LocationEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the device name
func (m *Module) Name() string {
	return m.name
}

// Store returns the reading store of the module
func (m *Module) Store() readings.Store {
	return m.store
}

// Define initializes the readings and starts the day switch and update
// loops. The loops run until ctx is cancelled or Close is called.
func (m *Module) Define(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.fetchNeeded = true
	err := m.store.Update(ctx, map[string]string{ReadingState: StateInitialized})
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.loopMu.Lock()
	m.running = true
	m.loopMu.Unlock()

	logging.Debug(subsystem, "Defined %s, events are fetched on the first update", m.name)
	m.startDaySwitchLoop()
	m.startUpdateLoop()
	return nil
}

// Close stops both loops and waits for running fetches
func (m *Module) Close() {
	m.loopMu.Lock()
	m.running = false
	if m.cancelUpdate != nil {
		m.cancelUpdate()
		m.cancelUpdate = nil
	}
	if m.cancelDaySwitch != nil {
		m.cancelDaySwitch()
		m.cancelDaySwitch = nil
	}
	m.loopMu.Unlock()
	m.wg.Wait()
}

// Now returns the module clock's current time
func (m *Module) Now() time.Time {
	return m.now()
}

// ICalendar returns the calendar of the last update pass
func (m *Module) ICalendar() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ical
}

// Upcoming returns the events of the last update pass
func (m *Module) Upcoming() []UpcomingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.upcoming)
}

// Locations returns a copy of the waste type lookup table
func (m *Module) Locations() map[string]LocationEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.locations)
}

// IncludeToday reports whether collections of today still count as upcoming
func (m *Module) IncludeToday() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.includeToday
}

// StateText renders the device state from the next readings, e.g.
// "Biotonne wird morgen abgeholt!". Without next readings the plain state
// is returned.
func (m *Module) StateText(ctx context.Context) (string, error) {
	text, ok, err := m.store.Get(ctx, ReadingNext+"_text")
	if err != nil {
		return "", err
	}
	if !ok {
		state, _, err := m.store.Get(ctx, ReadingState)
		return state, err
	}
	days, _, err := m.store.Get(ctx, ReadingNext+"_days")
	if err != nil {
		return "", err
	}
	return stateText(text, days), nil
}

func stateText(text, days string) string {
	n, err := strconv.Atoi(days)
	if err != nil {
		n = 0
	}
	switch n {
	case 0:
		return text + " wird heute abgeholt!!!"
	case 1:
		return text + " wird morgen abgeholt!"
	default:
		return text + " wird in " + strconv.Itoa(n) + " Tagen abgeholt"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
