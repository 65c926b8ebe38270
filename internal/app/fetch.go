package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

// Fetch creates the source shells from the Sources attribute, fetches all
// of them and runs an update pass. On failure the state reading reports the
// broken definition and the next update pass retries.
func (m *Module) Fetch(ctx context.Context) error {
	m.mu.Lock()
	if m.fetching {
		m.mu.Unlock()
		return errFetchRunning
	}
	m.fetching = true
	m.mu.Unlock()
	return m.fetch(ctx)
}

// startFetchLocked runs fetch in the background unless one is already running
func (m *Module) startFetchLocked() {
	if m.fetching {
		logging.Debug(fetchSubsystem, "Fetch already running")
		return
	}
	m.fetching = true
	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = m.fetch(ctx)
	}()
}

// fetch does the network I/O without holding mu and commits the result
// under it. The caller must have set m.fetching.
func (m *Module) fetch(ctx context.Context) error {
	m.mu.Lock()
	defs := m.attrs.Sources
	m.mu.Unlock()

	shells, refreshed, err := m.fetchShells(ctx, defs)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetching = false

	if err != nil {
		logging.Error(fetchSubsystem, err, "Fetching events failed")
		m.fetchNeeded = true
		m.setFetchFailedLocked(ctx)
		return &Error{Kind: KindFetch, Op: "fetch", Err: err}
	}

	m.shells = shells
	m.sources = defs
	m.fetchNeeded = false
	logging.Info(fetchSubsystem, "Fetched new events from %d sources", len(shells))
	if err := m.store.Update(ctx, map[string]string{
		ReadingLastEventUpdate: refreshed.Format(LastEventUpdateLayout),
	}); err != nil {
		return err
	}

	return m.updateLocked(ctx)
}

func (m *Module) setFetchFailedLocked(ctx context.Context) {
	if err := m.store.Update(ctx, map[string]string{
		ReadingState:           StateNoSources,
		ReadingLastEventUpdate: m.now().Format(LastEventUpdateLayout),
	}); err != nil {
		logging.Error(fetchSubsystem, err, "Failed to record fetch failure")
	}
}

// fetchShells creates one shell per definition and fetches it. It returns
// the refresh time of the last shell.
func (m *Module) fetchShells(ctx context.Context, defs []config.SourceDefinition) ([]*waste.SourceShell, time.Time, error) {
	if len(defs) == 0 {
		return nil, time.Time{}, &Error{Kind: KindConfig, Op: "sources", Err: errors.New("no sources configured")}
	}

	shells := make([]*waste.SourceShell, 0, len(defs))
	for i, def := range defs {
		shell, err := m.registry.NewShell(def.Name, def.Args, def.Location, i, customizeMap(def.Customize))
		if err != nil {
			return nil, time.Time{}, &Error{Kind: KindConfig, Op: "source " + def.Name, Err: err}
		}
		shells = append(shells, shell)
	}

	var refreshed time.Time
	for _, shell := range shells {
		if err := shell.Fetch(ctx, m.now()); err != nil {
			return nil, time.Time{}, fmt.Errorf("source %d: %w", shell.Index(), err)
		}
		refreshed = shell.RefreshTime
		logging.Debug(fetchSubsystem, "Fetched %d collections from %s", len(shell.Collections), shell.Name)
	}
	return shells, refreshed, nil
}

func customizeMap(defs []config.CustomizeDefinition) map[string]waste.Customize {
	if len(defs) == 0 {
		return nil
	}
	custom := make(map[string]waste.Customize, len(defs))
	for _, d := range defs {
		show := true
		if d.Show != nil {
			show = *d.Show
		}
		custom[d.Type] = waste.Customize{WasteType: d.Type, Alias: d.Alias, Show: show}
	}
	return custom
}
