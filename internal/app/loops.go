package app

import (
	"context"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

// RestartUpdateLoop cancels the update loop and starts a new one, which
// updates immediately
func (m *Module) RestartUpdateLoop() {
	if !m.isRunning() {
		return
	}
	m.startUpdateLoop()
}

// RestartDaySwitchLoop cancels the day switch loop, starts a new one and
// runs an update pass
func (m *Module) RestartDaySwitchLoop(ctx context.Context) error {
	if m.isRunning() {
		m.startDaySwitchLoop()
	}
	return m.Update(ctx)
}

func (m *Module) isRunning() bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	return m.running
}

func (m *Module) startUpdateLoop() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.cancelUpdate != nil {
		m.cancelUpdate()
	}
	ctx, cancel := context.WithCancel(m.baseContext())
	m.cancelUpdate = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.updateLoop(ctx)
	}()
}

func (m *Module) startDaySwitchLoop() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.cancelDaySwitch != nil {
		m.cancelDaySwitch()
	}
	ctx, cancel := context.WithCancel(m.baseContext())
	m.cancelDaySwitch = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.daySwitchLoop(ctx)
	}()
}

func (m *Module) baseContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

func (m *Module) updateLoop(ctx context.Context) {
	for {
		if err := m.Update(ctx); err != nil {
			logging.Error(subsystem, err, "Update failed")
		}

		m.mu.Lock()
		interval := m.attrs.UpdateInterval
		m.mu.Unlock()

		if !m.sleep(ctx, interval) {
			return
		}
	}
}

func (m *Module) daySwitchLoop(ctx context.Context) {
	for {
		m.mu.Lock()
		plan := planDaySwitch(m.now(), m.attrs.DaySwitchTime)
		m.includeToday = plan.IncludeToday
		m.mu.Unlock()

		if plan.AtMidnight {
			logging.Debug(daySwitchSubsystem, "Next is midnight in %s", plan.Wait)
		} else {
			logging.Debug(daySwitchSubsystem, "Next is day switch in %s", plan.Wait)
		}

		if !m.sleep(ctx, plan.Wait) {
			return
		}
		if err := m.switchDay(ctx, plan.IncludeAfter); err != nil {
			logging.Error(daySwitchSubsystem, err, "Update after day switch failed")
		}
	}
}

// switchDay sets whether today's collections are upcoming and updates
func (m *Module) switchDay(ctx context.Context, includeToday bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.includeToday = includeToday
	return m.updateLocked(ctx)
}

// daySwitchPlan is the next wake up of the day switch loop
type daySwitchPlan struct {
	// IncludeToday holds until the wake up
	IncludeToday bool
	Wait         time.Duration
	AtMidnight   bool
	// IncludeAfter is applied on wake up
	IncludeAfter bool
}

// planDaySwitch decides what the day switch loop does next. Before the
// cutoff today still counts and the loop wakes at the cutoff to exclude it.
// After the cutoff today is excluded and the loop wakes at midnight to
// include the new day.
func planDaySwitch(now time.Time, cutoff config.ClockTime) daySwitchPlan {
	switchAt := cutoff.On(now)
	include := true
	if !switchAt.After(now) {
		switchAt = switchAt.AddDate(0, 0, 1)
		include = false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	untilSwitch := switchAt.Sub(now)
	untilMidnight := midnight.Sub(now)
	if untilMidnight < untilSwitch {
		return daySwitchPlan{IncludeToday: include, Wait: untilMidnight, AtMidnight: true, IncludeAfter: true}
	}
	return daySwitchPlan{IncludeToday: include, Wait: untilSwitch, IncludeAfter: false}
}
