package app

import (
	"context"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

// SetAttribute changes an attribute and runs its change hook. Rejected
// values leave the attribute unchanged and return a KindConfig error.
func (m *Module) SetAttribute(ctx context.Context, name, value string) error {
	m.mu.Lock()
	attrs := m.attrs
	err := attrs.Set(name, value)
	if err == nil {
		m.attrs = attrs
	}
	m.mu.Unlock()
	if err != nil {
		return &Error{Kind: KindConfig, Op: "attr " + name, Err: err}
	}
	logging.Info(subsystem, "Attribute %s changed", name)

	switch name {
	case config.AttrUpdateInterval:
		m.RestartUpdateLoop()
	case config.AttrDaySwitchTime:
		return m.RestartDaySwitchLoop(ctx)
	case config.AttrOnlyNextReading, config.AttrSources, config.AttrExcludedWastetypes, config.AttrWeekdayMapping:
		return m.Update(ctx)
	}
	return nil
}

// Attribute returns the textual value of an attribute
func (m *Module) Attribute(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.attrs.Get(name)
	if err != nil {
		return "", &Error{Kind: KindConfig, Op: "attr " + name, Err: err}
	}
	return v, nil
}

// Attributes returns a copy of the current attributes
func (m *Module) Attributes() config.Attributes {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs
}
