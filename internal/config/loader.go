package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

const subsystem = "Config"

// ErrInvalidAttribute is returned for attribute values that cannot be applied
var ErrInvalidAttribute = errors.New("invalid attribute")

// For mocking in tests
var osReadFile = os.ReadFile

// LoadFile reads the attributes from a YAML file. Missing values keep their
// defaults; a malformed weekday mapping or day switch time falls back to
// the default with a warning.
func LoadFile(path string, secrets Secrets) (Attributes, error) {
	attrs := Default()
	attrs.Secrets = secrets

	data, err := osReadFile(path)
	if err != nil {
		return attrs, fmt.Errorf("read config %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return attrs, fmt.Errorf("parse config %s: %w", path, err)
	}
	if root.Kind == 0 {
		return attrs, nil
	}
	if err := resolveSecrets(&root, secrets); err != nil {
		return attrs, fmt.Errorf("config %s: %w", path, err)
	}

	var fc fileConfig
	if err := root.Decode(&fc); err != nil {
		return attrs, fmt.Errorf("decode config %s: %w", path, err)
	}

	if fc.UpdateInterval > 0 {
		attrs.UpdateInterval = time.Duration(fc.UpdateInterval) * time.Minute
	}
	if fc.UpdateSourcesInterval > 0 {
		attrs.UpdateSourcesInterval = time.Duration(fc.UpdateSourcesInterval) * 24 * time.Hour
	}
	attrs.OnlyNextReading = fc.OnlyNextReading
	for _, t := range fc.ExcludedWastetypes {
		if t = strings.TrimSpace(t); t != "" {
			attrs.ExcludedWastetypes = append(attrs.ExcludedWastetypes, t)
		}
	}
	if fc.WeekdayMapping != "" {
		attrs.WeekdayMapping = WeekdayMappingOrDefault(fc.WeekdayMapping)
	}
	if fc.DaySwitchTime != "" {
		attrs.DaySwitchTime = ClockTimeOrDefault(fc.DaySwitchTime)
	}
	if len(fc.Sources) > 0 {
		attrs.Sources = fc.Sources
		text, err := yaml.Marshal(sourcesDocument{Sources: fc.Sources})
		if err != nil {
			return attrs, fmt.Errorf("encode sources: %w", err)
		}
		attrs.SourcesText = string(text)
	}

	return attrs, attrs.Validate()
}

// Validate checks the values that have no fallback
func (a Attributes) Validate() error {
	if a.UpdateInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAttribute, AttrUpdateInterval)
	}
	if a.UpdateSourcesInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAttribute, AttrUpdateSourcesInterval)
	}
	for i, src := range a.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("%w: source %d has no name", ErrInvalidAttribute, i)
		}
	}
	return nil
}

// ParseSources parses the Sources attribute, resolving !secret tags.
func ParseSources(text string, secrets Secrets) ([]SourceDefinition, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil
	}
	if err := resolveSecrets(&root, secrets); err != nil {
		return nil, err
	}

	var doc sourcesDocument
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	for i, src := range doc.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("source %d has no name", i)
		}
	}
	return doc.Sources, nil
}

// ParseWeekdayMapping parses seven comma separated weekday names, starting with Monday.
func ParseWeekdayMapping(s string) ([7]string, error) {
	var mapping [7]string
	parts := strings.Split(s, ",")
	if len(parts) != 7 {
		return mapping, fmt.Errorf("%w: weekday mapping needs 7 names, got %d", ErrInvalidAttribute, len(parts))
	}
	for i, p := range parts {
		mapping[i] = strings.TrimSpace(p)
	}
	return mapping, nil
}

// WeekdayMappingOrDefault is ParseWeekdayMapping with a logged fallback to the default names
func WeekdayMappingOrDefault(s string) [7]string {
	mapping, err := ParseWeekdayMapping(s)
	if err != nil {
		logging.Warn(subsystem, "Wrong weekday mapping %q, using defaults: %v", s, err)
		return defaultWeekdays
	}
	return mapping
}

// ParseClockTime parses HH:MM
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidAttribute, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockTimeOrDefault is ParseClockTime with a logged fallback to the default day switch time
func ClockTimeOrDefault(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		logging.Warn(subsystem, "Wrong day switch time %q, using %s: %v", s, DefaultDaySwitchTime, err)
		return ClockTime{Hour: 12}
	}
	return c
}

// ParseExcludedWastetypes splits the comma separated ExcludedWastetypes attribute
func ParseExcludedWastetypes(s string) []string {
	var types []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// Set applies an attribute the way the host's attr command does. Integer
// attributes and Sources are validated and rejected on error.
func (a *Attributes) Set(name, value string) error {
	switch name {
	case AttrUpdateInterval:
		n, err := positiveInt(name, value)
		if err != nil {
			return err
		}
		a.UpdateInterval = time.Duration(n) * time.Minute
	case AttrUpdateSourcesInterval:
		n, err := positiveInt(name, value)
		if err != nil {
			return err
		}
		a.UpdateSourcesInterval = time.Duration(n) * 24 * time.Hour
	case AttrOnlyNextReading:
		switch strings.TrimSpace(value) {
		case "0":
			a.OnlyNextReading = false
		case "1":
			a.OnlyNextReading = true
		default:
			return fmt.Errorf("%w: %s must be 0 or 1", ErrInvalidAttribute, name)
		}
	case AttrSources:
		sources, err := ParseSources(value, a.Secrets)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
		}
		a.Sources = sources
		a.SourcesText = value
	case AttrExcludedWastetypes:
		a.ExcludedWastetypes = ParseExcludedWastetypes(value)
	case AttrWeekdayMapping:
		a.WeekdayMapping = WeekdayMappingOrDefault(value)
	case AttrDaySwitchTime:
		a.DaySwitchTime = ClockTimeOrDefault(value)
	default:
		return fmt.Errorf("%w: unknown attribute %s", ErrInvalidAttribute, name)
	}
	return nil
}

// Get returns the attribute in its textual form
func (a Attributes) Get(name string) (string, error) {
	switch name {
	case AttrUpdateInterval:
		return strconv.Itoa(int(a.UpdateInterval / time.Minute)), nil
	case AttrUpdateSourcesInterval:
		return strconv.Itoa(int(a.UpdateSourcesInterval / (24 * time.Hour))), nil
	case AttrOnlyNextReading:
		if a.OnlyNextReading {
			return "1", nil
		}
		return "0", nil
	case AttrSources:
		return a.SourcesText, nil
	case AttrExcludedWastetypes:
		return strings.Join(a.ExcludedWastetypes, ","), nil
	case AttrWeekdayMapping:
		return strings.Join(a.WeekdayMapping[:], ","), nil
	case AttrDaySwitchTime:
		return a.DaySwitchTime.String(), nil
	default:
		return "", fmt.Errorf("%w: unknown attribute %s", ErrInvalidAttribute, name)
	}
}

func positiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidAttribute, name, value)
	}
	return n, nil
}
