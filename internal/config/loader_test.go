package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "abfall.yaml", `
updateInterval: 30
onlyNextReading: true
updateSourcesInterval: 3
excludedWastetypes:
  - Restabfall 1100l 2 wö
  - " "
weekdayMapping: Mo,Di,Mi,Do,Fr,Sa,So
daySwitchTime: "09:30"
sources:
  - name: abfallkalender_winterberg_de
    location: Zuhause
    args:
      district: !secret district
    customize:
      - type: Restmüll
        alias: Restabfall
`)

	attrs, err := LoadFile(path, Secrets{"district": "Züschen"})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, attrs.UpdateInterval)
	assert.True(t, attrs.OnlyNextReading)
	assert.Equal(t, 3*24*time.Hour, attrs.UpdateSourcesInterval)
	assert.Equal(t, []string{"Restabfall 1100l 2 wö"}, attrs.ExcludedWastetypes)
	assert.Equal(t, "Mo", attrs.Weekday(time.Monday))
	assert.Equal(t, "So", attrs.Weekday(time.Sunday))
	assert.Equal(t, ClockTime{Hour: 9, Minute: 30}, attrs.DaySwitchTime)

	require.Len(t, attrs.Sources, 1)
	src := attrs.Sources[0]
	assert.Equal(t, "abfallkalender_winterberg_de", src.Name)
	assert.Equal(t, "Zuhause", src.Location)
	assert.Equal(t, "Züschen", src.Args["district"])
	require.Len(t, src.Customize, 1)
	assert.Equal(t, "Restabfall", src.Customize[0].Alias)
	assert.Contains(t, attrs.SourcesText, "Züschen")
}

func TestLoadFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "abfall.yaml", `
weekdayMapping: Mo,Di
daySwitchTime: noon
`)

	attrs, err := LoadFile(path, nil)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.WeekdayMapping, attrs.WeekdayMapping)
	assert.Equal(t, def.DaySwitchTime, attrs.DaySwitchTime)
	assert.Equal(t, DefaultUpdateInterval, attrs.UpdateInterval)
	assert.Equal(t, DefaultSourcesText, attrs.SourcesText)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)

	path := writeFile(t, dir, "secret.yaml", "sources:\n  - name: static\n    args:\n      type: !secret nope\n")
	_, err = LoadFile(path, Secrets{})
	assert.ErrorContains(t, err, "nope")

	empty := writeFile(t, dir, "empty.yaml", "")
	attrs, err := LoadFile(empty, nil)
	require.NoError(t, err)
	assert.Equal(t, Default().UpdateInterval, attrs.UpdateInterval)
}

func TestParseSources(t *testing.T) {
	sources, err := ParseSources(DefaultSourcesText, nil)
	require.NoError(t, err)
	assert.Empty(t, sources)

	sources, err = ParseSources("sources:\n  - name: static\n    location: Garten\n    args: {type: Bio}\n", nil)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Bio", sources[0].Args["type"])

	_, err = ParseSources("sources:\n  - location: Garten\n", nil)
	assert.Error(t, err)

	_, err = ParseSources("sources: [", nil)
	assert.Error(t, err)
}

func TestAttributesSetAndGet(t *testing.T) {
	attrs := Default()

	require.NoError(t, attrs.Set(AttrUpdateInterval, "15"))
	assert.Equal(t, 15*time.Minute, attrs.UpdateInterval)

	err := attrs.Set(AttrUpdateInterval, "-1")
	assert.True(t, errors.Is(err, ErrInvalidAttribute))
	assert.Equal(t, 15*time.Minute, attrs.UpdateInterval, "rejected value must not be applied")

	require.NoError(t, attrs.Set(AttrOnlyNextReading, "1"))
	assert.True(t, attrs.OnlyNextReading)
	assert.Error(t, attrs.Set(AttrOnlyNextReading, "yes"))

	require.NoError(t, attrs.Set(AttrExcludedWastetypes, "Restabfall 1100l 2 wö, Restabfall 1100l wö"))
	assert.Equal(t, []string{"Restabfall 1100l 2 wö", "Restabfall 1100l wö"}, attrs.ExcludedWastetypes)
	_, excluded := attrs.ExcludedSet()["Restabfall 1100l wö"]
	assert.True(t, excluded)

	require.NoError(t, attrs.Set(AttrWeekdayMapping, "broken"))
	assert.Equal(t, "Montag", attrs.Weekday(time.Monday))

	require.NoError(t, attrs.Set(AttrDaySwitchTime, "25:99"))
	assert.Equal(t, "12:00", attrs.DaySwitchTime.String())

	assert.Error(t, attrs.Set(AttrSources, "sources: ["))
	assert.Error(t, attrs.Set("Unknown", "1"))

	v, err := attrs.Get(AttrUpdateInterval)
	require.NoError(t, err)
	assert.Equal(t, "15", v)
	v, err = attrs.Get(AttrUpdateSourcesInterval)
	require.NoError(t, err)
	assert.Equal(t, "7", v)
	v, err = attrs.Get(AttrOnlyNextReading)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	_, err = attrs.Get("Unknown")
	assert.Error(t, err)
}

func TestClockTimeOn(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	at := ClockTime{Hour: 12, Minute: 5}.On(time.Date(2024, 5, 1, 8, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 5, 0, 0, loc), at)
}

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()

	secrets, err := LoadSecrets(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, secrets)

	path := writeFile(t, dir, "secrets.yaml", "district: Züschen\nhouse: 12\n")
	secrets, err = LoadSecrets(path)
	require.NoError(t, err)
	assert.Equal(t, Secrets{"district": "Züschen", "house": "12"}, secrets)
}

func TestLoadService(t *testing.T) {
	t.Setenv("ABFALL_CONFIG", "/etc/abfall.yaml")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/abfall")

	svc, err := LoadService()
	require.NoError(t, err)
	assert.Equal(t, "/etc/abfall.yaml", svc.ConfigFile)
	assert.Equal(t, ":9090", svc.ListenAddr())
	assert.Equal(t, "postgres://localhost/abfall", svc.DatabaseURL)
	assert.Equal(t, "Abfall", svc.Device)

	t.Setenv("PORT", "http")
	_, err = LoadService()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	attrs := Default()
	require.NoError(t, attrs.Validate())

	attrs.Sources = []SourceDefinition{{Name: " "}}
	assert.ErrorIs(t, attrs.Validate(), ErrInvalidAttribute)

	attrs = Default()
	attrs.UpdateInterval = 0
	assert.ErrorIs(t, attrs.Validate(), ErrInvalidAttribute)
}
