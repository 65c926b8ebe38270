package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir, name, body string) {
	t.Helper()
	src := "//go:build " + BuildTag + "\n\npackage main\n\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".go"), []byte(src), 0o644))
}

func TestLoadDescriptors(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "abfall_muenster_de", `
var Title = "Abfall Münster"
var URL = "https://www.muenster.de/"
`)
	writeDescriptor(t, dir, "abfall_regional_de", `
var Title = "Regional"
var URL = "https://regional.example/"
var Country = "at"

var ExtraInfo = []map[string]any{
	{"title": "Nachbarkreis"},
	{"title": "Grenzgebiet", "country": "ch", "url": "https://grenz.example"},
}
`)
	writeDescriptor(t, dir, "sammelstelle_multi_se", `
var Title = ""
var URL = "https://multi.example"

func ExtraInfo() []map[string]any {
	return []map[string]any{{"title": "Göteborg"}}
}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	infos, err := LoadDescriptors(dir)
	require.NoError(t, err)

	assert.Equal(t, []Info{
		{Filename: "abfall_muenster_de", Title: "Abfall Münster", URL: "https://www.muenster.de/", Country: "de"},
		{Filename: "abfall_regional_de", Title: "Regional", URL: "https://regional.example/", Country: "at"},
		{Filename: "abfall_regional_de", Title: "Nachbarkreis", URL: "https://regional.example/", Country: "at"},
		{Filename: "abfall_regional_de", Title: "Grenzgebiet", URL: "https://grenz.example", Country: "ch"},
		{Filename: "sammelstelle_multi_se", Title: "Göteborg", URL: "https://multi.example", Country: "se"},
	}, infos)
}

func TestLoadDescriptorsErrors(t *testing.T) {
	_, err := LoadDescriptors(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeDescriptor(t, dir, "broken_de", `var Title = `)
	_, err = LoadDescriptors(dir)
	assert.Error(t, err)

	dir = t.TempDir()
	writeDescriptor(t, dir, "numeric_de", `var Title = 42`)
	_, err = LoadDescriptors(dir)
	assert.ErrorContains(t, err, "Title must be a string")
}

func TestClassify(t *testing.T) {
	infos := []Info{
		{Filename: "ics", Title: "ICS", Country: "ics"},
		{Filename: "static", Title: "Static", Country: "static"},
		{Filename: "abfall_winterberg_de", Title: "Winterberg", Country: "de"},
		{Filename: "stadtreinigung_hamburg", Title: "Hamburg", Country: "hamburg"},
		{Filename: "recycle_coach_com", Title: "Recycle Coach", Country: "com"},
	}

	countries, zombies := Classify(infos)

	assert.Len(t, countries, 1)
	assert.Len(t, countries["Germany"], 2)
	require.Len(t, zombies, 1)
	assert.Equal(t, "recycle_coach_com", zombies[0].Filename)
}

func TestBeautifyURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.winterberg.de/", "winterberg.de"},
		{"http://abfall.example", "abfall.example"},
		{"www.example.org/path/", "example.org/path"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BeautifyURL(tt.in), tt.in)
	}
}

func testCountries() map[string][]Info {
	return map[string][]Info{
		"Germany": {
			{Filename: "stadtreinigung_hamburg", Title: "Stadtreinigung Hamburg", URL: "https://www.stadtreinigung.hamburg/"},
			{Filename: "abfall_winterberg_de", Title: "abfallkalender Winterberg", URL: "https://abfallkalender.winterberg.de"},
		},
		"Austria": {
			{Filename: "wien_at", Title: "Wien", URL: "http://wien.gv.at"},
		},
	}
}

func TestRenderReadme(t *testing.T) {
	want := "<details>\n" +
		"<summary>Austria</summary>\n" +
		"- [Wien](/doc/source/wien_at.md) / wien.gv.at\n" +
		"</details>\n" +
		"\n" +
		"<details>\n" +
		"<summary>Germany</summary>\n" +
		"- [abfallkalender Winterberg](/doc/source/abfall_winterberg_de.md) / abfallkalender.winterberg.de\n" +
		"- [Stadtreinigung Hamburg](/doc/source/stadtreinigung_hamburg.md) / stadtreinigung.hamburg\n" +
		"</details>\n" +
		"\n"
	assert.Equal(t, want, RenderReadme(testCountries()))
}

func TestRenderInfo(t *testing.T) {
	want := "| Austria | Wien |\n" +
		"| Germany | abfallkalender Winterberg, Stadtreinigung Hamburg |\n"
	assert.Equal(t, want, RenderInfo(testCountries()))
	assert.Empty(t, RenderInfo(nil))
}

func TestReplaceSection(t *testing.T) {
	doc := "# Title\n" + StartCountrySection + "\nold content\n" + EndCountrySection + "\nfooter\n"

	got, err := ReplaceSection(doc, "new\n")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n"+StartCountrySection+"\nnew\n"+EndCountrySection+"\nfooter\n", got)

	again, err := ReplaceSection(got, "new\n")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = ReplaceSection("no markers", "x")
	assert.ErrorIs(t, err, errMissingMarker)

	_, err = ReplaceSection(StartCountrySection+"\n", "x")
	assert.ErrorIs(t, err, errMissingMarker)

	_, err = ReplaceSection(EndCountrySection+StartCountrySection, "x")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	providers := filepath.Join(root, "providers")
	require.NoError(t, os.Mkdir(providers, 0o755))
	writeDescriptor(t, providers, "abfall_winterberg_de", `
var Title = "Abfallkalender Winterberg"
var URL = "https://abfallkalender.winterberg.de"
`)
	writeDescriptor(t, providers, "ics", `
var Title = "ICS"
var URL = "https://icalendar.org"
`)
	writeDescriptor(t, providers, "recycle_coach_com", `
var Title = "Recycle Coach"
var URL = "https://recyclecoach.com"
`)

	section := StartCountrySection + "\n" + EndCountrySection + "\n"
	opts := Options{
		ProviderDir: providers,
		ReadmePath:  filepath.Join(root, "README.md"),
		InfoPath:    filepath.Join(root, "info.md"),
	}
	require.NoError(t, os.WriteFile(opts.ReadmePath, []byte("# Readme\n"+section), 0o644))
	require.NoError(t, os.WriteFile(opts.InfoPath, []byte("| Country | Sources |\n"+section), 0o644))

	result, err := Run(opts)
	require.NoError(t, err)
	assert.Len(t, result.Zombies, 1)
	assert.Contains(t, result.Countries, "Germany")

	readme, err := os.ReadFile(opts.ReadmePath)
	require.NoError(t, err)
	assert.Contains(t, string(readme), "- [Abfallkalender Winterberg](/doc/source/abfall_winterberg_de.md) / abfallkalender.winterberg.de\n")
	assert.NotContains(t, string(readme), "ICS")

	info, err := os.ReadFile(opts.InfoPath)
	require.NoError(t, err)
	assert.Contains(t, string(info), "| Germany | Abfallkalender Winterberg |\n")
}

func TestRunMissingMarkers(t *testing.T) {
	root := t.TempDir()
	opts := Options{
		ProviderDir: root,
		ReadmePath:  filepath.Join(root, "README.md"),
		InfoPath:    filepath.Join(root, "info.md"),
	}
	require.NoError(t, os.WriteFile(opts.ReadmePath, []byte("# Readme\n"), 0o644))

	_, err := Run(opts)
	assert.ErrorIs(t, err, errMissingMarker)
}
