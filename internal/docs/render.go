package docs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	StartCountrySection = "<!--Begin of country section-->"
	EndCountrySection   = "<!--End of country section-->"
)

var errMissingMarker = errors.New("country section marker not found")

// BeautifyURL strips the scheme, www. and a trailing slash
func BeautifyURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "www.")
	return url
}

// RenderReadme renders one collapsible list per country
func RenderReadme(countries map[string][]Info) string {
	var sb strings.Builder
	for _, country := range sortedCountries(countries) {
		sb.WriteString("<details>\n")
		fmt.Fprintf(&sb, "<summary>%s</summary>\n", country)
		for _, e := range sortedByTitle(countries[country]) {
			fmt.Fprintf(&sb, "- [%s](/doc/source/%s.md) / %s\n", e.Title, e.Filename, BeautifyURL(e.URL))
		}
		sb.WriteString("</details>\n")
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderInfo renders one table row per country
func RenderInfo(countries map[string][]Info) string {
	var sb strings.Builder
	for _, country := range sortedCountries(countries) {
		entries := sortedByTitle(countries[country])
		titles := make([]string, len(entries))
		for i, e := range entries {
			titles[i] = e.Title
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", country, strings.Join(titles, ", "))
	}
	return sb.String()
}

// ReplaceSection replaces everything between the line after the start
// marker and the end marker with content
func ReplaceSection(doc, content string) (string, error) {
	start := strings.Index(doc, StartCountrySection)
	if start < 0 {
		return "", fmt.Errorf("%w: %s", errMissingMarker, StartCountrySection)
	}
	end := strings.Index(doc, EndCountrySection)
	if end < 0 {
		return "", fmt.Errorf("%w: %s", errMissingMarker, EndCountrySection)
	}
	startPos := start + len(StartCountrySection) + 1
	if startPos > end {
		return "", fmt.Errorf("end marker must follow the start marker line")
	}
	return doc[:startPos] + content + doc[end:], nil
}

func sortedCountries(countries map[string][]Info) []string {
	names := make([]string, 0, len(countries))
	for name := range countries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedByTitle(infos []Info) []Info {
	sorted := append([]Info(nil), infos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})
	return sorted
}
