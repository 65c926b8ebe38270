// Package docs regenerates the provider tables of README.md and info.md
// from the descriptor files in providers/.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// BuildTag keeps the descriptor files out of regular builds
const BuildTag = "providerinfo"

const (
	titleVar     = "Title"
	urlVar       = "URL"
	countryVar   = "Country"
	extraInfoVar = "ExtraInfo"
)

// Info is one documented provider entry
type Info struct {
	Filename string
	Title    string
	URL      string
	Country  string
}

func (i Info) String() string {
	return fmt.Sprintf("filename:%s, title:%s, url:%s, country:%s", i.Filename, i.Title, i.URL, i.Country)
}

// LoadDescriptors evaluates every .go file in dir and collects the entries
// declared via Title, URL, Country and ExtraInfo.
func LoadDescriptors(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("docs: read %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var infos []Info
	for _, name := range names {
		fileInfos, err := loadDescriptor(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		infos = append(infos, fileInfos...)
	}
	return infos, nil
}

func loadDescriptor(path string) ([]Info, error) {
	filename := strings.TrimSuffix(filepath.Base(path), ".go")

	i := interp.New(interp.Options{BuildTags: []string{BuildTag}})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("docs: %s: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("docs: interpret %s: %w", path, err)
	}

	title, err := stringVar(i, titleVar, "")
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", path, err)
	}
	url, err := stringVar(i, urlVar, "")
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", path, err)
	}
	country, err := stringVar(i, countryVar, defaultCountry(filename))
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", path, err)
	}

	var infos []Info
	if title != "" {
		infos = append(infos, Info{Filename: filename, Title: title, URL: url, Country: country})
	}

	extra, err := extraInfo(i)
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", path, err)
	}
	for _, e := range extra {
		infos = append(infos, Info{
			Filename: filename,
			Title:    stringOr(e, "title", title),
			URL:      stringOr(e, "url", url),
			Country:  stringOr(e, "country", country),
		})
	}
	return infos, nil
}

// defaultCountry is the suffix after the last underscore of the file name
func defaultCountry(filename string) string {
	if idx := strings.LastIndex(filename, "_"); idx >= 0 {
		return filename[idx+1:]
	}
	return filename
}

// lookup returns the value of a package level symbol, or an invalid value
// when the descriptor does not declare it
func lookup(i *interp.Interpreter, name string) reflect.Value {
	v, err := i.Eval(name)
	if err != nil {
		return reflect.Value{}
	}
	return v
}

func stringVar(i *interp.Interpreter, name, def string) (string, error) {
	v := lookup(i, name)
	if !v.IsValid() {
		return def, nil
	}
	if v.Kind() != reflect.String {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return v.String(), nil
}

// extraInfo reads ExtraInfo, either a []map[string]any or a function returning one
func extraInfo(i *interp.Interpreter) ([]map[string]any, error) {
	v := lookup(i, extraInfoVar)
	if !v.IsValid() {
		return nil, nil
	}
	if v.Kind() == reflect.Func {
		results := v.Call(nil)
		if len(results) != 1 {
			return nil, fmt.Errorf("%s() must return []map[string]any", extraInfoVar)
		}
		v = results[0]
	}
	if entries, ok := v.Interface().([]map[string]any); ok {
		return entries, nil
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must be []map[string]any", extraInfoVar)
	}
	entries := make([]map[string]any, v.Len())
	for idx := 0; idx < v.Len(); idx++ {
		m, ok := v.Index(idx).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", extraInfoVar, idx)
		}
		entries[idx] = m
	}
	return entries, nil
}

func stringOr(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}
