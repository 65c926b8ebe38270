package docs

import (
	"fmt"
	"os"

	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

const subsystem = "Docs"

// Options locate the descriptor directory and the two documents
type Options struct {
	ProviderDir string
	ReadmePath  string
	InfoPath    string
}

// DefaultOptions are relative to the repository root
func DefaultOptions() Options {
	return Options{
		ProviderDir: "providers",
		ReadmePath:  "README.md",
		InfoPath:    "info.md",
	}
}

// Result summarizes a run
type Result struct {
	Countries map[string][]Info
	Zombies   []Info
}

// Run loads the descriptors and rewrites the country sections of both documents
func Run(opts Options) (Result, error) {
	infos, err := LoadDescriptors(opts.ProviderDir)
	if err != nil {
		return Result{}, err
	}
	logging.Info(subsystem, "Loaded %d provider entries from %s", len(infos), opts.ProviderDir)

	countries, zombies := Classify(infos)
	if err := updateFile(opts.ReadmePath, RenderReadme(countries)); err != nil {
		return Result{}, err
	}
	if err := updateFile(opts.InfoPath, RenderInfo(countries)); err != nil {
		return Result{}, err
	}

	for _, z := range zombies {
		logging.Warn(subsystem, "Zombie %s", z)
	}
	return Result{Countries: countries, Zombies: zombies}, nil
}

func updateFile(path, content string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("docs: read %s: %w", path, err)
	}
	doc, err := ReplaceSection(string(data), content)
	if err != nil {
		return fmt.Errorf("docs: %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), info.Mode().Perm())
}
