package widget

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultSidebar is configured when no sidebars file is given.
const DefaultSidebar = "primary"

// Sidebar is a named widget area.
type Sidebar struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Args  `yaml:",inline"`
	Seeds []Seed `yaml:"widgets"`
}

// Seed is a widget instance created the first time a sidebar is empty.
type Seed struct {
	Widget   string            `yaml:"widget"`
	Settings map[string]string `yaml:"settings"`
}

type sidebarsFile struct {
	Sidebars []Sidebar `yaml:"sidebars"`
}

// DefaultSidebars returns the single sidebar used without configuration.
func DefaultSidebars(seedWidgets ...string) []Sidebar {
	sidebar := Sidebar{ID: DefaultSidebar, Name: "Primary Sidebar", Args: DefaultArgs()}
	for _, id := range seedWidgets {
		sidebar.Seeds = append(sidebar.Seeds, Seed{Widget: id})
	}
	return []Sidebar{sidebar}
}

// LoadSidebars reads sidebar definitions from a YAML file. Missing wrapper markup falls back to
// DefaultArgs. An empty path or a missing file returns fallback.
func LoadSidebars(path string, fallback []Sidebar) ([]Sidebar, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, nil
		}
		return nil, eris.Wrapf(err, "reading sidebars file %s", path)
	}

	var file sidebarsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "decoding sidebars file %s", path)
	}

	seen := make(map[string]struct{}, len(file.Sidebars))
	defaults := DefaultArgs()
	for i := range file.Sidebars {
		sidebar := &file.Sidebars[i]
		sidebar.ID = strings.TrimSpace(sidebar.ID)
		if sidebar.ID == "" {
			return nil, eris.Errorf("sidebar %d in %s has no id", i, path)
		}
		if _, dup := seen[sidebar.ID]; dup {
			return nil, eris.Errorf("sidebar %s is defined twice in %s", sidebar.ID, path)
		}
		seen[sidebar.ID] = struct{}{}

		if sidebar.Name == "" {
			sidebar.Name = sidebar.ID
		}
		if sidebar.BeforeWidget == "" && sidebar.AfterWidget == "" {
			sidebar.BeforeWidget, sidebar.AfterWidget = defaults.BeforeWidget, defaults.AfterWidget
		}
		if sidebar.BeforeTitle == "" && sidebar.AfterTitle == "" {
			sidebar.BeforeTitle, sidebar.AfterTitle = defaults.BeforeTitle, defaults.AfterTitle
		}
	}

	return file.Sidebars, nil
}
