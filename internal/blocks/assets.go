package blocks

import (
	"strings"
	"sync"
)

// Script is a registered editor script.
type Script struct {
	Handle       string
	Src          string
	Deps         []string
	Version      string
	InFooter     bool
	Translations map[string]string
}

// Style is a registered editor stylesheet.
type Style struct {
	Handle  string
	Src     string
	Deps    []string
	Version string
}

// URL returns the source with its cache-busting version appended.
func (s Script) URL() string {
	return versioned(s.Src, s.Version)
}

// URL returns the source with its cache-busting version appended.
func (s Style) URL() string {
	return versioned(s.Src, s.Version)
}

func versioned(src, version string) string {
	if version == "" {
		return src
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "ver=" + version
}

// Assets holds the scripts and styles that screens can enqueue by handle.
type Assets struct {
	mu      sync.RWMutex
	scripts map[string]Script
	styles  map[string]Style
}

// NewAssets returns an empty asset registry.
func NewAssets() *Assets {
	return &Assets{
		scripts: make(map[string]Script),
		styles:  make(map[string]Style),
	}
}

// RegisterScript adds a script. It reports false when the handle is empty or already taken.
func (a *Assets) RegisterScript(script Script) bool {
	if strings.TrimSpace(script.Handle) == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.scripts[script.Handle]; exists {
		return false
	}
	script.Deps = append([]string(nil), script.Deps...)
	a.scripts[script.Handle] = script
	return true
}

// RegisterStyle adds a stylesheet. It reports false when the handle is empty or already taken.
func (a *Assets) RegisterStyle(style Style) bool {
	if strings.TrimSpace(style.Handle) == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.styles[style.Handle]; exists {
		return false
	}
	style.Deps = append([]string(nil), style.Deps...)
	a.styles[style.Handle] = style
	return true
}

// SetScriptTranslations attaches a locale data map to a registered script.
func (a *Assets) SetScriptTranslations(handle string, messages map[string]string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	script, ok := a.scripts[handle]
	if !ok {
		return false
	}
	script.Translations = messages
	a.scripts[handle] = script
	return true
}

// Script looks up a script by handle.
func (a *Assets) Script(handle string) (Script, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	script, ok := a.scripts[handle]
	return script, ok
}

// Style looks up a stylesheet by handle.
func (a *Assets) Style(handle string) (Style, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	style, ok := a.styles[handle]
	return style, ok
}
