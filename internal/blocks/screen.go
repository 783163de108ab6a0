package blocks

import (
	"newsrecs/app/internal/content"
)

// Screen is one editor page being assembled for a record. Its block registry is private to the
// screen.
type Screen struct {
	Record content.Record
	Blocks *Registry

	assets  *Assets
	scripts []Script
	styles  []Style
	after   []func()
}

func newScreen(record content.Record, blocks *Registry, assets *Assets) *Screen {
	return &Screen{Record: record, Blocks: blocks, assets: assets}
}

// EnqueueScript adds a registered script to the page once. Unknown handles are ignored.
func (s *Screen) EnqueueScript(handle string) bool {
	if handle == "" || s.HasScript(handle) {
		return false
	}
	script, ok := s.assets.Script(handle)
	if !ok {
		return false
	}
	s.scripts = append(s.scripts, script)
	return true
}

// EnqueueStyle adds a registered stylesheet to the page once. Unknown handles are ignored.
func (s *Screen) EnqueueStyle(handle string) bool {
	if handle == "" || s.HasStyle(handle) {
		return false
	}
	style, ok := s.assets.Style(handle)
	if !ok {
		return false
	}
	s.styles = append(s.styles, style)
	return true
}

// HasScript reports whether the script is enqueued.
func (s *Screen) HasScript(handle string) bool {
	for _, script := range s.scripts {
		if script.Handle == handle {
			return true
		}
	}
	return false
}

// HasStyle reports whether the stylesheet is enqueued.
func (s *Screen) HasStyle(handle string) bool {
	for _, style := range s.styles {
		if style.Handle == handle {
			return true
		}
	}
	return false
}

// Scripts returns the enqueued scripts in enqueue order.
func (s *Screen) Scripts() []Script {
	return append([]Script(nil), s.scripts...)
}

// Styles returns the enqueued stylesheets in enqueue order.
func (s *Screen) Styles() []Style {
	return append([]Style(nil), s.styles...)
}

// AfterEnqueue schedules fn to run once the enqueue phase has finished.
func (s *Screen) AfterEnqueue(fn func()) {
	if fn != nil {
		s.after = append(s.after, fn)
	}
}

func (s *Screen) finishEnqueue() {
	after := s.after
	s.after = nil
	for _, fn := range after {
		fn()
	}
}
