// Package i18n loads translation catalogs for a text domain and resolves messages with
// golang.org/x/text.
package i18n

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	applog "newsrecs/app/internal/log"
)

// contextSeparator joins a message context and its key into one catalog id.
const contextSeparator = "\x04"

// Entry is one translated message in a catalog file.
type Entry struct {
	ID          string `yaml:"id"`
	Context     string `yaml:"context,omitempty"`
	Translation string `yaml:"translation"`
	// Script marks messages the editor script needs at runtime.
	Script bool `yaml:"script,omitempty"`
}

// File is the on-disk catalog layout.
type File struct {
	Locale   string  `yaml:"locale"`
	Messages []Entry `yaml:"messages"`
}

// Translator resolves messages of one text domain in one locale. Unknown messages resolve to
// themselves.
type Translator struct {
	domain  string
	tag     language.Tag
	printer *message.Printer
	known   map[string]struct{}
	script  map[string]string
}

// Options configures Load.
type Options struct {
	Dir    string
	Domain string
	Locale string
	Logger *logrus.Logger
}

// CatalogPath returns where the catalog of domain for locale is expected.
func CatalogPath(dir, domain, locale string) string {
	return filepath.Join(dir, domain+"-"+locale+".yaml")
}

// Load reads {Dir}/{Domain}-{Locale}.yaml. A missing file yields a translator that returns
// every message untranslated.
func Load(opts Options) (*Translator, error) {
	domain := strings.TrimSpace(opts.Domain)
	if domain == "" {
		return nil, eris.New("text domain is required")
	}

	locale := strings.TrimSpace(opts.Locale)
	if locale == "" {
		locale = "en"
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing locale %q", locale)
	}

	logger := applog.Component(opts.Logger, "i18n").WithFields(logrus.Fields{"domain": domain, "locale": locale})

	var file File
	if opts.Dir != "" {
		path := CatalogPath(opts.Dir, domain, locale)
		data, readErr := os.ReadFile(path)
		switch {
		case readErr == nil:
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, eris.Wrapf(err, "decoding catalog %s", path)
			}
			logger.WithField("messages", len(file.Messages)).Info("translation catalog loaded")
		case errors.Is(readErr, fs.ErrNotExist):
			logger.Debug("no translation catalog, using source strings")
		default:
			return nil, eris.Wrapf(readErr, "reading catalog %s", path)
		}
	}

	return New(domain, tag, file.Messages)
}

// New builds a translator from in-memory entries.
func New(domain string, tag language.Tag, entries []Entry) (*Translator, error) {
	builder := catalog.NewBuilder(catalog.Fallback(tag))
	known := make(map[string]struct{}, len(entries))
	script := make(map[string]string)

	for _, entry := range entries {
		if entry.ID == "" || entry.Translation == "" {
			continue
		}
		id := messageID(entry.ID, entry.Context)
		if err := builder.SetString(tag, id, entry.Translation); err != nil {
			return nil, eris.Wrapf(err, "adding message %q", entry.ID)
		}
		known[id] = struct{}{}
		if entry.Script {
			script[id] = entry.Translation
		}
	}

	return &Translator{
		domain:  domain,
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
		known:   known,
		script:  script,
	}, nil
}

// Domain returns the text domain.
func (t *Translator) Domain() string {
	return t.domain
}

// Locale returns the BCP 47 tag of the loaded locale.
func (t *Translator) Locale() string {
	return t.tag.String()
}

// T translates key.
func (t *Translator) T(key string) string {
	return t.lookup(key)
}

// X translates key within a disambiguating context.
func (t *Translator) X(key, context string) string {
	id := messageID(key, context)
	if _, ok := t.known[id]; !ok {
		return key
	}
	return t.lookup(id)
}

func (t *Translator) lookup(id string) string {
	if t == nil {
		return id
	}
	if _, ok := t.known[id]; !ok {
		return id
	}
	return t.printer.Sprintf(message.Key(id, id))
}

// ScriptMessages returns the messages flagged for the editor script, keyed by catalog id.
func (t *Translator) ScriptMessages() map[string]string {
	out := make(map[string]string, len(t.script))
	for id, translation := range t.script {
		out[id] = translation
	}
	return out
}

func messageID(key, context string) string {
	if context == "" {
		return key
	}
	return context + contextSeparator + key
}
