package content

import (
	"reflect"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// Support names a capability a record type opts into.
type Support string

const (
	SupportTitle        Support = "title"
	SupportEditor       Support = "editor"
	SupportCustomFields Support = "custom-fields"
)

// TemplateLock controls how far editors may deviate from a type's block template.
type TemplateLock string

const (
	TemplateUnlocked TemplateLock = ""
	// TemplateLockAll forbids adding, removing and moving blocks.
	TemplateLockAll TemplateLock = "all"
	// TemplateLockInsert forbids adding and removing blocks but allows moving them.
	TemplateLockInsert TemplateLock = "insert"
)

// Labels are the human readable strings shown for a record type.
type Labels struct {
	Name            string
	SingularName    string
	MenuName        string
	AllItems        string
	ViewItem        string
	AddNewItem      string
	AddNew          string
	EditItem        string
	UpdateItem      string
	SearchItems     string
	NotFound        string
	NotFoundInTrash string
}

// TypeOptions describe a record type.
type TypeOptions struct {
	Label          string
	Description    string
	Labels         Labels
	Supports       []Support
	MenuIcon       string
	Hierarchical   bool
	Public         bool
	ShowInREST     bool
	ShowUI         bool
	ShowInMenu     bool
	ShowInAdminBar bool
	Rewrite        bool
	Template       []string
	TemplateLock   TemplateLock
}

// RecordType is a registered record type.
type RecordType struct {
	Name string
	TypeOptions
}

// HasSupport reports whether the type opted into the capability.
func (t RecordType) HasSupport(feature Support) bool {
	for _, s := range t.Supports {
		if s == feature {
			return true
		}
	}
	return false
}

// TypeRegistry holds the record types known to the store.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]RecordType
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]RecordType)}
}

// Register adds or replaces a record type. Registering identical options twice changes nothing.
func (r *TypeRegistry) Register(name string, opts TypeOptions) (RecordType, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return RecordType{}, eris.New("record type name is required")
	}

	recordType := RecordType{Name: trimmed, TypeOptions: opts}
	recordType.Template = append([]string(nil), opts.Template...)
	recordType.Supports = append([]Support(nil), opts.Supports...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[trimmed]; ok && reflect.DeepEqual(existing, recordType) {
		return existing, nil
	}

	r.types[trimmed] = recordType
	return recordType, nil
}

// Get returns the named type.
func (r *TypeRegistry) Get(name string) (RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recordType, ok := r.types[name]
	return recordType, ok
}

// Exists reports whether the named type is registered.
func (r *TypeRegistry) Exists(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// RegisterCoreTypes registers the built-in public types every installation carries.
func RegisterCoreTypes(registry *TypeRegistry) error {
	core := map[string]TypeOptions{
		"post": {
			Label:      "Posts",
			Labels:     Labels{Name: "Posts", SingularName: "Post"},
			Supports:   []Support{SupportTitle, SupportEditor, SupportCustomFields},
			Public:     true,
			ShowInREST: true,
			ShowUI:     true,
			ShowInMenu: true,
			Rewrite:    true,
		},
		"page": {
			Label:        "Pages",
			Labels:       Labels{Name: "Pages", SingularName: "Page"},
			Supports:     []Support{SupportTitle, SupportEditor, SupportCustomFields},
			Hierarchical: true,
			Public:       true,
			ShowInREST:   true,
			ShowUI:       true,
			ShowInMenu:   true,
			Rewrite:      true,
		},
	}

	for name, opts := range core {
		if _, err := registry.Register(name, opts); err != nil {
			return eris.Wrapf(err, "registering core type %s", name)
		}
	}
	return nil
}
