package content

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	applog "newsrecs/app/internal/log"
)

// MetaTypeString is the only value type custom fields support.
const MetaTypeString = "string"

// MetaOptions describe a custom field.
type MetaOptions struct {
	ShowInREST  bool
	Type        string
	Description string
	Sanitize    func(string) string
	Single      bool
	Default     string
}

// MetaField is a custom field registered for one record type.
type MetaField struct {
	RecordType string
	Key        string
	MetaOptions
}

// MetaRegistry holds the custom fields declared per record type.
type MetaRegistry struct {
	mu     sync.RWMutex
	types  *TypeRegistry
	fields map[string][]MetaField
	logger *logrus.Entry
}

// NewMetaRegistry returns a registry that only accepts fields for types known to types.
func NewMetaRegistry(types *TypeRegistry, logger *logrus.Logger) *MetaRegistry {
	return &MetaRegistry{
		types:  types,
		fields: make(map[string][]MetaField),
		logger: applog.Component(logger, "content.meta"),
	}
}

// Register declares a field. It reports false, without error, when the record type does not exist
// or the key is empty.
func (m *MetaRegistry) Register(recordType, key string, opts MetaOptions) bool {
	key = strings.TrimSpace(key)
	if key == "" || m.types == nil || !m.types.Exists(recordType) {
		m.logger.WithFields(logrus.Fields{"record_type": recordType, "meta_key": key}).
			Debug("skipping meta registration")
		return false
	}

	if opts.Type == "" {
		opts.Type = MetaTypeString
	}
	if opts.Type != MetaTypeString {
		m.logger.WithFields(logrus.Fields{"record_type": recordType, "meta_key": key, "type": opts.Type}).
			Debug("skipping meta registration with unsupported type")
		return false
	}

	field := MetaField{RecordType: recordType, Key: key, MetaOptions: opts}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.fields[recordType]
	for i := range existing {
		if existing[i].Key == key {
			existing[i] = field
			return true
		}
	}
	m.fields[recordType] = append(existing, field)
	return true
}

// Field looks up one field.
func (m *MetaRegistry) Field(recordType, key string) (MetaField, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, field := range m.fields[recordType] {
		if field.Key == key {
			return field, true
		}
	}
	return MetaField{}, false
}

// Fields lists the fields of a record type in registration order.
func (m *MetaRegistry) Fields(recordType string) []MetaField {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]MetaField(nil), m.fields[recordType]...)
}

// Sanitize runs the field's sanitizer on value.
func (m *MetaRegistry) Sanitize(recordType, key, value string) (string, error) {
	field, ok := m.Field(recordType, key)
	if !ok {
		return "", ErrUnknownMeta
	}
	if field.Sanitize == nil {
		return value, nil
	}
	return field.Sanitize(value), nil
}
