package content

import (
	"context"
	"slices"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	applog "newsrecs/app/internal/log"
)

// Draft holds the editable values of a new record.
type Draft struct {
	Title string
	Body  string
	Meta  map[string]string
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Title  *string
	Body   *string
	Blocks []string
	Meta   map[string]string
}

// Query selects records for a loop.
type Query struct {
	Type    string
	PerPage int
}

// Store applies record type rules (templates, locks, registered fields) on top of a Repository.
type Store struct {
	repo      Repository
	types     *TypeRegistry
	meta      *MetaRegistry
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

// NewStore wires the store with its dependencies.
func NewStore(repo Repository, types *TypeRegistry, meta *MetaRegistry, logger *logrus.Logger, hub *sentry.Hub) (*Store, error) {
	if repo == nil {
		return nil, eris.New("content repository is required")
	}
	if types == nil {
		return nil, eris.New("type registry is required")
	}
	if meta == nil {
		return nil, eris.New("meta registry is required")
	}

	return &Store{repo: repo, types: types, meta: meta, logger: logger, sentryHub: hub}, nil
}

// Types exposes the type registry.
func (s *Store) Types() *TypeRegistry {
	return s.types
}

// Meta exposes the meta registry.
func (s *Store) Meta() *MetaRegistry {
	return s.meta
}

// Create stores a new record. Its block list is the type's template and every registered field
// starts at its default.
func (s *Store) Create(ctx context.Context, recordType string, draft Draft) (*Record, error) {
	rt, ok := s.types.Get(recordType)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownType, "creating record of type %s", recordType)
	}

	meta, err := s.sanitizeMeta(recordType, draft.Meta)
	if err != nil {
		return nil, err
	}
	for _, field := range s.meta.Fields(recordType) {
		if _, set := meta[field.Key]; !set {
			meta[field.Key] = field.Default
		}
	}

	record := &Record{
		Type:   rt.Name,
		Title:  strings.TrimSpace(draft.Title),
		Body:   draft.Body,
		Blocks: append([]string(nil), rt.Template...),
		Meta:   meta,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.recordError(logrus.Fields{"record_type": recordType}, err, "creating record")
		return nil, eris.Wrap(err, "creating record")
	}

	return record, nil
}

// Get loads a record and fills unset registered fields with their defaults.
func (s *Store) Get(ctx context.Context, id uint) (*Record, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		s.recordError(logrus.Fields{"record_id": id}, err, "loading record")
		return nil, eris.Wrapf(err, "loading record %d", id)
	}
	if record == nil {
		return nil, eris.Wrapf(ErrNotFound, "loading record %d", id)
	}

	s.fillDefaults(record)
	return record, nil
}

// Update applies a patch. Block changes on a type locked with TemplateLockAll are rejected
// unless they leave the block list as it is.
func (s *Store) Update(ctx context.Context, id uint, patch Patch) (*Record, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	meta, err := s.sanitizeMeta(record.Type, patch.Meta)
	if err != nil {
		return nil, err
	}

	if patch.Blocks != nil && !slices.Equal(patch.Blocks, record.Blocks) {
		if err := s.checkBlockEdit(record.Type, record.Blocks, patch.Blocks); err != nil {
			return nil, err
		}
		record.Blocks = append([]string(nil), patch.Blocks...)
	}
	if patch.Title != nil {
		record.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Body != nil {
		record.Body = *patch.Body
	}

	if err := s.repo.Update(ctx, record); err != nil {
		s.recordError(logrus.Fields{"record_id": id}, err, "updating record")
		return nil, eris.Wrapf(err, "updating record %d", id)
	}

	for key, value := range meta {
		if err := s.repo.SetMeta(ctx, id, key, value); err != nil {
			s.recordError(logrus.Fields{"record_id": id, "meta_key": key}, err, "updating record meta")
			return nil, eris.Wrapf(err, "updating record %d", id)
		}
		record.Meta[key] = value
	}

	return record, nil
}

// SetMeta writes one registered field after sanitizing it and returns the stored value.
func (s *Store) SetMeta(ctx context.Context, id uint, key, value string) (string, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	clean, err := s.meta.Sanitize(record.Type, key, value)
	if err != nil {
		return "", eris.Wrapf(err, "writing %s on %s record %d", key, record.Type, id)
	}

	if err := s.repo.SetMeta(ctx, id, key, clean); err != nil {
		s.recordError(logrus.Fields{"record_id": id, "meta_key": key}, err, "writing record meta")
		return "", eris.Wrapf(err, "writing %s on record %d", key, id)
	}
	return clean, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !eris.Is(err, ErrNotFound) {
			s.recordError(logrus.Fields{"record_id": id}, err, "deleting record")
		}
		return eris.Wrapf(err, "deleting record %d", id)
	}
	return nil
}

// Query runs q and returns a loop over the matching records, newest first.
func (s *Store) Query(ctx context.Context, q Query) (*Loop, error) {
	records, err := s.repo.Recent(ctx, q.Type, q.PerPage)
	if err != nil {
		s.recordError(logrus.Fields{"record_type": q.Type}, err, "querying records")
		return nil, eris.Wrapf(err, "querying %s records", q.Type)
	}

	for i := range records {
		s.fillDefaults(&records[i])
	}
	return NewLoop(records), nil
}

func (s *Store) sanitizeMeta(recordType string, values map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(values))
	for key, value := range values {
		sanitized, err := s.meta.Sanitize(recordType, key, value)
		if err != nil {
			return nil, eris.Wrapf(err, "writing %s on %s record", key, recordType)
		}
		clean[key] = sanitized
	}
	return clean, nil
}

func (s *Store) checkBlockEdit(recordType string, current, next []string) error {
	rt, ok := s.types.Get(recordType)
	if !ok {
		return nil
	}

	switch rt.TemplateLock {
	case TemplateLockAll:
		return eris.Wrapf(ErrTemplateLocked, "changing blocks of %s record", recordType)
	case TemplateLockInsert:
		a := append([]string(nil), current...)
		b := append([]string(nil), next...)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return eris.Wrapf(ErrTemplateLocked, "adding or removing blocks of %s record", recordType)
		}
	}
	return nil
}

func (s *Store) fillDefaults(record *Record) {
	if record.Meta == nil {
		record.Meta = make(map[string]string)
	}
	for _, field := range s.meta.Fields(record.Type) {
		if _, ok := record.Meta[field.Key]; !ok {
			record.Meta[field.Key] = field.Default
		}
	}
}

func (s *Store) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	applog.Capture(s.sentryHub, err)
}
