package content

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/db"
)

const testType = "recommendation"

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "content.db")
	gormDB, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := silentLogger()

	if err := Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}

func setupStore(t *testing.T) *Store {
	t.Helper()

	types := NewTypeRegistry()
	if err := RegisterCoreTypes(types); err != nil {
		t.Fatalf("RegisterCoreTypes returned error: %v", err)
	}
	if _, err := types.Register(testType, TypeOptions{
		Supports:     []Support{SupportTitle, SupportEditor, SupportCustomFields},
		ShowInREST:   true,
		Template:     []string{"news-recommendations/recommendation"},
		TemplateLock: TemplateLockAll,
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	meta := NewMetaRegistry(types, silentLogger())
	meta.Register(testType, "_recommendation_source", MetaOptions{ShowInREST: true, Single: true, Sanitize: upper})
	meta.Register(testType, "_recommendation_url", MetaOptions{ShowInREST: true, Single: true})

	store, err := NewStore(setupRepository(t), types, meta, silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store
}

func upper(value string) string {
	out := []byte(value)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 32
		}
	}
	return string(out)
}
