package content

import (
	"context"
	"sync"
)

type renderStateKey struct{}

// renderState is the request-scoped "current record" pointer used while rendering loops.
type renderState struct {
	mu      sync.Mutex
	current *Record
}

func (s *renderState) swap(record *Record) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.current
	s.current = record
	return previous
}

func (s *renderState) get() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// WithRenderState attaches a current-record slot to ctx unless one is already present.
func WithRenderState(ctx context.Context) context.Context {
	if _, ok := ctx.Value(renderStateKey{}).(*renderState); ok {
		return ctx
	}
	return context.WithValue(ctx, renderStateKey{}, &renderState{})
}

// WithCurrentRecord attaches a render state whose current record is record.
func WithCurrentRecord(ctx context.Context, record Record) context.Context {
	return context.WithValue(ctx, renderStateKey{}, &renderState{current: &record})
}

// CurrentRecord returns the record currently being rendered.
func CurrentRecord(ctx context.Context) (Record, bool) {
	state, ok := ctx.Value(renderStateKey{}).(*renderState)
	if !ok {
		return Record{}, false
	}
	if current := state.get(); current != nil {
		return *current, true
	}
	return Record{}, false
}

// Loop iterates a query result.
type Loop struct {
	records []Record
}

// NewLoop wraps records in a loop.
func NewLoop(records []Record) *Loop {
	return &Loop{records: records}
}

// HasRecords reports whether the loop has anything to iterate.
func (l *Loop) HasRecords() bool {
	return l != nil && len(l.records) > 0
}

// Len returns the number of records.
func (l *Loop) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Records returns a copy of the records in loop order.
func (l *Loop) Records() []Record {
	if l == nil {
		return nil
	}
	return append([]Record(nil), l.records...)
}

// Each makes every record the current record in turn and calls fn. Whatever record was current
// before is restored when Each returns, including when fn fails or panics.
func (l *Loop) Each(ctx context.Context, fn func(ctx context.Context, record Record) error) error {
	ctx = WithRenderState(ctx)
	state := ctx.Value(renderStateKey{}).(*renderState)

	previous := state.get()
	defer state.swap(previous)

	for i := range l.records {
		record := l.records[i]
		state.swap(&record)
		if err := fn(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
