package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"triedb/pkg/common"
	"triedb/pkg/config"
	"triedb/pkg/index"
	"triedb/pkg/monitor"
	"triedb/pkg/storage"
	"triedb/pkg/trie"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrKindMismatch = errors.New("field kind mismatch")
	ErrClosed       = errors.New("store closed")
)

// field is the index of one numeric field: every value is stored once per
// trie level, so a range needs only the few terms SplitInt64Range emits.
type field struct {
	name   string
	kind   common.Kind
	step   uint
	shifts []uint
	dict   *index.TermDict
	values map[common.DocID]common.Value
}

func newField(name string, kind common.Kind, step uint, degree int) *field {
	return &field{
		name:   name,
		kind:   kind,
		step:   step,
		shifts: trie.Shifts(kind.Width(), step),
		dict:   index.NewTermDict(degree),
		values: make(map[common.DocID]common.Value),
	}
}

func (f *field) encode(bits int64, shift uint) (trie.Token, error) {
	if f.kind.Width() == trie.Width32 {
		return trie.EncodeInt32(int32(bits), shift)
	}
	return trie.EncodeInt64(bits, shift)
}

// tokens returns the terms of v on every trie level of the field.
func (f *field) tokens(v common.Value) ([]trie.Token, error) {
	out := make([]trie.Token, 0, len(f.shifts))
	for _, shift := range f.shifts {
		tok, err := f.encode(v.Bits, shift)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// Plan is one subrange of a range query with the token bounds looked up for it.
type Plan struct {
	Min   common.Value
	Max   common.Value
	Shift uint
	Lower trie.Token
	Upper trie.Token
}

// FieldInfo describes an indexed field.
type FieldInfo struct {
	Name          string      `json:"name"`
	Kind          common.Kind `json:"-"`
	KindName      string      `json:"kind"`
	PrecisionStep uint        `json:"precision_step"`
	Docs          int         `json:"docs"`
	Terms         int         `json:"terms"`
}

type writeOp struct {
	rec    common.Record
	delete bool
	done   chan struct{}
}

// Store indexes numeric field values for range queries and persists the
// source records to a backend.
type Store struct {
	mutex   sync.RWMutex
	fields  map[string]*field
	backend storage.Backend
	stats   *monitor.WorkloadStats
	writeCh chan writeOp
	closeCh chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
	conf    *config.Config
}

// NewStore opens the SQLite backend under cfg.Storage.Path and rebuilds the
// index from it.
func NewStore(cfg *config.Config) (*Store, error) {
	config.ApplyDefaults(cfg)
	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	backend, err := storage.NewSQLiteBackend(filepath.Join(cfg.Storage.Path, "triedb.db"))
	if err != nil {
		return nil, err
	}
	return NewStoreWithBackend(cfg, backend)
}

// NewStoreWithBackend is NewStore for an already opened backend. The store
// owns the backend and closes it on Close.
func NewStoreWithBackend(cfg *config.Config, backend storage.Backend) (*Store, error) {
	config.ApplyDefaults(cfg)
	s := &Store{
		fields:  make(map[string]*field),
		backend: backend,
		stats:   monitor.NewWorkloadStats(),
		writeCh: make(chan writeOp, cfg.Storage.WriteBufferSize),
		closeCh: make(chan struct{}),
		conf:    cfg,
	}

	if err := s.restore(); err != nil {
		backend.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.backgroundPersist()

	return s, nil
}

// Put indexes v as the value of field for doc, replacing any previous value.
// The first value of a field fixes its kind.
func (s *Store) Put(ctx context.Context, doc common.DocID, name string, v common.Value) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if v.Kind.Width() == 0 {
		return fmt.Errorf("%w: %s", ErrKindMismatch, v.Kind)
	}

	// enqueue under the lock so the backend sees writes in index order
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, existed := s.fields[name]
	old, hadOld := s.valueLocked(name, doc)
	if err := s.indexLocked(doc, name, v); err != nil {
		return err
	}

	if err := s.enqueue(ctx, writeOp{rec: common.Record{Doc: doc, Field: name, Value: v}}); err != nil {
		s.restoreLocked(doc, name, old, hadOld)
		if !existed {
			delete(s.fields, name)
		}
		return err
	}
	s.stats.RecordIndex()
	return nil
}

func (s *Store) valueLocked(name string, doc common.DocID) (common.Value, bool) {
	f, ok := s.fields[name]
	if !ok {
		return common.Value{}, false
	}
	v, ok := f.values[doc]
	return v, ok
}

// restoreLocked puts back the value doc had before a write that could not be
// queued.
func (s *Store) restoreLocked(doc common.DocID, name string, old common.Value, hadOld bool) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	if cur, ok := f.values[doc]; ok {
		if err := f.unindex(doc, cur); err != nil {
			slog.Error("rollback unindex failed", "doc", doc, "field", name, "error", err)
		}
	}
	if hadOld {
		if err := s.indexLocked(doc, name, old); err != nil {
			slog.Error("rollback reindex failed", "doc", doc, "field", name, "error", err)
		}
	}
}

func (s *Store) indexLocked(doc common.DocID, name string, v common.Value) error {
	if err := v.Validate(); err != nil {
		return err
	}
	f, ok := s.fields[name]
	if !ok {
		f = newField(name, v.Kind, s.conf.Index.PrecisionStep, s.conf.Index.BTreeDegree)
		s.fields[name] = f
		slog.Debug("new field", "field", name, "kind", v.Kind, "precision_step", f.step, "levels", len(f.shifts))
	}
	if f.kind != v.Kind {
		return fmt.Errorf("%w: field %q is %s, got %s", ErrKindMismatch, name, f.kind, v.Kind)
	}

	if old, ok := f.values[doc]; ok {
		if old == v {
			return nil
		}
		if err := f.unindex(doc, old); err != nil {
			return err
		}
	}

	toks, err := f.tokens(v)
	if err != nil {
		return err
	}
	for _, tok := range toks {
		f.dict.Add(tok, doc)
	}
	f.values[doc] = v
	return nil
}

func (f *field) unindex(doc common.DocID, v common.Value) error {
	toks, err := f.tokens(v)
	if err != nil {
		return err
	}
	for _, tok := range toks {
		f.dict.Remove(tok, doc)
	}
	delete(f.values, doc)
	return nil
}

// Delete removes the value of field for doc. Deleting a missing value is a
// no-op; an unknown field is an error.
func (s *Store) Delete(ctx context.Context, doc common.DocID, name string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	old, ok := f.values[doc]
	if !ok {
		return nil
	}
	if err := f.unindex(doc, old); err != nil {
		return err
	}

	if err := s.enqueue(ctx, writeOp{rec: common.Record{Doc: doc, Field: name}, delete: true}); err != nil {
		s.restoreLocked(doc, name, old, true)
		return err
	}
	s.stats.RecordDelete()
	return nil
}

// Get returns the indexed value of field for doc.
func (s *Store) Get(name string, doc common.DocID) (common.Value, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	f, ok := s.fields[name]
	if !ok {
		return common.Value{}, false
	}
	v, ok := f.values[doc]
	return v, ok
}

// Kind returns the kind of an indexed field.
func (s *Store) Kind(name string) (common.Kind, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	f, ok := s.fields[name]
	if !ok {
		return common.KindInvalid, false
	}
	return f.kind, true
}

// Range returns the sorted documents whose value of field lies in
// [lower, upper]. An inverted range matches nothing.
func (s *Store) Range(name string, lower, upper common.Value) ([]common.DocID, error) {
	var docs []common.DocID
	terms := 0

	plans, err := s.plan(name, lower, upper, func(f *field, p Plan) {
		if p.Lower == p.Upper {
			if postings := f.dict.Postings(p.Lower); postings != nil {
				terms++
				docs = append(docs, postings...)
			}
			return
		}
		f.dict.AscendRange(p.Lower, p.Upper, func(term index.Term) bool {
			terms++
			docs = append(docs, term.Postings...)
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	// subranges are disjoint, so every document shows up once
	slices.Sort(docs)
	s.stats.RecordQuery(len(plans), terms)
	return docs, nil
}

// Explain returns the subranges and token bounds Range would look up.
func (s *Store) Explain(name string, lower, upper common.Value) ([]Plan, error) {
	return s.plan(name, lower, upper, nil)
}

func (s *Store) plan(name string, lower, upper common.Value, visit func(*field, Plan)) ([]Plan, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	f, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if lower.Kind != f.kind || upper.Kind != f.kind {
		return nil, fmt.Errorf("%w: field %q is %s, bounds are %s and %s",
			ErrKindMismatch, name, f.kind, lower.Kind, upper.Kind)
	}
	if err := lower.Validate(); err != nil {
		return nil, fmt.Errorf("lower bound: %w", err)
	}
	if err := upper.Validate(); err != nil {
		return nil, fmt.Errorf("upper bound: %w", err)
	}

	var (
		plans  []Plan
		encErr error
	)
	add := func(min, max int64, shift uint) {
		if encErr != nil {
			return
		}
		p := Plan{
			Min:   common.Value{Kind: f.kind, Bits: min},
			Max:   common.Value{Kind: f.kind, Bits: max},
			Shift: shift,
		}
		if p.Lower, encErr = f.encode(min, shift); encErr != nil {
			return
		}
		if p.Upper, encErr = f.encode(max, shift); encErr != nil {
			return
		}
		plans = append(plans, p)
		if visit != nil {
			visit(f, p)
		}
	}

	var err error
	if f.kind.Width() == trie.Width32 {
		err = trie.SplitInt32Range(int32(lower.Bits), int32(upper.Bits), f.step,
			trie.Int32RangeFunc(func(min, max int32, shift uint) { add(int64(min), int64(max), shift) }))
	} else {
		err = trie.SplitInt64Range(lower.Bits, upper.Bits, f.step, trie.Int64RangeFunc(add))
	}
	if err != nil {
		return nil, err
	}
	if encErr != nil {
		return nil, encErr
	}
	return plans, nil
}

// Fields lists the indexed fields sorted by name.
func (s *Store) Fields() []FieldInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]FieldInfo, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, FieldInfo{
			Name:          f.name,
			Kind:          f.kind,
			KindName:      f.kind.String(),
			PrecisionStep: f.step,
			Docs:          len(f.values),
			Terms:         f.dict.Len(),
		})
	}
	slices.SortFunc(out, func(a, b FieldInfo) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// Flush blocks until every write queued before the call reached the backend.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.enqueue(ctx, writeOp{done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) enqueue(ctx context.Context, op writeOp) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case s.writeCh <- op:
		return nil
	case <-s.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) backgroundPersist() {
	defer s.wg.Done()
	batchSize := s.conf.Storage.BatchSize
	buffer := make([]common.Record, 0, batchSize)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if err := s.backend.BatchWrite(buffer); err != nil {
			slog.Error("batch write failed", "records", len(buffer), "error", err)
			s.stats.RecordPersistError()
		}
		buffer = buffer[:0]
	}

	apply := func(op writeOp) {
		switch {
		case op.done != nil:
			flush()
			close(op.done)
		case op.delete:
			flush()
			if err := s.backend.Delete(op.rec.Doc, op.rec.Field); err != nil {
				slog.Error("delete failed", "doc", op.rec.Doc, "field", op.rec.Field, "error", err)
				s.stats.RecordPersistError()
			}
		default:
			buffer = append(buffer, op.rec)
			if len(buffer) >= batchSize {
				flush()
			}
		}
	}

	for {
		select {
		case op := <-s.writeCh:
			apply(op)
		case <-ticker.C:
			flush()
		case <-s.closeCh:
			for {
				select {
				case op := <-s.writeCh:
					apply(op)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *Store) restore() error {
	records, err := s.backend.LoadAll()
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	skipped := 0
	for _, r := range records {
		if err := s.indexLocked(r.Doc, r.Field, r.Value); err != nil {
			slog.Warn("skipping stored record", "doc", r.Doc, "field", r.Field, "error", err)
			skipped++
		}
	}
	slog.Info("restored records", "count", len(records)-skipped, "skipped", skipped, "fields", len(s.fields))
	return nil
}

// Stats reports index and workload counters.
func (s *Store) Stats() map[string]interface{} {
	fields := s.Fields()
	totalTerms, totalDocs := 0, 0
	for _, f := range fields {
		totalTerms += f.Terms
		totalDocs += f.Docs
	}

	stats := s.stats.Snapshot()
	stats["fields"] = fields
	stats["field_count"] = len(fields)
	stats["indexed_values"] = totalDocs
	stats["terms"] = totalTerms
	stats["pending_writes"] = len(s.writeCh)
	stats["precision_step"] = s.conf.Index.PrecisionStep
	return stats
}

// Reset drops every field and truncates the backend.
func (s *Store) Reset(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.Flush(ctx); err != nil {
		return err
	}
	for _, f := range s.fields {
		f.dict.Clear()
	}
	s.fields = make(map[string]*field)
	return s.backend.Truncate()
}

// Close drains queued writes and closes the backend.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.closeCh)
	s.wg.Wait()
	return s.backend.Close()
}
