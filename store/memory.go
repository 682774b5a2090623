package store

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store used by tests and local development.
// All operations are guarded by a single mutex, which makes every
// write atomic the way a single-document store write is.
type Memory struct {
	mu      sync.RWMutex
	colls   map[string]map[string]Document
	seqs    map[string]map[string]uint64
	subs    map[int]*memSub
	nextSub int
	nextSeq uint64

	// NowFunc supplies the store clock; tests may pin it.
	NowFunc func() int64
	// QueryHook, when set, runs before every Query. Tests use it to
	// orchestrate interleavings of concurrent passes.
	QueryHook func(collection string)
}

type memSub struct {
	collection string
	preds      []Predicate
	fn         func(Change)
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		colls:   make(map[string]map[string]Document),
		seqs:    make(map[string]map[string]uint64),
		subs:    make(map[int]*memSub),
		NowFunc: func() int64 { return time.Now().Unix() },
	}
}

func (m *Memory) coll(name string) map[string]Document {
	c, ok := m.colls[name]
	if !ok {
		c = make(map[string]Document)
		m.colls[name] = c
	}
	return c
}

func copyDoc(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Document:
		return copyDoc(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

func looseEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func matches(doc Document, preds []Predicate) bool {
	for _, p := range preds {
		field, ok := doc[p.Field]
		switch p.Op {
		case OpEqual:
			if !ok || !looseEqual(field, p.Value) {
				return false
			}
		case OpArrayContains:
			if !ok || !sliceContains(field, p.Value) {
				return false
			}
		}
	}
	return true
}

func sliceContains(field, value interface{}) bool {
	rv := reflect.ValueOf(field)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(rv.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

// Query returns matches in insertion order, mirroring the natural
// order a real store hands back, so ties on a caller's sort key stay
// deterministic.
func (m *Memory) Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error) {
	if hook := m.QueryHook; hook != nil {
		hook(collection)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	type match struct {
		doc Document
		seq uint64
	}
	var matched []match
	seqs := m.seqs[collection]
	for id, doc := range m.colls[collection] {
		if matches(doc, preds) {
			matched = append(matched, match{doc: doc, seq: seqs[id]})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	var out []Document
	for _, hit := range matched {
		out = append(out, copyDoc(hit.doc))
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.colls[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(doc), nil
}

func (m *Memory) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	id, _ := doc["_id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	stored := copyDoc(doc)
	stored["_id"] = id
	resolveTimestamps(stored, m.NowFunc)
	m.coll(collection)[id] = stored
	if _, ok := m.seqs[collection]; !ok {
		m.seqs[collection] = make(map[string]uint64)
	}
	m.seqs[collection][id] = m.nextSeq
	m.nextSeq++
	subs := m.matchingSubs(collection, stored)
	m.mu.Unlock()

	notify(subs, Change{Kind: ChangeCreated, ID: id, Doc: copyDoc(stored)})
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, partial Document) error {
	ok, err := m.UpdateWhere(ctx, collection, id, nil, partial)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) UpdateWhere(ctx context.Context, collection, id string, preds []Predicate, partial Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	doc, ok := m.coll(collection)[id]
	if !ok || !matches(doc, preds) {
		m.mu.Unlock()
		return false, nil
	}
	applied := copyDoc(partial)
	resolveTimestamps(applied, m.NowFunc)
	for k, v := range applied {
		doc[k] = v
	}
	subs := m.matchingSubs(collection, doc)
	snapshot := copyDoc(doc)
	m.mu.Unlock()

	notify(subs, Change{Kind: ChangeUpdated, ID: id, Doc: snapshot})
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	doc, ok := m.coll(collection)[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.coll(collection), id)
	delete(m.seqs[collection], id)
	subs := m.matchingSubs(collection, doc)
	m.mu.Unlock()

	notify(subs, Change{Kind: ChangeDeleted, ID: id})
	return nil
}

func (m *Memory) matchingSubs(collection string, doc Document) []*memSub {
	var out []*memSub
	for _, s := range m.subs {
		if s.collection == collection && matches(doc, s.preds) {
			out = append(out, s)
		}
	}
	return out
}

func notify(subs []*memSub, change Change) {
	for _, s := range subs {
		s.fn(change)
	}
}

func (m *Memory) Subscribe(ctx context.Context, collection string, preds []Predicate, fn func(Change)) (func(), error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = &memSub{collection: collection, preds: preds, fn: fn}
	m.mu.Unlock()

	stop := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

func (m *Memory) ServerTimestamp() interface{} {
	return timestampSentinel{}
}
