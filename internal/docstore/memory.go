package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// local runs without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]Document
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string]Document),
		clock: time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, kind, key string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[kind][key]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := sonic.Unmarshal(doc.Data, out); err != nil {
		return false, fmt.Errorf("decode document %s/%s: %w", kind, key, err)
	}
	return true, nil
}

func (s *MemoryStore) Put(_ context.Context, kind, key string, doc any) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", kind, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string]Document)
	}
	s.docs[kind][key] = Document{
		Kind:      kind,
		Key:       key,
		Data:      data,
		UpdatedAt: s.clock().UTC(),
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, kind string, filter map[string]any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.docs[kind]))
	for key := range s.docs[kind] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Document, 0, len(keys))
	for _, key := range keys {
		doc := s.docs[kind][key]
		match, err := documentMatches(doc, filter)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) IncrementCounter(_ context.Context, kind, key string, seed any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[kind][key]
	if !ok {
		data, err := sonic.Marshal(seed)
		if err != nil {
			return 0, fmt.Errorf("encode counter seed %s/%s: %w", kind, key, err)
		}
		var fields map[string]any
		if err := sonic.Unmarshal(data, &fields); err != nil {
			return 0, fmt.Errorf("decode counter seed %s/%s: %w", kind, key, err)
		}
		used := intField(fields, "used")
		if used < 1 {
			used = 1
			fields["used"] = used
		}
		return used, s.storeFields(kind, key, fields)
	}

	var fields map[string]any
	if err := sonic.Unmarshal(doc.Data, &fields); err != nil {
		return 0, fmt.Errorf("decode counter %s/%s: %w", kind, key, err)
	}
	used := intField(fields, "used") + 1
	fields["used"] = used
	return used, s.storeFields(kind, key, fields)
}

func (s *MemoryStore) storeFields(kind, key string, fields map[string]any) error {
	data, err := sonic.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode counter %s/%s: %w", kind, key, err)
	}
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string]Document)
	}
	s.docs[kind][key] = Document{
		Kind:      kind,
		Key:       key,
		Data:      data,
		UpdatedAt: s.clock().UTC(),
	}
	return nil
}

func documentMatches(doc Document, filter map[string]any) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}

	var fields map[string]any
	if err := sonic.Unmarshal(doc.Data, &fields); err != nil {
		return false, fmt.Errorf("decode document %s/%s: %w", doc.Kind, doc.Key, err)
	}

	for name, want := range filter {
		got, ok := fields[name]
		if !ok {
			return false, nil
		}
		// Round-trip the expected value through JSON so int vs float64
		// and struct vs map representations compare equal.
		wantJSON, err := sonic.Marshal(want)
		if err != nil {
			return false, fmt.Errorf("encode filter field %s: %w", name, err)
		}
		var normalized any
		if err := sonic.Unmarshal(wantJSON, &normalized); err != nil {
			return false, fmt.Errorf("decode filter field %s: %w", name, err)
		}
		if !reflect.DeepEqual(got, normalized) {
			return false, nil
		}
	}
	return true, nil
}

func intField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
