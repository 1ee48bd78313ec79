package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type kvRecord struct {
	Fields    map[string]json.RawMessage `json:"fields"`
	ExpiresAt int64                      `json:"expires_at,omitempty"` // unix nanoseconds, 0 never expires
}

func (r *kvRecord) ttl() (time.Duration, bool) {
	if r.ExpiresAt == 0 {
		return 0, true
	}
	ttl := time.Until(time.Unix(0, r.ExpiresAt))
	return ttl, ttl > 0
}

// KVStorage adapts a fiber.Storage byte store to Storage. Records are JSON
// encoded, so values need `json` field tags. Field updates are serialised
// by a process local lock.
type KVStorage struct {
	mtx     sync.Mutex
	backend fiber.Storage
}

func (s *KVStorage) load(key string) (*kvRecord, error) {
	raw, err := s.backend.Get(key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	var record kvRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	if _, alive := record.ttl(); !alive {
		return nil, ErrNotFound
	}
	if record.Fields == nil {
		record.Fields = make(map[string]json.RawMessage)
	}
	return &record, nil
}

func (s *KVStorage) save(key string, record *kvRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	ttl, _ := record.ttl()
	return s.backend.Set(key, raw, ttl)
}

func (s *KVStorage) loadOrNew(key string) (*kvRecord, error) {
	record, err := s.load(key)
	if err == ErrNotFound {
		return &kvRecord{Fields: make(map[string]json.RawMessage)}, nil
	}
	return record, err
}

func (s *KVStorage) Get(ctx context.Context, key string, val any) error {
	record, err := s.load(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, val)
}

func (s *KVStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	record := &kvRecord{}
	if err := json.Unmarshal(raw, &record.Fields); err != nil {
		return err
	}
	if expiresIn > 0 {
		record.ExpiresAt = time.Now().Add(expiresIn).UnixNano()
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.save(key, record)
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, err := s.load(key); err != nil {
		return err
	}
	return s.backend.Delete(key)
}

func (s *KVStorage) SetAttr(ctx context.Context, key string, field string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	record, err := s.loadOrNew(key)
	if err != nil {
		return err
	}
	record.Fields[field] = raw
	return s.save(key, record)
}

func (s *KVStorage) IncrAttr(ctx context.Context, key, field string, delta int64) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	record, err := s.loadOrNew(key)
	if err != nil {
		return 0, err
	}
	var current int64
	if raw, ok := record.Fields[field]; ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			return 0, err
		}
	}
	current += delta
	record.Fields[field], _ = json.Marshal(current)
	return current, s.save(key, record)
}

func NewKVStorage(backend fiber.Storage) *KVStorage {
	return &KVStorage{
		backend: backend,
	}
}
