package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage keeps small records as field maps with an optional expiry. A
// negative expiresIn keeps the record until it is deleted.
type Storage interface {
	Get(ctx context.Context, key string, val any) error
	Set(ctx context.Context, key string, val any, expiresIn time.Duration) error
	Delete(ctx context.Context, key string) error
	SetAttr(ctx context.Context, key string, field string, val any) error
	IncrAttr(ctx context.Context, key, field string, delta int64) (int64, error)
}

type Store[T any] interface {
	Storage() Storage
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, val T, expiresIn time.Duration) error
	Delete(ctx context.Context, key string) error
	SetAttr(ctx context.Context, key string, field string, val any) error
	IncrAttr(ctx context.Context, key, field string, delta int64) (int64, error)
}
