// Package mock holds hand-written stand-ins for the interfaces package,
// in the field-per-method shape the teacher's `//go:generate moq -stub`
// convention produces. Written by hand here because no code-generation
// toolchain is available in this environment.
package mock

import (
	"context"
	"time"
)

// StoreMock is a stub implementation of interfaces.Store. Each exported
// field is a function invoked by the corresponding method; a nil field
// makes the method panic if called.
type StoreMock struct {
	SetEXFunc            func(ctx context.Context, key string, value string, ttl time.Duration) error
	GetFunc              func(ctx context.Context, key string) (string, error)
	RecordActiveFunc     func(ctx context.Context, clientKey, backendAddr string, ttl time.Duration, backendKey, member string, score float64) error
	ZRemFunc             func(ctx context.Context, key string, member string) error
	ZCountFunc           func(ctx context.Context, key string, min, max float64) (int64, error)
	ZRemRangeByScoreFunc func(ctx context.Context, key string, min, max float64) (int64, error)
	PingFunc             func(ctx context.Context) error
}

func (m *StoreMock) SetEX(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.SetEXFunc(ctx, key, value, ttl)
}

func (m *StoreMock) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}

func (m *StoreMock) RecordActive(ctx context.Context, clientKey, backendAddr string, ttl time.Duration, backendKey, member string, score float64) error {
	return m.RecordActiveFunc(ctx, clientKey, backendAddr, ttl, backendKey, member, score)
}

func (m *StoreMock) ZRem(ctx context.Context, key string, member string) error {
	return m.ZRemFunc(ctx, key, member)
}

func (m *StoreMock) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	return m.ZCountFunc(ctx, key, min, max)
}

func (m *StoreMock) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	return m.ZRemRangeByScoreFunc(ctx, key, min, max)
}

func (m *StoreMock) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
