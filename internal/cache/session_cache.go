// Package cache holds the session sinks that receive the signed-in user's {courseId, role}.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/SAP-F-2025/classroom-session/internal/models"
)

// SessionSink receives every change of the current session.
type SessionSink interface {
	Publish(ctx context.Context, session models.SessionDetails) error
	Clear(ctx context.Context) error
}

// SessionLoader restores the last published session. found is false after Clear.
type SessionLoader interface {
	Load(ctx context.Context) (session models.SessionDetails, found bool, err error)
}

// MemorySessionCache keeps the session in process memory.
type MemorySessionCache struct {
	mu      sync.RWMutex
	session *models.SessionDetails
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{}
}

func (c *MemorySessionCache) Publish(ctx context.Context, session models.SessionDetails) error {
	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	return nil
}

func (c *MemorySessionCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return nil
}

func (c *MemorySessionCache) Load(ctx context.Context) (models.SessionDetails, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return models.SessionDetails{}, false, nil
	}
	return *c.session, true, nil
}

// MultiSink fans a session change out to every sink and joins their errors.
type MultiSink []SessionSink

func (m MultiSink) Publish(ctx context.Context, session models.SessionDetails) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, session); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Clear(ctx context.Context) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
