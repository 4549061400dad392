package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/models"
)

type PublishedEvent struct {
	Channel string
	Event   events.Event
}

type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, channel string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, PublishedEvent{Channel: channel, Event: event})
	return nil
}

func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []models.AuditLog
	Err     error
}

func (a *MemoryAuditLog) Log(ctx context.Context, entry models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *MemoryAuditLog) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditLog
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *MemoryAuditLog) Entries() []models.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditLog(nil), a.entries...)
}
