package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/redis"
)

type stubEventRepository struct {
	getCalls int
	event    *domain.Event
	updated  bool
}

func (s *stubEventRepository) Create(ctx context.Context, event *domain.Event) error { return nil }

func (s *stubEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	s.getCalls++
	if s.event == nil {
		return nil, domain.ErrEventNotFound
	}
	return s.event, nil
}

func (s *stubEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, error) {
	return nil, nil
}

func (s *stubEventRepository) Update(ctx context.Context, event *domain.Event) error {
	s.updated = true
	return nil
}

func (s *stubEventRepository) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubEventRepository) AddViews(ctx context.Context, counts map[uuid.UUID]int64) error {
	return nil
}

func (s *stubEventRepository) IncrementFavorites(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func cachedEvent() *domain.Event {
	return &domain.Event{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Title:     "Summit",
		Status:    domain.EventStatusPublished,
		StartDate: time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 1, 22, 0, 0, 0, time.UTC),
	}
}

func TestCachedEventRepository_MissThenHit(t *testing.T) {
	event := cachedEvent()
	key := eventCachePrefix + event.ID.String()
	buf, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, buf, eventCacheTTL).SetVal("OK")
	mock.ExpectGet(key).SetVal(string(buf))

	inner := &stubEventRepository{event: event}
	repo := NewCachedEventRepository(inner, redis.Wrap(db))

	for i := 0; i < 2; i++ {
		got, err := repo.GetByID(context.Background(), event.ID)
		if err != nil {
			t.Fatalf("GetByID() call %d error = %v", i+1, err)
		}
		if got.Title != event.Title {
			t.Errorf("call %d title = %q, want %q", i+1, got.Title, event.Title)
		}
	}

	if inner.getCalls != 1 {
		t.Errorf("inner GetByID calls = %d, want 1 (second read should be served from cache)", inner.getCalls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Redis being down must not break reads.
func TestCachedEventRepository_FailsOpen(t *testing.T) {
	event := cachedEvent()
	key := eventCachePrefix + event.ID.String()
	buf, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(key).SetErr(context.DeadlineExceeded)
	mock.ExpectSet(key, buf, eventCacheTTL).SetErr(context.DeadlineExceeded)

	repo := NewCachedEventRepository(&stubEventRepository{event: event}, redis.Wrap(db))

	got, err := repo.GetByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != event.ID {
		t.Errorf("event id = %v, want %v", got.ID, event.ID)
	}
}

func TestCachedEventRepository_UpdateInvalidates(t *testing.T) {
	event := cachedEvent()
	key := eventCachePrefix + event.ID.String()

	db, mock := redismock.NewClientMock()
	mock.ExpectDel(key).SetVal(1)

	inner := &stubEventRepository{event: event}
	repo := NewCachedEventRepository(inner, redis.Wrap(db))

	if err := repo.Update(context.Background(), event); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !inner.updated {
		t.Error("inner Update not called")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
