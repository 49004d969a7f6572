package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/repository"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// makeSubscribers returns n subscribers newest first, ids s<n-1>..s0.
func makeSubscribers(n int) []entities.Subscriber {
	out := make([]entities.Subscriber, 0, n)
	for i := n - 1; i >= 0; i-- {
		name := fmt.Sprintf("Visitor %d", i)
		out = append(out, entities.Subscriber{
			ID:        fmt.Sprintf("s%d", i),
			Name:      &name,
			Email:     fmt.Sprintf("visitor%d@example.com", i),
			CreatedAt: baseTime.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

type fakeSource struct {
	mu    sync.Mutex
	subs  []entities.Subscriber
	err   error
	calls int
}

func (f *fakeSource) ListNewestFirst(ctx context.Context) ([]entities.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]entities.Subscriber(nil), f.subs...), nil
}

type fakeWriter struct {
	emails map[string]bool
	err    error
	last   *entities.Subscriber
}

func (f *fakeWriter) Insert(ctx context.Context, s *entities.Subscriber) error {
	if f.err != nil {
		return f.err
	}
	if f.emails == nil {
		f.emails = map[string]bool{}
	}
	if f.emails[s.Email] {
		return repository.ErrDuplicateEmail
	}
	f.emails[s.Email] = true
	s.ID = fmt.Sprintf("id-%d", len(f.emails))
	s.CreatedAt = baseTime
	f.last = s
	return nil
}

type fakeCredentials struct {
	rows    map[string]string
	err     error
	created []string
}

func (f *fakeCredentials) GetByEmail(ctx context.Context, email string) (*entities.AdminCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	stored, ok := f.rows[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entities.AdminCredential{ID: 1, Email: email, Password: entities.ParsePasswordValue(stored)}, nil
}

func (f *fakeCredentials) Create(ctx context.Context, email, storedPassword string) error {
	if f.rows == nil {
		f.rows = map[string]string{}
	}
	f.rows[email] = storedPassword
	f.created = append(f.created, email)
	return nil
}
