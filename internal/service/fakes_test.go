package service

import (
	"context"
	"sync"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/queue"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// memUsers is an in-memory credential store.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uint64]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.SubscriptionStatus = model.SubscriptionInactive
	u.PlanTier = model.PlanFree
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	cp := *u
	cp.PasswordHash = ""
	return cp, nil
}

func (m *memUsers) ConfirmEmail(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			u.IsVerified = true
			u.VerificationToken = nil
			return nil
		}
	}
	return repository.ErrVerificationTokenNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, p model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return nil
}

func (m *memUsers) UpdateMetrics(_ context.Context, id uint64, p model.MetricsPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if p.Height != nil {
		u.Height = p.Height
	}
	if p.CurrentWeight != nil {
		u.CurrentWeight = p.CurrentWeight
	}
	if p.GoalWeight != nil {
		u.GoalWeight = p.GoalWeight
	}
	if p.Unit != nil {
		u.Unit = p.Unit
	}
	return nil
}

func (m *memUsers) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email && u.VerificationToken != nil {
			return *u.VerificationToken
		}
	}
	return ""
}

// recordingNotifier captures sent events and can be told to fail or block.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []queue.VerificationRequested
	err   error
	block chan struct{}
}

func (r *recordingNotifier) SendVerification(ctx context.Context, ev queue.VerificationRequested) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, ev)
	return nil
}

func (r *recordingNotifier) events() []queue.VerificationRequested {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.VerificationRequested(nil), r.sent...)
}
