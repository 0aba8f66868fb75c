package service

import (
	"context"
	"strings"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/utils"
)

// ProfileStore is the part of the credential store profile changes use.
type ProfileStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p model.UserPatch) error
	UpdateMetrics(ctx context.Context, id uint64, p model.MetricsPatch) error
}

// UserService applies profile and metrics changes for the signed-in user.
type UserService struct {
	users      ProfileStore
	bcryptCost int
}

func NewUserService(users ProfileStore, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// ProfileInput is a sparse profile change.  Password is plaintext and is
// hashed before storage.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Password  *string
}

// Profile returns the current record for id.
func (s *UserService) Profile(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies in and returns the updated record.
func (s *UserService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput) (model.User, error) {
	var p model.UserPatch
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		p.FirstName = &v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		p.LastName = &v
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		p.PasswordHash = &hash
	}
	if err := s.users.UpdateProfile(ctx, id, p); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

// UpdateMetrics stores the fitness metrics in p and returns the updated record.
func (s *UserService) UpdateMetrics(ctx context.Context, id uint64, p model.MetricsPatch) (model.User, error) {
	if err := s.users.UpdateMetrics(ctx, id, p); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}
