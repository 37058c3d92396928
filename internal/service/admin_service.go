package service

import (
	"context"
	"fmt"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

type AdminService struct {
	users *repository.UserRepo
}

func NewAdminService(users *repository.UserRepo) *AdminService {
	return &AdminService{users: users}
}

func (s *AdminService) ListUsers(ctx context.Context, skip, limit int) ([]models.UserResponse, int, error) {
	users, total, err := s.users.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, total, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, actor Actor, userID string, role models.Role) (*models.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, invalid("role", "unknown role")
	}
	if userID == actor.UserID && role != models.RoleAdmin {
		return nil, fmt.Errorf("admins cannot demote themselves: %w", ErrConflict)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Role = role
	resp := user.ToResponse()
	return &resp, nil
}
