package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type UserRepo struct {
	db bun.IDB
}

func NewUserRepo(db bun.IDB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	stamp(&u.CreatedAt, nil)
	_, err := r.db.NewInsert().Model(u).Exec(ctx)
	return err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u := new(models.User)
	err := r.db.NewSelect().Model(u).Where("email = ?", email).Scan(ctx)
	return notFound(u, err)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u := new(models.User)
	err := r.db.NewSelect().Model(u).Where("id = ?", id).Scan(ctx)
	return notFound(u, err)
}

func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]models.User, int, error) {
	users := make([]models.User, 0)
	total, err := r.db.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	return users, total, err
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	_, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
