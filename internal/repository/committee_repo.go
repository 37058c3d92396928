package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type CommitteeRepo struct {
	db bun.IDB
}

func NewCommitteeRepo(db bun.IDB) *CommitteeRepo {
	return &CommitteeRepo{db: db}
}

func (r *CommitteeRepo) Create(ctx context.Context, m *models.CommitteeMember) error {
	stamp(&m.CreatedAt, nil)
	_, err := r.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (r *CommitteeRepo) FindByID(ctx context.Context, id string) (*models.CommitteeMember, error) {
	m := new(models.CommitteeMember)
	err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	return notFound(m, err)
}

func (r *CommitteeRepo) ListByEvent(ctx context.Context, eventID string) ([]models.CommitteeMember, error) {
	members := make([]models.CommitteeMember, 0)
	err := r.db.NewSelect().
		Model(&members).
		Where("event_id = ?", eventID).
		Order("last_name ASC", "first_name ASC").
		Scan(ctx)
	return members, err
}

// FindByIDs returns the members among ids, keyed by id.
func (r *CommitteeRepo) FindByIDs(ctx context.Context, ids []string) (map[string]models.CommitteeMember, error) {
	out := make(map[string]models.CommitteeMember, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members := make([]models.CommitteeMember, 0, len(ids))
	if err := r.db.NewSelect().
		Model(&members).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.ID] = m
	}
	return out, nil
}

// FindForUser returns the member rows linked to a user account. Rows are
// linked only by accepting an invitation, never by a matching email.
func (r *CommitteeRepo) FindForUser(ctx context.Context, userID string) ([]models.CommitteeMember, error) {
	members := make([]models.CommitteeMember, 0)
	if userID == "" {
		return members, nil
	}
	err := r.db.NewSelect().
		Model(&members).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	return members, err
}

func (r *CommitteeRepo) Update(ctx context.Context, m *models.CommitteeMember) error {
	_, err := r.db.NewUpdate().
		Model(m).
		Column("first_name", "last_name", "email", "affiliation", "user_id").
		WherePK().
		Exec(ctx)
	return err
}

func (r *CommitteeRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.CommitteeMember)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

type JuryRepo struct {
	db bun.IDB
}

func NewJuryRepo(db bun.IDB) *JuryRepo {
	return &JuryRepo{db: db}
}

func (r *JuryRepo) Create(ctx context.Context, m *models.JuryMember) error {
	stamp(&m.CreatedAt, nil)
	_, err := r.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (r *JuryRepo) FindByID(ctx context.Context, id string) (*models.JuryMember, error) {
	m := new(models.JuryMember)
	err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	return notFound(m, err)
}

func (r *JuryRepo) ListByEvent(ctx context.Context, eventID string) ([]models.JuryMember, error) {
	members := make([]models.JuryMember, 0)
	err := r.db.NewSelect().
		Model(&members).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Scan(ctx)
	return members, err
}

func (r *JuryRepo) Update(ctx context.Context, m *models.JuryMember) error {
	_, err := r.db.NewUpdate().
		Model(m).
		Column("name", "email", "title").
		WherePK().
		Exec(ctx)
	return err
}

func (r *JuryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.JuryMember)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
