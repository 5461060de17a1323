package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Dhruv-9927/HostelGig/internal/domain"
)

type OfferRepo struct{ db *gorm.DB }

func NewOfferRepo(db *gorm.DB) *OfferRepo { return &OfferRepo{db: db} }

func (r *OfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	// 先确认任务存在，未知 taskId 直接 NotFound
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", o.TaskID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OfferRepo) FindByID(ctx context.Context, id string) (*domain.Offer, error) {
	var o domain.Offer
	err := r.db.WithContext(ctx).Preload("Solver").First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).Preload("Solver").
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *OfferRepo) UpdateStatus(ctx context.Context, id string, to domain.OfferStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Offer{}).Where("id = ?", id).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
