package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Dhruv-9927/HostelGig/internal/domain"
)

type TaskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{db: db} }

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepo) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("AssignedTo").
		Preload("Offers").
		Preload("Offers.Solver").
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List 信息流查询：状态默认 Open，新帖在前。
// 搜索用 LIKE 做子串匹配，大小写是否敏感取决于底层库的排序规则
// （SQLite 对 ASCII 不敏感、Postgres 敏感），属已知限制。
func (r *TaskRepo) List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	status := f.Status
	if status == "" {
		status = domain.StatusOpen
	}
	q := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("status = ?", status).
		Preload("Author")
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	var tasks []domain.Task
	if err := q.Order("created_at desc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, id string, to domain.TaskStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) UpdateAssignee(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).
		Update("assigned_to_id", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TransitionStatus 乐观锁式流转：WHERE 里带上期望的当前状态，
// RowsAffected=0 说明状态已被并发改走，由调用方决定如何报错。
func (r *TaskRepo) TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AcceptOffer 接单的原子单元：同一事务内
//  1. task：Open → In Progress 并指派 solver（状态护卫，竞争失败整体回滚）
//  2. 选中 offer → Accepted
//  3. 该任务其余 Pending offer → Rejected
func (r *TaskRepo) AcceptOffer(ctx context.Context, taskID, offerID, solverID string) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", taskID, domain.StatusOpen).
			Updates(map[string]any{
				"status":         domain.StatusInProgress,
				"assigned_to_id": solverID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 已非 Open：竞争失败或状态早已流转，不视为事务错误
			return nil
		}
		if err := tx.Model(&domain.Offer{}).Where("id = ?", offerID).
			Update("status", domain.OfferAccepted).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Offer{}).
			Where("task_id = ? AND id <> ? AND status = ?", taskID, offerID, domain.OfferPending).
			Update("status", domain.OfferRejected).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}
