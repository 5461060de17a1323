package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleHirer  UserRole = "hirer"
	RoleSolver UserRole = "solver"
	RoleBoth   UserRole = "both"
	RoleAdmin  UserRole = "admin" // 后台专用
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleHirer, RoleSolver, RoleBoth, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string   `gorm:"primaryKey;size:36" json:"id"`
	Email        string   `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string   `gorm:"size:64;not null" json:"name"`
	PasswordHash string   `gorm:"size:191;not null" json:"-"`
	Role         UserRole `gorm:"size:16;not null;default:both" json:"role"`
	Avatar       string   `gorm:"size:255" json:"avatar"`
	Rating       float64  `json:"rating"`                 // 外部累计，本服务只读
	Reviews      int      `json:"reviews"`                // 同上
	Skills       string   `gorm:"size:255" json:"skills"` // 逗号分隔

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	// Create 邮箱唯一冲突时返回 ErrConflict
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, q string, offset, limit int) ([]User, int64, error)
	SoftDelete(ctx context.Context, id string) error
}
