package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dhruv-9927/HostelGig/internal/core/database"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/pkg/utils"
)

// newTestDB 每个测试独立的内存 sqlite；cache=shared 让连接池共享同一库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := database.NewGorm(database.Opts{
		Driver: "sqlite", DSN: dsn,
		MaxOpenConns: 10, MaxIdleConns: 2, LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Task{}, &domain.Offer{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID: utils.NewID(), Email: email, Name: email,
		PasswordHash: "x", Role: domain.RoleBoth,
	}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u))
	return u
}

func seedTask(t *testing.T, db *gorm.DB, authorID string, mut func(*domain.Task)) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID: utils.NewID(), Title: "physics assignment", Description: "ten problems",
		Category: domain.CategoryAssignment,
		Price:    decimal.NewFromInt(500),
		Deadline: time.Now().AddDate(0, 0, 7),
		Status:   domain.StatusOpen,
		AuthorID: authorID,
	}
	if mut != nil {
		mut(task)
	}
	require.NoError(t, NewTaskRepo(db).Create(context.Background(), task))
	return task
}
