package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "Pending"
	OfferAccepted OfferStatus = "Accepted"
	// 接单时其余报价统一置为 Rejected（落选），而不是留在 Pending
	OfferRejected OfferStatus = "Rejected"
)

type Offer struct {
	ID       string          `gorm:"primaryKey;size:36" json:"id"`
	TaskID   string          `gorm:"size:36;not null;index" json:"taskId"`
	SolverID string          `gorm:"size:36;not null;index" json:"solverId"`
	Solver   *User           `gorm:"foreignKey:SolverID" json:"solver,omitempty"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Message  string          `gorm:"type:text" json:"message"`
	Status   OfferStatus     `gorm:"size:16;not null;default:Pending" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Offer) TableName() string { return "offers" }

type OfferRepository interface {
	// Create 任务不存在返回 ErrNotFound
	Create(ctx context.Context, o *Offer) error
	FindByID(ctx context.Context, id string) (*Offer, error)
	ListByTask(ctx context.Context, taskID string) ([]Offer, error)
	UpdateStatus(ctx context.Context, id string, to OfferStatus) error
}
