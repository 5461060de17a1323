package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TaskStatus string

// 状态值与前端约定保持一致（含空格）
const (
	StatusOpen       TaskStatus = "Open"
	StatusInProgress TaskStatus = "In Progress"
	StatusDelivered  TaskStatus = "Delivered"
	StatusCompleted  TaskStatus = "Completed"
	StatusCancelled  TaskStatus = "Cancelled"
	StatusDisputed   TaskStatus = "Disputed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDelivered, StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	}
	return false
}

// Assigned 报告该状态下任务是否必须有接单人
func (s TaskStatus) Assigned() bool {
	switch s {
	case StatusInProgress, StatusDelivered, StatusCompleted, StatusDisputed:
		return true
	}
	return false
}

type TaskCategory string

const (
	CategoryAssignment TaskCategory = "Assignment"
	CategoryLabFile    TaskCategory = "Lab File"
	CategoryProject    TaskCategory = "Project"
	CategoryPPT        TaskCategory = "PPT"
	CategoryCoding     TaskCategory = "Coding"
	CategoryEditing    TaskCategory = "Editing"
	CategoryPrinting   TaskCategory = "Printing"
	CategoryNotes      TaskCategory = "Notes"
	CategoryPoster     TaskCategory = "Poster"
	CategoryOther      TaskCategory = "Other"
)

func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryAssignment, CategoryLabFile, CategoryProject, CategoryPPT, CategoryCoding,
		CategoryEditing, CategoryPrinting, CategoryNotes, CategoryPoster, CategoryOther:
		return true
	}
	return false
}

// PrintOptions 打印类目的附加参数，对外以嵌套对象呈现
type PrintOptions struct {
	Color           bool   `json:"color"`
	Sides           string `json:"sides" binding:"omitempty,oneof=single double"`
	Binding         bool   `json:"binding"`
	Copies          int    `json:"copies"`
	DropOffLocation string `json:"dropOffLocation"`
	FileURL         string `json:"fileUrl,omitempty"`
}

type Task struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	Title       string          `gorm:"size:191;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Category    TaskCategory    `gorm:"size:32;not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Deadline    time.Time       `json:"deadline"`
	Status      TaskStatus      `gorm:"size:16;not null;index" json:"status"`

	AuthorID     string  `gorm:"size:36;not null;index" json:"authorId"`
	Author       *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	AssignedToID *string `gorm:"size:36;index" json:"assignedToId,omitempty"`
	AssignedTo   *User   `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	Offers       []Offer `gorm:"foreignKey:TaskID" json:"offers,omitempty"`

	// Printing 专用列，平铺存储，仅 category=Printing 时写入
	PrintColor      *bool   `json:"-"`
	PrintSides      *string `gorm:"size:8" json:"-"`
	PrintBinding    *bool   `json:"-"`
	PrintCopies     *int    `json:"-"`
	DropOffLocation *string `gorm:"size:191" json:"-"`
	PrintFileURL    *string `gorm:"size:255" json:"-"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// Printing 读出嵌套的打印参数；非打印任务返回 nil
func (t *Task) Printing() *PrintOptions {
	if t.Category != CategoryPrinting || t.PrintCopies == nil {
		return nil
	}
	o := &PrintOptions{Copies: *t.PrintCopies}
	if t.PrintColor != nil {
		o.Color = *t.PrintColor
	}
	if t.PrintSides != nil {
		o.Sides = *t.PrintSides
	}
	if t.PrintBinding != nil {
		o.Binding = *t.PrintBinding
	}
	if t.DropOffLocation != nil {
		o.DropOffLocation = *t.DropOffLocation
	}
	if t.PrintFileURL != nil {
		o.FileURL = *t.PrintFileURL
	}
	return o
}

// SetPrinting 写入打印参数；传 nil 清空全部打印列
func (t *Task) SetPrinting(o *PrintOptions) {
	if o == nil {
		t.PrintColor, t.PrintSides, t.PrintBinding = nil, nil, nil
		t.PrintCopies, t.DropOffLocation, t.PrintFileURL = nil, nil, nil
		return
	}
	t.PrintColor = &o.Color
	t.PrintSides = &o.Sides
	t.PrintBinding = &o.Binding
	t.PrintCopies = &o.Copies
	t.DropOffLocation = &o.DropOffLocation
	if o.FileURL != "" {
		t.PrintFileURL = &o.FileURL
	}
}

// TaskFilter 列表筛选；Status 为空时默认只看 Open（信息流语义）
type TaskFilter struct {
	Category TaskCategory
	Search   string
	Status   TaskStatus
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	// FindByID 预加载 author/assignedTo/offers(+solver)；不存在返回 ErrNotFound
	FindByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, f TaskFilter) ([]Task, error)
	UpdateStatus(ctx context.Context, id string, to TaskStatus) error
	UpdateAssignee(ctx context.Context, id, userID string) error
	// TransitionStatus 带状态前置条件的更新，命中返回 true；并发竞争的串行化点
	TransitionStatus(ctx context.Context, id string, from, to TaskStatus) (bool, error)
	// AcceptOffer 在单个事务内完成：task Open→In Progress + 指派 solver、
	// 选中 offer→Accepted、其余 Pending offer→Rejected。
	// 状态前置条件未命中（已被并发接单或已非 Open）返回 false。
	AcceptOffer(ctx context.Context, taskID, offerID, solverID string) (bool, error)
}
