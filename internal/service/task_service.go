package service

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Dhruv-9927/HostelGig/internal/authz"
	"github.com/Dhruv-9927/HostelGig/internal/core/cache"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/internal/lifecycle"
	"github.com/Dhruv-9927/HostelGig/pkg/utils"
)

var transitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hostelgig_task_transitions_total",
		Help: "Count of task lifecycle transitions by event",
	},
	[]string{"event"},
)

func init() { prometheus.MustRegister(transitionsTotal) }

const taskCacheTTL = 30 * time.Second

// TaskEvent 流转完成后的通知载荷（消息/支付等订阅方用）
type TaskEvent struct {
	TaskID  string
	ActorID string
	Event   lifecycle.Event
	From    domain.TaskStatus
	To      domain.TaskStatus
}

// TaskService 任务生命周期编排：authz + lifecycle 两道校验都过了才写库
type TaskService struct {
	tasks  domain.TaskRepository
	offers domain.OfferRepository
	cache  *cache.Cache // 可为 nil（本地/测试不接 redis）
	subs   []func(TaskEvent)
}

func NewTaskService(tasks domain.TaskRepository, offers domain.OfferRepository, c *cache.Cache) *TaskService {
	return &TaskService{tasks: tasks, offers: offers, cache: c}
}

// Subscribe 注册流转订阅者；启动期调用，不做并发保护
func (s *TaskService) Subscribe(fn func(TaskEvent)) { s.subs = append(s.subs, fn) }

type CreateTaskInput struct {
	Title       string               `json:"title" binding:"required,max=191"`
	Description string               `json:"description"`
	Category    domain.TaskCategory  `json:"category" binding:"required"`
	Price       decimal.Decimal      `json:"price" binding:"required"`
	Deadline    string               `json:"deadline" binding:"required"`
	Print       *domain.PrintOptions `json:"printOptions"`
}

func (s *TaskService) CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (*domain.Task, error) {
	if err := authz.Can(actorID, nil, authz.OpCreateTask); err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, domain.Invalid("category", "unknown category "+string(in.Category))
	}
	if !in.Price.IsPositive() {
		return nil, domain.Invalid("price", "must be positive")
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:          utils.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Deadline:    deadline,
		Status:      domain.StatusOpen,
		AuthorID:    actorID,
	}
	if in.Category == domain.CategoryPrinting {
		if in.Print == nil {
			return nil, domain.Invalid("printOptions", "required for Printing tasks")
		}
		if in.Print.Copies <= 0 {
			return nil, domain.Invalid("printOptions.copies", "must be positive")
		}
		if strings.TrimSpace(in.Print.DropOffLocation) == "" {
			return nil, domain.Invalid("printOptions.dropOffLocation", "required")
		}
		t.SetPrinting(in.Print)
	}
	// 非打印任务即使带了 printOptions 也不落库

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// parseDeadline 接受 RFC3339 或 2006-01-02，且不得早于今天
func parseDeadline(raw string) (time.Time, error) {
	var d time.Time
	var err error
	if d, err = time.Parse(time.RFC3339, raw); err != nil {
		if d, err = time.Parse("2006-01-02", raw); err != nil {
			return time.Time{}, domain.Invalid("deadline", "not a parseable date: "+raw)
		}
	}
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(startOfToday) {
		return time.Time{}, domain.Invalid("deadline", "must not be in the past")
	}
	return d, nil
}

// GetTask 详情读取；接了 redis 时走 30s 读穿缓存
func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if s.cache == nil {
		return s.tasks.FindByID(ctx, id)
	}
	return cache.GetOrLoadJSON[domain.Task](s.cache, ctx, taskCacheKey(id), taskCacheTTL,
		func(ctx context.Context) (*domain.Task, error) {
			return s.tasks.FindByID(ctx, id)
		})
}

func (s *TaskService) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, domain.Invalid("category", "unknown category "+string(f.Category))
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(f.Status))
	}
	return s.tasks.List(ctx, f)
}

type CreateOfferInput struct {
	Price   decimal.Decimal `json:"price" binding:"required"`
	Message string          `json:"message"`
}

func (s *TaskService) CreateOffer(ctx context.Context, actorID, taskID string, in CreateOfferInput) (*domain.Offer, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(actorID, t, authz.OpCreateOffer); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, domain.Invalid("price", "must be positive")
	}
	o := &domain.Offer{
		ID:       utils.NewID(),
		TaskID:   taskID,
		SolverID: actorID,
		Price:    in.Price,
		Message:  in.Message,
		Status:   domain.OfferPending,
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AcceptOffer 作者接单。原子单元见 TaskRepository.AcceptOffer；
// 并发双接单时只有一个护卫更新命中，落败方拿 InvalidTransition。
func (s *TaskService) AcceptOffer(ctx context.Context, actorID, taskID, offerID string) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(actorID, t, authz.OpAcceptOffer); err != nil {
		return nil, err
	}
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.TaskID != taskID {
		return nil, domain.ErrNotFound
	}
	if _, err := lifecycle.Check(t.Status, lifecycle.EventAcceptOffer); err != nil {
		return nil, err
	}

	won, err := s.tasks.AcceptOffer(ctx, taskID, offerID, o.SolverID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.loseRace(ctx, taskID, lifecycle.EventAcceptOffer)
	}
	s.afterTransition(ctx, TaskEvent{
		TaskID: taskID, ActorID: actorID,
		Event: lifecycle.EventAcceptOffer,
		From:  domain.StatusOpen, To: domain.StatusInProgress,
	})
	return s.tasks.FindByID(ctx, taskID)
}

func (s *TaskService) MarkDelivered(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	return s.fire(ctx, actorID, taskID, authz.OpMarkDelivered, lifecycle.EventMarkDelivered)
}

func (s *TaskService) AcceptDelivery(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	return s.fire(ctx, actorID, taskID, authz.OpAcceptDelivery, lifecycle.EventAcceptDelivery)
}

func (s *TaskService) ReportIssue(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	return s.fire(ctx, actorID, taskID, authz.OpReportIssue, lifecycle.EventReportIssue)
}

// Cancel 仅 Open 可撤，状态护卫天然保证“尚无已接受报价”
func (s *TaskService) Cancel(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	return s.fire(ctx, actorID, taskID, authz.OpCancel, lifecycle.EventCancel)
}

// UpdateStatus 通用状态 PATCH：目标串先过流转表再分发到对应事件的授权规则，
// 任意字符串不会直接落库。
func (s *TaskService) UpdateStatus(ctx context.Context, actorID, taskID, target string) (*domain.Task, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ev, err := lifecycle.EventFor(t.Status, domain.TaskStatus(target))
	if err != nil {
		return nil, err
	}
	if ev == lifecycle.EventAcceptOffer {
		// 接单必须带 offerId，走专用端点
		return nil, domain.Invalid("status", "use the accept-offer endpoint to start a task")
	}
	return s.fire(ctx, actorID, taskID, opFor(ev), ev)
}

func opFor(ev lifecycle.Event) authz.Op {
	switch ev {
	case lifecycle.EventMarkDelivered:
		return authz.OpMarkDelivered
	case lifecycle.EventAcceptDelivery:
		return authz.OpAcceptDelivery
	case lifecycle.EventReportIssue:
		return authz.OpReportIssue
	case lifecycle.EventCancel:
		return authz.OpCancel
	}
	return authz.OpAcceptOffer
}

// fire 单步流转的通用路径：读取 → 授权 → 流转表 → 护卫更新
func (s *TaskService) fire(ctx context.Context, actorID, taskID string, op authz.Op, ev lifecycle.Event) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(actorID, t, op); err != nil {
		return nil, err
	}
	to, err := lifecycle.Check(t.Status, ev)
	if err != nil {
		return nil, err
	}
	ok, err := s.tasks.TransitionStatus(ctx, taskID, t.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.loseRace(ctx, taskID, ev)
	}
	s.afterTransition(ctx, TaskEvent{
		TaskID: taskID, ActorID: actorID, Event: ev, From: t.Status, To: to,
	})
	return s.tasks.FindByID(ctx, taskID)
}

// loseRace 护卫更新未命中：重读当前状态，报 InvalidTransition
func (s *TaskService) loseRace(ctx context.Context, taskID string, ev lifecycle.Event) error {
	cur, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	return &domain.InvalidTransitionError{From: cur.Status, Event: string(ev)}
}

func (s *TaskService) afterTransition(ctx context.Context, e TaskEvent) {
	transitionsTotal.WithLabelValues(string(e.Event)).Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx, taskCacheKey(e.TaskID))
	}
	for _, fn := range s.subs {
		fn(e)
	}
}

func taskCacheKey(id string) string { return "task:" + id }
