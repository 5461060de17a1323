package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dhruv-9927/HostelGig/internal/core/database"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/internal/lifecycle"
	"github.com/Dhruv-9927/HostelGig/internal/repo"
	"github.com/Dhruv-9927/HostelGig/pkg/utils"
)

type fixture struct {
	db    *gorm.DB
	users *repo.UserRepo
	svc   *TaskService

	author *domain.User
	solver *domain.User
	other  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	// sqlite 写事务并发会直接报表锁，单连接让写入在连接池层排队
	db, err := database.NewGorm(database.Opts{
		Driver: "sqlite", DSN: dsn,
		MaxOpenConns: 1, MaxIdleConns: 1, LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Task{}, &domain.Offer{}))

	f := &fixture{
		db:    db,
		users: repo.NewUserRepo(db),
		svc:   NewTaskService(repo.NewTaskRepo(db), repo.NewOfferRepo(db), nil),
	}
	f.author = f.newUser(t, "author@campus.edu")
	f.solver = f.newUser(t, "solver@campus.edu")
	f.other = f.newUser(t, "other@campus.edu")
	return f
}

func (f *fixture) newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, Name: email, PasswordHash: "x", Role: domain.RoleBoth}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func deadline() string { return time.Now().AddDate(0, 0, 7).Format("2006-01-02") }

func (f *fixture) newTask(t *testing.T, mut func(*CreateTaskInput)) *domain.Task {
	t.Helper()
	in := CreateTaskInput{
		Title: "physics assignment", Description: "ten problems",
		Category: domain.CategoryAssignment,
		Price:    decimal.NewFromInt(500),
		Deadline: deadline(),
	}
	if mut != nil {
		mut(&in)
	}
	task, err := f.svc.CreateTask(context.Background(), f.author.ID, in)
	require.NoError(t, err)
	return task
}

func (f *fixture) newOffer(t *testing.T, solverID, taskID string) *domain.Offer {
	t.Helper()
	o, err := f.svc.CreateOffer(context.Background(), solverID, taskID, CreateOfferInput{
		Price: decimal.NewFromInt(500), Message: "can do by friday",
	})
	require.NoError(t, err)
	return o
}

// assignedTo 与状态的绑定关系：每次流转后都要成立
func assertAssignedInvariant(t *testing.T, task *domain.Task) {
	t.Helper()
	if task.Status.Assigned() {
		assert.NotNil(t, task.AssignedToID, "status %s requires an assignee", task.Status)
	} else {
		assert.Nil(t, task.AssignedToID, "status %s must not have an assignee", task.Status)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		mut  func(*CreateTaskInput)
	}{
		{"zero price", func(in *CreateTaskInput) { in.Price = decimal.Zero }},
		{"negative price", func(in *CreateTaskInput) { in.Price = decimal.NewFromInt(-5) }},
		{"garbage deadline", func(in *CreateTaskInput) { in.Deadline = "next tuesday" }},
		{"past deadline", func(in *CreateTaskInput) { in.Deadline = "2020-01-01" }},
		{"unknown category", func(in *CreateTaskInput) { in.Category = "Gardening" }},
		{"printing without options", func(in *CreateTaskInput) { in.Category = domain.CategoryPrinting }},
		{"printing zero copies", func(in *CreateTaskInput) {
			in.Category = domain.CategoryPrinting
			in.Print = &domain.PrintOptions{Copies: 0, DropOffLocation: "H4"}
		}},
		{"printing no drop-off", func(in *CreateTaskInput) {
			in.Category = domain.CategoryPrinting
			in.Print = &domain.PrintOptions{Copies: 2}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := CreateTaskInput{
				Title: "x", Category: domain.CategoryAssignment,
				Price: decimal.NewFromInt(100), Deadline: deadline(),
			}
			c.mut(&in)
			_, err := f.svc.CreateTask(ctx, f.author.ID, in)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	// 未登录直接拒绝
	_, err := f.svc.CreateTask(ctx, "", CreateTaskInput{
		Title: "x", Category: domain.CategoryAssignment,
		Price: decimal.NewFromInt(100), Deadline: deadline(),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNonPrintingTaskNeverKeepsPrintFields(t *testing.T) {
	f := newFixture(t)
	task := f.newTask(t, func(in *CreateTaskInput) {
		// 非打印类目夹带 printOptions，创建后必须为空
		in.Print = &domain.PrintOptions{Copies: 9, DropOffLocation: "H1"}
	})
	got, err := f.svc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Printing())
}

func TestFullLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.newTask(t, nil)
	assert.Equal(t, domain.StatusOpen, task.Status)
	assertAssignedInvariant(t, task)

	offer := f.newOffer(t, f.solver.ID, task.ID)

	// 作者接单
	task, err := f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, task.Status)
	require.NotNil(t, task.AssignedToID)
	assert.Equal(t, f.solver.ID, *task.AssignedToID)
	assertAssignedInvariant(t, task)

	// 接单人交付
	task, err = f.svc.MarkDelivered(ctx, f.solver.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, task.Status)
	assertAssignedInvariant(t, task)

	// 作者验收
	task, err = f.svc.AcceptDelivery(ctx, f.author.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assertAssignedInvariant(t, task)

	// 完结后再交付 → 非法流转
	_, err = f.svc.MarkDelivered(ctx, f.solver.ID, task.ID)
	var te *domain.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusCompleted, te.From)
}

func TestReportIssueLeadsToDisputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	offer := f.newOffer(t, f.solver.ID, task.ID)

	_, err := f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDelivered(ctx, f.solver.ID, task.ID)
	require.NoError(t, err)

	task, err = f.svc.ReportIssue(ctx, f.author.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisputed, task.Status)
	assertAssignedInvariant(t, task)
}

func TestCancelLocksOutAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	offer := f.newOffer(t, f.solver.ID, task.ID)

	got, err := f.svc.Cancel(ctx, f.author.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assertAssignedInvariant(t, got)

	_, err = f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	var te *domain.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusCancelled, te.From)
}

func TestAuthorizationGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	offer := f.newOffer(t, f.solver.ID, task.ID)

	// 作者不能给自己的任务报价
	_, err := f.svc.CreateOffer(ctx, f.author.ID, task.ID, CreateOfferInput{Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// 非作者不能接单
	_, err = f.svc.AcceptOffer(ctx, f.solver.ID, task.ID, offer.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	require.NoError(t, err)

	// In Progress 状态下非接单人交付也必须 Forbidden（授权先于状态检查对外一致）
	_, err = f.svc.MarkDelivered(ctx, f.other.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.MarkDelivered(ctx, f.author.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// 非作者不能验收/报争议
	_, err = f.svc.MarkDelivered(ctx, f.solver.ID, task.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptDelivery(ctx, f.solver.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.ReportIssue(ctx, f.other.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAcceptRejectsOtherPendingOffers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	o1 := f.newOffer(t, f.solver.ID, task.ID)
	o2 := f.newOffer(t, f.other.ID, task.ID)

	got, err := f.svc.AcceptOffer(ctx, f.author.ID, task.ID, o1.ID)
	require.NoError(t, err)

	statuses := map[string]domain.OfferStatus{}
	for _, o := range got.Offers {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, domain.OfferAccepted, statuses[o1.ID])
	assert.Equal(t, domain.OfferRejected, statuses[o2.ID])
}

func TestGenericUpdateStatusIsValidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	offer := f.newOffer(t, f.solver.ID, task.ID)

	// 任意字符串不落库
	_, err := f.svc.UpdateStatus(ctx, f.author.ID, task.ID, "Archived")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	// In Progress 必须走接单端点，不能用通用 PATCH
	_, err = f.svc.UpdateStatus(ctx, f.author.ID, task.ID, string(domain.StatusInProgress))
	assert.ErrorAs(t, err, &ve)

	_, err = f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	require.NoError(t, err)

	// 通用 PATCH 也要过同一套授权：作者不能替接单人交付
	_, err = f.svc.UpdateStatus(ctx, f.author.ID, task.ID, string(domain.StatusDelivered))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.UpdateStatus(ctx, f.solver.ID, task.ID, string(domain.StatusDelivered))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	got, err = f.svc.UpdateStatus(ctx, f.author.ID, task.ID, string(domain.StatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestConcurrentAcceptOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.newTask(t, nil)
	o1 := f.newOffer(t, f.solver.ID, task.ID)
	o2 := f.newOffer(t, f.other.ID, task.ID)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = f.svc.AcceptOffer(ctx, f.author.ID, task.ID, o1.ID) }()
	go func() { defer wg.Done(); _, errs[1] = f.svc.AcceptOffer(ctx, f.author.ID, task.ID, o2.ID) }()
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		}
	}
	assert.Equal(t, 1, okCount, "exactly one acceptOffer must win")

	got, err := f.svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.AssignedToID)

	accepted := 0
	for _, o := range got.Offers {
		if o.Status == domain.OfferAccepted {
			accepted++
			assert.Equal(t, o.SolverID, *got.AssignedToID)
		}
	}
	assert.Equal(t, 1, accepted, "at most one offer may ever be Accepted")
}

func TestTransitionSubscribers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	var events []TaskEvent
	f.svc.Subscribe(func(e TaskEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	task := f.newTask(t, nil)
	offer := f.newOffer(t, f.solver.ID, task.ID)
	_, err := f.svc.AcceptOffer(ctx, f.author.ID, task.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDelivered(ctx, f.solver.ID, task.ID)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, lifecycle.EventAcceptOffer, events[0].Event)
	assert.Equal(t, domain.StatusOpen, events[0].From)
	assert.Equal(t, domain.StatusInProgress, events[0].To)
	assert.Equal(t, lifecycle.EventMarkDelivered, events[1].Event)
	assert.Equal(t, f.solver.ID, events[1].ActorID)
}

func TestOfferOnUnknownTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOffer(context.Background(), f.solver.ID, "ghost", CreateOfferInput{
		Price: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptOfferFromAnotherTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.newTask(t, nil)
	t2 := f.newTask(t, func(in *CreateTaskInput) { in.Title = "another" })
	offer := f.newOffer(t, f.solver.ID, t2.ID)

	// offer 不属于该任务
	_, err := f.svc.AcceptOffer(ctx, f.author.ID, t1.ID, offer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
