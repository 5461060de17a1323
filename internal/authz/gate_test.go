package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dhruv-9927/HostelGig/internal/domain"
)

func testTask() *domain.Task {
	assignee := "solver-b"
	return &domain.Task{
		ID:           "t1",
		AuthorID:     "author-a",
		AssignedToID: &assignee,
		Status:       domain.StatusInProgress,
	}
}

func TestUnauthenticated(t *testing.T) {
	for _, op := range []Op{OpCreateTask, OpCreateOffer, OpAcceptOffer, OpMarkDelivered, OpAcceptDelivery, OpReportIssue, OpCancel} {
		assert.ErrorIs(t, Can("", testTask(), op), domain.ErrUnauthenticated, string(op))
	}
}

func TestAuthorOnlyOps(t *testing.T) {
	task := testTask()
	for _, op := range []Op{OpAcceptOffer, OpAcceptDelivery, OpReportIssue, OpCancel} {
		assert.NoError(t, Can("author-a", task, op), string(op))
		assert.ErrorIs(t, Can("solver-b", task, op), domain.ErrForbidden, string(op))
		assert.ErrorIs(t, Can("stranger-c", task, op), domain.ErrForbidden, string(op))
	}
}

func TestMarkDeliveredAssigneeOnly(t *testing.T) {
	task := testTask()
	assert.NoError(t, Can("solver-b", task, OpMarkDelivered))
	assert.ErrorIs(t, Can("author-a", task, OpMarkDelivered), domain.ErrForbidden)
	assert.ErrorIs(t, Can("stranger-c", task, OpMarkDelivered), domain.ErrForbidden)

	// 未指派的任务谁也不能交付
	task.AssignedToID = nil
	assert.ErrorIs(t, Can("solver-b", task, OpMarkDelivered), domain.ErrForbidden)
}

func TestCreateOffer(t *testing.T) {
	task := testTask()
	// 作者不能给自己的任务报价
	assert.ErrorIs(t, Can("author-a", task, OpCreateOffer), domain.ErrForbidden)
	assert.NoError(t, Can("stranger-c", task, OpCreateOffer))
	assert.NoError(t, Can("solver-b", task, OpCreateOffer))
}

func TestCreateTaskAnyUser(t *testing.T) {
	assert.NoError(t, Can("anyone", nil, OpCreateTask))
}
