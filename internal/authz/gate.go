// Package authz 访问控制闸门：谁能对任务做什么。
// 只做主体判定，不看任务状态——状态合法性由 lifecycle 单独把关，两道都要过。
package authz

import (
	"github.com/Dhruv-9927/HostelGig/internal/domain"
)

type Op string

const (
	OpCreateTask     Op = "createTask"
	OpCreateOffer    Op = "createOffer"
	OpAcceptOffer    Op = "acceptOffer"
	OpMarkDelivered  Op = "markDelivered"
	OpAcceptDelivery Op = "acceptDelivery"
	OpReportIssue    Op = "reportIssue"
	OpCancel         Op = "cancel"
)

// Can 判定 actor 能否对 task 执行 op。
// 未登录（actorID 为空）返回 ErrUnauthenticated；不符合规则返回 ErrForbidden。
func Can(actorID string, t *domain.Task, op Op) error {
	if actorID == "" {
		return domain.ErrUnauthenticated
	}
	switch op {
	case OpCreateTask:
		// 任何登录用户都可以发单
		return nil
	case OpCreateOffer:
		// 不能给自己的任务报价
		if t != nil && t.AuthorID == actorID {
			return domain.ErrForbidden
		}
		return nil
	case OpAcceptOffer, OpAcceptDelivery, OpReportIssue, OpCancel:
		if t == nil || t.AuthorID != actorID {
			return domain.ErrForbidden
		}
		return nil
	case OpMarkDelivered:
		if t == nil || t.AssignedToID == nil || *t.AssignedToID != actorID {
			return domain.ErrForbidden
		}
		return nil
	}
	return domain.ErrForbidden
}
