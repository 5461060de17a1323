// Package lifecycle 任务状态机：唯一合法流转表，所有状态写入前必须过这里
package lifecycle

import (
	"github.com/Dhruv-9927/HostelGig/internal/domain"
)

// Event 触发状态流转的业务动作
type Event string

const (
	EventAcceptOffer    Event = "acceptOffer"
	EventMarkDelivered  Event = "markDelivered"
	EventAcceptDelivery Event = "acceptDelivery"
	EventReportIssue    Event = "reportIssue"
	EventCancel         Event = "cancel"
)

// 流转表：from → to → event
// Open → In Progress（接单）→ Delivered（交付）→ Completed（验收）
// 旁路：Delivered → Disputed（争议），Open → Cancelled（作者撤单）
var transitions = map[domain.TaskStatus]map[domain.TaskStatus]Event{
	domain.StatusOpen: {
		domain.StatusInProgress: EventAcceptOffer,
		domain.StatusCancelled:  EventCancel,
	},
	domain.StatusInProgress: {
		domain.StatusDelivered: EventMarkDelivered,
	},
	domain.StatusDelivered: {
		domain.StatusCompleted: EventAcceptDelivery,
		domain.StatusDisputed:  EventReportIssue,
	},
	// 终态：无出边（Disputed 在本系统内无申诉后续）
	domain.StatusCompleted: {},
	domain.StatusCancelled: {},
	domain.StatusDisputed:  {},
}

// targets 每个事件期望的目标状态（校验具名动作用）
var targets = map[Event]domain.TaskStatus{
	EventAcceptOffer:    domain.StatusInProgress,
	EventMarkDelivered:  domain.StatusDelivered,
	EventAcceptDelivery: domain.StatusCompleted,
	EventReportIssue:    domain.StatusDisputed,
	EventCancel:         domain.StatusCancelled,
}

// CanTransition 是否存在 from → to 的合法流转
func CanTransition(from, to domain.TaskStatus) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// EventFor 解析 from → to 对应的事件；非法流转返回 InvalidTransitionError。
// 通用状态 PATCH 走这里，任意字符串不会直接落库。
func EventFor(from, to domain.TaskStatus) (Event, error) {
	if !to.Valid() {
		return "", domain.Invalid("status", "unknown status "+string(to))
	}
	if ev, ok := transitions[from][to]; ok {
		return ev, nil
	}
	return "", &domain.InvalidTransitionError{From: from, To: to}
}

// Check 校验具名动作在当前状态下是否合法，返回目标状态
func Check(from domain.TaskStatus, ev Event) (domain.TaskStatus, error) {
	to, ok := targets[ev]
	if !ok {
		return "", domain.Invalid("event", "unknown event "+string(ev))
	}
	if !CanTransition(from, to) {
		return "", &domain.InvalidTransitionError{From: from, To: to, Event: string(ev)}
	}
	return to, nil
}

// Terminal 终态判断（Completed / Cancelled / Disputed）
func Terminal(s domain.TaskStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}
