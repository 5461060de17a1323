package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhruv-9927/HostelGig/internal/core/auth"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/internal/service"
	"github.com/Dhruv-9927/HostelGig/internal/transport/http/ez"
	mdw "github.com/Dhruv-9927/HostelGig/internal/transport/http/middleware"
)

// TaskModule 任务信息流 + 报价 + 生命周期操作
type TaskModule struct {
	Svc   *service.TaskService
	JWTer *auth.JWTer
}

func NewTaskModule(svc *service.TaskService, jwter *auth.JWTer) *TaskModule {
	return &TaskModule{Svc: svc, JWTer: jwter}
}

// userBrief 嵌在任务/报价里的用户摘要，邮箱等私有字段不出公共接口
type userBrief struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar string  `json:"avatar"`
	Rating float64 `json:"rating"`
}

func viewBrief(u *domain.User) *userBrief {
	if u == nil {
		return nil
	}
	return &userBrief{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Rating: u.Rating}
}

type offerOut struct {
	*domain.Offer
	Solver *userBrief `json:"solver,omitempty"`
}

// taskOut 在实体外挂上嵌套的 printOptions，并把关联用户收敛成摘要
type taskOut struct {
	*domain.Task
	Author       *userBrief           `json:"author,omitempty"`
	AssignedTo   *userBrief           `json:"assignedTo,omitempty"`
	Offers       []offerOut           `json:"offers,omitempty"`
	PrintOptions *domain.PrintOptions `json:"printOptions,omitempty"`
}

func viewTask(t *domain.Task) taskOut {
	out := taskOut{
		Task:         t,
		Author:       viewBrief(t.Author),
		AssignedTo:   viewBrief(t.AssignedTo),
		PrintOptions: t.Printing(),
	}
	for i := range t.Offers {
		out.Offers = append(out.Offers, offerOut{
			Offer:  &t.Offers[i],
			Solver: viewBrief(t.Offers[i].Solver),
		})
	}
	return out
}

func viewTasks(ts []domain.Task) []taskOut {
	out := make([]taskOut, 0, len(ts))
	for i := range ts {
		out = append(out, viewTask(&ts[i]))
	}
	return out
}

type listTasksQ struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Status   string `form:"status"`
}

func (m *TaskModule) MountAPI(api *gin.RouterGroup) {
	// 公共：信息流 + 详情
	pub := ez.New(api.Group("/tasks"))

	ez.RegisterAction(pub, ez.Action[listTasksQ, []taskOut]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listTasksQ) ([]taskOut, error) {
			cat := in.Category
			if cat == "All" { // 前端“全部”选项
				cat = ""
			}
			ts, err := m.Svc.ListTasks(c.Request.Context(), domain.TaskFilter{
				Category: domain.TaskCategory(cat),
				Search:   in.Search,
				Status:   domain.TaskStatus(in.Status),
			})
			if err != nil {
				return nil, err
			}
			return viewTasks(ts), nil
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, taskOut]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (taskOut, error) {
			t, err := m.Svc.GetTask(c.Request.Context(), c.Param("id"))
			if err != nil {
				return taskOut{}, err
			}
			return viewTask(t), nil
		},
	})

	// 受保护：发单 / 报价 / 接单 / 状态流转
	authed := api.Group("/tasks")
	authed.Use(mdw.AuthJWT(m.JWTer, ""))
	priv := ez.New(authed)

	ez.RegisterAction(priv, ez.Action[service.CreateTaskInput, taskOut]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CreateTaskInput) (taskOut, error) {
			t, err := m.Svc.CreateTask(c.Request.Context(), c.GetString("userId"), *in)
			if err != nil {
				return taskOut{}, err
			}
			return viewTask(t), nil
		},
	})

	ez.RegisterAction(priv, ez.Action[service.CreateOfferInput, offerOut]{
		Method: http.MethodPost,
		Path:   "/:id/offers",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CreateOfferInput) (offerOut, error) {
			o, err := m.Svc.CreateOffer(c.Request.Context(), c.GetString("userId"), c.Param("id"), *in)
			if err != nil {
				return offerOut{}, err
			}
			return offerOut{Offer: o, Solver: viewBrief(o.Solver)}, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, taskOut]{
		Method: http.MethodPatch,
		Path:   "/:id/offers/:offerId/accept",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (taskOut, error) {
			t, err := m.Svc.AcceptOffer(c.Request.Context(),
				c.GetString("userId"), c.Param("id"), c.Param("offerId"))
			if err != nil {
				return taskOut{}, err
			}
			return viewTask(t), nil
		},
	})

	type statusIn struct {
		Status string `json:"status" binding:"required"`
	}
	ez.RegisterAction(priv, ez.Action[statusIn, taskOut]{
		Method: http.MethodPatch,
		Path:   "/:id/status",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *statusIn) (taskOut, error) {
			t, err := m.Svc.UpdateStatus(c.Request.Context(),
				c.GetString("userId"), c.Param("id"), in.Status)
			if err != nil {
				return taskOut{}, err
			}
			return viewTask(t), nil
		},
	})
}
