package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/internal/transport/http/ez"
)

// OpsModule 运营后台：用户检索/封禁、任务状态盘点
type OpsModule struct {
	Users domain.UserRepository
	Tasks domain.TaskRepository
}

func NewOpsModule(users domain.UserRepository, tasks domain.TaskRepository) *OpsModule {
	return &OpsModule{Users: users, Tasks: tasks}
}

func (m *OpsModule) MountAdmin(admin *gin.RouterGroup) {
	g := ez.New(admin)

	// --- 用户列表（按 email/name 模糊搜） ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"`
	}
	type userRow struct {
		ID      string          `json:"id"`
		Email   string          `json:"email"`
		Name    string          `json:"name"`
		Role    domain.UserRole `json:"role"`
		Rating  float64         `json:"rating"`
		Reviews int             `json:"reviews"`
	}
	type listOut struct {
		Total int64     `json:"total"`
		Items []userRow `json:"items"`
	}

	ez.RegisterAction(g, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := m.Users.List(c.Request.Context(), in.Q, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, ez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]userRow, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, userRow{
					ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
					Rating: u.Rating, Reviews: u.Reviews,
				})
			}
			return out, nil
		},
	})

	// --- 封禁（软删） ---
	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, ez.BadRequest("missing id")
			}
			if err := m.Users.SoftDelete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- 任务盘点（按状态过滤） ---
	type taskQ struct {
		Status   string `form:"status"`
		Category string `form:"category"`
	}
	ez.RegisterAction(g, ez.Action[taskQ, []taskOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *taskQ) ([]taskOut, error) {
			ts, err := m.Tasks.List(c.Request.Context(), domain.TaskFilter{
				Status:   domain.TaskStatus(in.Status),
				Category: domain.TaskCategory(in.Category),
			})
			if err != nil {
				return nil, ez.Internal("list tasks failed", err)
			}
			return viewTasks(ts), nil
		},
	})
}
