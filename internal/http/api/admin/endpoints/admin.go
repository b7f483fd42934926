package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	"github.com/daygrid/daygrid/internal/http/api/admin/packets"
	"github.com/daygrid/daygrid/internal/model"
)

type AdminController struct {
	store db.Store
}

func NewAdminController(store db.Store) *AdminController {
	return &AdminController{store: store}
}

// AdminModule mounts the moderation surface. Every handler re-checks the
// admin role; the JWT middleware only proves the caller is signed in.
func AdminModule(store db.Store) api.Module {
	ctl := NewAdminController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/admin/stats", ctl.stats)
		c.GET("/admin/users", ctl.listUsers)
		c.PUT("/admin/users/:id/role", ctl.setRole)
		c.DELETE("/admin/users/:id", ctl.deleteUser)
	})
}

// GET /admin/stats
func (a *AdminController) stats(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	stats, err := a.store.AdminStats()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load stats"}
	}
	return stats, nil
}

// GET /admin/users
func (a *AdminController) listUsers(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list users"}
	}
	return packets.NewUserList(users), nil
}

// PUT /admin/users/:id/role
func (a *AdminController) setRole(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid user id"}
	}

	var request packets.SetRoleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if id == user.ID && request.Role != model.RoleAdmin {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "cannot demote yourself"}
	}

	if err := a.store.SetUserRole(id, request.Role); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to update role"}
	}
	return gin.H{"id": id, "role": request.Role}, nil
}

// DELETE /admin/users/:id
func (a *AdminController) deleteUser(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid user id"}
	}
	if id == user.ID {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "cannot delete yourself"}
	}

	if err := a.store.DeleteUser(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to delete user"}
	}
	return gin.H{"id": id, "deleted": true}, nil
}

func requireAdmin(user *model.User) *api.APIError {
	if !user.IsAdmin() {
		return &api.APIError{Code: http.StatusForbidden, Message: "admin only"}
	}
	return nil
}
