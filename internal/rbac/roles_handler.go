package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// RoleView describes one role from the caller's point of view.
type RoleView struct {
	Role       authz.Role `json:"role"`
	Rank       int        `json:"rank"`
	AdminGroup bool       `json:"admin_group"`
	Manageable bool       `json:"manageable"`
}

// RolesHandler lists the role hierarchy.
type RolesHandler struct {
	rbac Middleware
}

// NewRolesHandler builds RolesHandler instance.
func NewRolesHandler(rbac Middleware) *RolesHandler {
	return &RolesHandler{rbac: rbac}
}

// MountRoutes registers role routes.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(authz.IsAdminGroup))
		r.Get("/", h.listRoles)
	})
}

func (h *RolesHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	roles := authz.Roles()
	out := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleView{
			Role:       role,
			Rank:       role.Rank(),
			AdminGroup: role.InAdminGroup(),
			Manageable: authz.CanManage(p.Role, role),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}
