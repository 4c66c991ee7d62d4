package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/service"
	"booknest/pkg/apierror"
)

type viewRule struct {
	signedIn bool
	roles    []model.Role
}

// views lists the storefront pages and who may open them. Public pages
// need no session.
var views = map[string]viewRule{
	"home":            {},
	"login":           {},
	"signup":          {},
	"unauthorized":    {},
	"cart":            {signedIn: true},
	"checkout":        {signedIn: true, roles: []model.Role{model.RoleMember}},
	"staff/orders":    {signedIn: true, roles: []model.Role{model.RoleStaff}},
	"admin/dashboard": {signedIn: true, roles: []model.Role{model.RoleAdmin}},
}

// ViewHandler answers view activations. A refused activation answers like
// the gate: 401 with /login or 403 with /unauthorized.
type ViewHandler struct {
	workspaces *service.Workspaces
}

func NewViewHandler(workspaces *service.Workspaces) *ViewHandler {
	return &ViewHandler{workspaces: workspaces}
}

func (h *ViewHandler) Activate(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(chi.URLParam(r, "*"), "/")
	rule, ok := views[name]
	if !ok {
		writeError(w, apierror.New("NOT_FOUND", "Unknown view", name, http.StatusNotFound))
		return
	}

	ws := h.workspaces.Get(middleware.SessionIDFromContext(r.Context()))
	sess, err := ws.Scope.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	activation := activate(name, rule, sess)
	switch {
	case activation.Allowed:
		writeSuccess(w, http.StatusOK, activation, nil)
	case activation.Redirect == "/login":
		writeError(w, apierror.New("UNAUTHORIZED", "You must be logged in to access this feature.", name, http.StatusUnauthorized).
			WithRedirect(activation.Redirect))
	default:
		message := fmt.Sprintf("This feature requires %s role. Your current role is %s.", rule.roles[0], sess.Role)
		writeError(w, apierror.New("FORBIDDEN", message, name, http.StatusForbidden).WithRedirect(activation.Redirect))
	}
}

func activate(name string, rule viewRule, sess model.Session) model.ViewActivation {
	activation := model.ViewActivation{View: name, Allowed: true, Role: sess.Role}

	switch {
	case rule.signedIn && !sess.Authenticated():
		activation.Allowed = false
		activation.Redirect = "/login"
	case len(rule.roles) > 0 && !sess.HasRole(rule.roles...):
		activation.Allowed = false
		activation.Redirect = "/unauthorized"
	case name == "login" && sess.Authenticated():
		activation.Redirect = model.LandingRoute(sess.Role)
	}

	return activation
}
