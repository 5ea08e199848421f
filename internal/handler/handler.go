package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/i18n"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/jwtutil"
	"github.com/suteetoe/bizledger/pkg/middleware"
)

const headerAcceptLanguage = "Accept-Language"

// Handler serves the JSON API over the page controllers
type Handler struct {
	ctrl    *controller.Controllers
	gate    *subscription.Gate
	locales *i18n.Store
	jwt     *jwtutil.JWTUtil
}

// New creates the API handler
func New(ctrl *controller.Controllers, gate *subscription.Gate, locales *i18n.Store, jwt *jwtutil.JWTUtil) *Handler {
	return &Handler{ctrl: ctrl, gate: gate, locales: locales, jwt: jwt}
}

// Roles allowed to change each kind of record. Reads are open to every tenant user.
var (
	staffRoles   = []string{model.RoleOwner, model.RoleAdmin, model.RoleHR}
	payrollRoles = []string{model.RoleOwner, model.RoleAdmin, model.RoleAccountant, model.RoleHR}
	ledgerRoles  = []string{model.RoleOwner, model.RoleAdmin, model.RoleAccountant}
	managerRoles = []string{model.RoleOwner, model.RoleAdmin}
)

// Register mounts the authentication, tenant API and admin routes on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", HealthCheck)

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(h.jwt))
	api.Use(middleware.RequireTenant())
	api.Use(h.CurrentUser())
	api.Use(h.SubscriptionGuard())

	employees := api.Group("/employees")
	employees.GET("", listItems(h, h.ctrl.Employees))
	employees.POST("", createItem(h, h.ctrl.Employees), middleware.RequireRole(staffRoles...))
	employees.PUT("/:id", updateItem(h, h.ctrl.Employees), middleware.RequireRole(staffRoles...))
	employees.DELETE("/:id", deleteItem(h, h.ctrl.Employees), middleware.RequireRole(staffRoles...))

	partners := api.Group("/partners")
	partners.GET("", listItems(h, h.ctrl.Partners))
	partners.POST("", createItem(h, h.ctrl.Partners), middleware.RequireRole(ledgerRoles...))
	partners.PUT("/:id", updateItem(h, h.ctrl.Partners), middleware.RequireRole(ledgerRoles...))
	partners.DELETE("/:id", deleteItem(h, h.ctrl.Partners), middleware.RequireRole(ledgerRoles...))

	inventory := api.Group("/inventory")
	inventory.GET("", listItems(h, h.ctrl.Inventory.Resource))
	inventory.POST("", createItem(h, h.ctrl.Inventory.Resource), middleware.RequireRole(ledgerRoles...))
	inventory.PUT("/:id", updateItem(h, h.ctrl.Inventory.Resource), middleware.RequireRole(ledgerRoles...))
	inventory.POST("/:id/adjust", h.AdjustInventory, middleware.RequireRole(ledgerRoles...))
	inventory.DELETE("/:id", deleteItem(h, h.ctrl.Inventory.Resource), middleware.RequireRole(ledgerRoles...))

	payroll := api.Group("/payroll")
	payroll.GET("", listItems(h, h.ctrl.Payroll.Resource))
	payroll.POST("", createItem(h, h.ctrl.Payroll.Resource), middleware.RequireRole(payrollRoles...))
	payroll.PUT("/:id", updateItem(h, h.ctrl.Payroll.Resource), middleware.RequireRole(payrollRoles...))
	payroll.DELETE("/:id", deleteItem(h, h.ctrl.Payroll.Resource), middleware.RequireRole(payrollRoles...))

	users := api.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser, middleware.RequireRole(managerRoles...))
	users.POST("/me/password", h.ChangePassword)
	users.PUT("/:id", h.UpdateUser, middleware.RequireRole(managerRoles...))
	users.DELETE("/:id", h.DeleteUser, middleware.RequireRole(managerRoles...))

	api.GET("/reports/summary", h.Summary)
	api.GET("/audit-logs", h.AuditLogs, middleware.RequireRole(managerRoles...))
	api.GET("/subscription/banner", h.Banner)
	api.GET("/locale", h.GetLocale)
	api.PUT("/locale", h.SetLocale)

	admin := e.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(h.jwt))
	admin.Use(middleware.RequireTenant())
	admin.Use(h.CurrentUser())
	admin.Use(middleware.RequireSuperAdmin())
	admin.POST("/tenants", h.CreateTenant)
	admin.POST("/tenants/:id/renew", h.RenewTenant)
	admin.GET("/tenants/:id/status", h.TenantStatus)
}

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "bizledger",
	})
}

// scope builds the store scope of the authenticated caller
func scope(c echo.Context) store.Scope {
	claims, ok := middleware.Claims(c)
	if !ok {
		return store.Scope{}
	}
	return store.Scope{
		TenantID:   claims.TenantID,
		UserID:     claims.UserID,
		SuperAdmin: claims.SuperAdmin,
	}
}

func viewer(c echo.Context) subscription.Viewer {
	s := scope(c)
	return subscription.Viewer{UserID: s.UserID, SuperAdmin: s.SuperAdmin}
}

// lang resolves the caller's language: the saved user locale when signed
// in, otherwise the Accept-Language header.
func (h *Handler) lang(c echo.Context) string {
	if s := scope(c); s.UserID != "" && s.TenantID != "" {
		return h.locales.Current(c.Request().Context(), s)
	}
	return h.locales.Catalog().Match(c.Request().Header.Get(headerAcceptLanguage))
}

func (h *Handler) translate(c echo.Context, key string, vars map[string]string) string {
	return h.locales.Catalog().T(h.lang(c), key, vars)
}
