package server

import (
	"log"
	"net/http"
	"time"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/config"
	"github.com/diewo77/go-worklog/internal/handlers"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/internal/services"
	"gorm.io/gorm"
)

const roleCacheTTL = 30 * time.Second

// App wires services, the gate and all routes into one http.Handler.
type App struct {
	mux   *http.ServeMux
	db    *gorm.DB
	Gate  *policy.Gate
	Cache *policy.CachedRoleResolver
}

// New builds the application handler. The role resolver is cached with a
// short TTL; admin user updates invalidate entries eagerly.
func New(db *gorm.DB, cfg config.Config) *App {
	cache := policy.NewCachedRoleResolver(policy.NewDBRoleResolver(db), roleCacheTTL)
	gate := policy.NewAuthGate(cache)

	registration := services.NewRegistrationService(db)
	profiles := services.NewProfileResolver(db)
	rates := services.NewRateResolver(db, cfg.AttendanceProject)
	records := services.NewRecordService(db, gate, rates)
	export := services.NewExportService()

	a := &App{mux: http.NewServeMux(), db: db, Gate: gate, Cache: cache}
	a.setupRoutes(
		handlers.NewAuthHandler(db, gate, registration, profiles),
		handlers.NewRecordHandler(records),
		handlers.NewPresetHandler(db, gate),
		handlers.NewEmployeeTypeHandler(db, gate),
		handlers.NewAdminUserHandler(db, gate, cache),
		handlers.NewExportHandler(db, gate, records, export),
	)
	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withRecover(auth.Middleware(a.mux)).ServeHTTP(w, r)
}

func (a *App) setupRoutes(
	ah *handlers.AuthHandler,
	rh *handlers.RecordHandler,
	ph *handlers.PresetHandler,
	eh *handlers.EmployeeTypeHandler,
	uh *handlers.AdminUserHandler,
	xh *handlers.ExportHandler,
) {
	// Public
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)

	// Authenticated
	a.handle("GET /me", ah.Me)
	a.handle("POST /me/update", ah.UpdateMe)

	a.handle("GET /records", rh.List)
	a.handle("POST /records", rh.Create)
	a.handle("POST /records/update", rh.Update)
	a.handle("POST /records/delete", rh.Delete)

	a.handle("GET /presets", ph.List)
	a.handle("POST /presets", ph.Create)
	a.handle("POST /presets/update", ph.Update)
	a.handle("POST /presets/delete", ph.Delete)

	a.handle("GET /employee-types", eh.List)
	a.handle("POST /employee-types", eh.Create)
	a.handle("POST /employee-types/update", eh.Update)
	a.handle("POST /employee-types/delete", eh.Delete)

	a.handle("GET /admin/users", uh.List)
	a.handle("POST /admin/users/update", uh.Update)
	a.handle("POST /admin/records/purge", rh.Purge)

	a.handle("GET /export", xh.Export)
	a.handle("GET /export/all", xh.ExportAll)
}

func (a *App) handle(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// healthz additionally pings the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "db_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
