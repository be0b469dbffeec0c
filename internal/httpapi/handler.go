// Package httpapi serves the admin console's JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/logging"
	"github.com/R3E-Network/admin_console/internal/metrics"
	"github.com/R3E-Network/admin_console/internal/middleware"
	payments "github.com/R3E-Network/admin_console/payments/client"
	supabase "github.com/R3E-Network/admin_console/supabase/client"
)

// Clients is the lazily constructed client source, normally *clients.Factory.
type Clients interface {
	Server() (*supabase.Client, error)
	Payments() (*payments.Client, error)
}

// Options configures the handler.
type Options struct {
	Clients    Clients
	Logger     *logging.Logger
	AdminEmail string
	Navigation *config.Navigation
	// Validate checks the required configuration. Defaults to config.Load.
	Validate       func() (*config.Set, error)
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
	// Done stops background work such as rate limiter cleanup. Optional.
	Done <-chan struct{}
}

type handler struct {
	clients  Clients
	log      *logging.Logger
	nav      *config.Navigation
	validate func() (*config.Set, error)
}

// NewHandler builds the admin API router.
func NewHandler(opts Options) http.Handler {
	h := &handler{
		clients:  opts.Clients,
		log:      opts.Logger,
		nav:      opts.Navigation,
		validate: opts.Validate,
	}
	if h.log == nil {
		h.log = logging.NewDefault("httpapi")
	}
	if h.nav == nil {
		h.nav = config.DefaultNavigation()
	}
	if h.validate == nil {
		h.validate = config.Load
	}
	rps, burst := opts.RateLimitRPS, opts.RateLimitBurst
	if rps <= 0 {
		rps = 20
	}
	if burst < rps {
		burst = rps
	}

	r := mux.NewRouter()
	r.Use(middleware.NewTracingMiddleware(h.log).Handler)
	r.Use(metrics.InstrumentHandler)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.ready).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/navigation/config", h.navigationConfig).Methods(http.MethodGet)

	auth := middleware.NewAdminAuth(func() (middleware.UserVerifier, error) {
		c, err := h.clients.Server()
		if err != nil {
			return nil, err
		}
		return c.Auth(), nil
	}, opts.AdminEmail, h.log)
	limiter := middleware.NewRateLimiter(rps, burst, h.log)
	if opts.Done != nil {
		limiter.StartCleanup(5*time.Minute, opts.Done)
	}

	api := r.PathPrefix("/api").Subrouter()
	// The limiter runs first so rejected tokens are throttled per client IP
	// before each one costs a verification call upstream.
	api.Use(limiter.Handler)
	api.Use(auth.Handler)
	api.HandleFunc("/admin/users", h.listUsers).Methods(http.MethodGet)
	api.HandleFunc("/admin/profiles", h.listProfiles).Methods(http.MethodGet)
	api.HandleFunc("/admin/profiles/{id}", h.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/admin/profiles/{id}", h.updateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/admin/profiles/{id}", h.deleteProfile).Methods(http.MethodDelete)
	api.HandleFunc("/billing/balance", h.balance).Methods(http.MethodGet)
	api.HandleFunc("/billing/customers", h.listCustomers).Methods(http.MethodGet)

	// CORS sits outside the router so preflights reach it before method matching.
	return middleware.NewCORSMiddleware(opts.AllowedOrigins).Handler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.validate(); err != nil {
		if key, ok := config.MissingKey(err); ok {
			metrics.RecordMissingConfiguration(key)
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handler) navigationConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"refreshDelayMs":  h.nav.RefreshDelay.Milliseconds(),
		"scrollContainer": h.nav.ScrollContainer,
	})
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	server, err := h.clients.Server()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 50)

	users, err := server.Auth().ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "page": page})
}

// profileFields are the columns an admin may change through the API.
var profileFields = map[string]bool{
	"display_name": true,
	"role":         true,
	"disabled":     true,
}

func (h *handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	server, err := h.clients.Server()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	query := server.From("profiles").Select("*").Count("exact")
	if email := strings.TrimSpace(q.Get("email")); email != "" {
		query = query.ILike("email", "*"+email+"*")
	}
	if roles := splitList(q.Get("role")); len(roles) > 0 {
		query = query.In("role", roles...)
	}
	if since := strings.TrimSpace(q.Get("created_after")); since != "" {
		query = query.Gte("created_at", since)
	}
	if until := strings.TrimSpace(q.Get("created_before")); until != "" {
		query = query.Lte("created_at", until)
	}

	resp, err := query.
		Order("created_at", false).
		Limit(queryInt(r, "limit", 50)).
		Offset(queryInt(r, "offset", 0)).
		Execute(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var rows []map[string]any
	if err := resp.JSON(&rows); err != nil {
		h.fail(w, r, err)
		return
	}
	body := map[string]any{"profiles": rows}
	if total, ok := resp.Count(); ok {
		body["total"] = total
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	server, err := h.clients.Server()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := server.From("profiles").Select("*").Eq("id", mux.Vars(r)["id"]).Single().Execute(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var row map[string]any
	if err := resp.JSON(&row); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(patch) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	for field := range patch {
		if !profileFields[field] {
			writeError(w, http.StatusBadRequest, "field not editable: "+field)
			return
		}
	}

	server, err := h.clients.Server()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := mux.Vars(r)["id"]
	resp, err := server.From("profiles").Eq("id", id).Update(r.Context(), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, ok := h.changedRows(w, r, resp)
	if !ok {
		return
	}
	h.audit(r, "profile_updated", id)
	writeJSON(w, http.StatusOK, rows[0])
}

func (h *handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	server, err := h.clients.Server()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := mux.Vars(r)["id"]
	resp, err := server.From("profiles").Eq("id", id).Delete(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, ok := h.changedRows(w, r, resp); !ok {
		return
	}
	h.audit(r, "profile_deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// changedRows decodes the rows a write returned and answers 404 when none did.
func (h *handler) changedRows(w http.ResponseWriter, r *http.Request, resp *supabase.Response) ([]map[string]any, bool) {
	var rows []map[string]any
	if err := resp.JSON(&rows); err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "profile not found")
		return nil, false
	}
	return rows, true
}

// audit records an admin mutation with the acting admin.
func (h *handler) audit(r *http.Request, event, profileID string) {
	h.log.LogSecurityEvent(r.Context(), event, map[string]interface{}{
		"actor":      middleware.GetUserEmail(r.Context()),
		"actor_id":   middleware.GetUserID(r.Context()),
		"profile_id": profileID,
	})
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	stripe, err := h.clients.Payments()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := stripe.Balance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	stripe, err := h.clients.Payments()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := stripe.Customers().List(r.Context(), queryInt(r, "limit", 25), r.URL.Query().Get("starting_after"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// fail logs err for the operator and answers with a status that does not
// leak configuration details.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	entry := h.log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path)

	if key, ok := config.MissingKey(err); ok {
		entry.WithField("missing_key", key).Error("misconfigured deployment")
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var sbErr *supabase.APIError
	if errors.As(err, &sbErr) && sbErr.NoRows() {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var stripeErr *payments.Error
	if errors.As(err, &sbErr) || errors.As(err, &stripeErr) {
		entry.Warn("upstream request failed")
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}

	entry.Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitList(v string) []any {
	var out []any
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
