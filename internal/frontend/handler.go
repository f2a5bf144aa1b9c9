package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/CAFxX/httpcompression"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pomerium/teamdash/internal/authclient"
	"github.com/pomerium/teamdash/internal/authenticateflow"
	"github.com/pomerium/teamdash/internal/directory"
	"github.com/pomerium/teamdash/internal/httputil"
	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/internal/sessions"
	"github.com/pomerium/teamdash/internal/telemetry/metrics"
	"github.com/pomerium/teamdash/internal/telemetry/requestid"
	"github.com/pomerium/teamdash/internal/urlutil"
)

// maxFormSize bounds the sign-in form.
const maxFormSize = 64 << 10

// Handler serves the web front end.
type Handler struct {
	flow      *authenticateflow.Flow
	guard     *sessions.Guard
	directory directory.Provider
	templates *template.Template
	compress  func(http.Handler) http.Handler

	demoFallback bool
}

// New creates a new Handler. demoFallback only controls whether the login
// page advertises the demo account.
func New(flow *authenticateflow.Flow, guard *sessions.Guard, provider directory.Provider, demoFallback bool) (*Handler, error) {
	t, err := NewTemplates()
	if err != nil {
		return nil, err
	}
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, fmt.Errorf("frontend: failed to create compression adapter: %w", err)
	}
	return &Handler{
		flow:         flow,
		guard:        guard,
		directory:    provider,
		templates:    t,
		compress:     compress,
		demoFallback: demoFallback,
	}, nil
}

// Router returns the routes of the web front end wrapped in the request-id,
// logging and compression middleware.
func (h *Handler) Router() *mux.Router {
	r := httputil.NewRouter()
	r.Use(requestid.HTTPMiddleware())
	r.Use(log.NewHandler(log.Logger))
	r.Use(log.RequestIDHandler("request-id"))
	r.Use(log.RemoteAddrHandler("ip"))
	r.Use(log.AccessHandler(log.AccessLog))
	r.Use(h.compress)

	r.Path(urlutil.HealthCheckPath).Handler(cors.AllowAll().Handler(http.HandlerFunc(httputil.HealthCheck)))
	r.Path(urlutil.MetricsPath).Methods(http.MethodGet).Handler(metrics.Handler())

	r.Path("/").Methods(http.MethodGet).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.Redirect(w, r, urlutil.DashboardPath, http.StatusFound)
	})
	r.Path(urlutil.LoginPath).Methods(http.MethodGet).HandlerFunc(h.loginPage)
	r.Path(urlutil.LoginPath).Methods(http.MethodPost).HandlerFunc(h.signIn)
	r.Path(urlutil.LogoutPath).Methods(http.MethodPost).HandlerFunc(h.signOut)
	r.Path(urlutil.DashboardPath).Methods(http.MethodGet).
		Handler(h.guard.Require(urlutil.LoginPath)(http.HandlerFunc(h.dashboard)))
	return r
}

type loginData struct {
	Title        string
	Action       string
	Email        string
	Status       string
	Error        string
	DemoFallback bool
	DemoEmail    string
	DemoPassword string
}

func (h *Handler) newLoginData() loginData {
	return loginData{
		Title:        "Sign in",
		Action:       urlutil.LoginPath,
		DemoFallback: h.demoFallback,
		DemoEmail:    authenticateflow.DemoEmail,
		DemoPassword: authenticateflow.DemoPassword,
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if h.guard.CanEnter(r.Context()) {
		httputil.Redirect(w, r, urlutil.DashboardPath, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", h.newLoginData())
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		httputil.NewError(http.StatusBadRequest, err).(*httputil.HTTPError).ErrorResponse(w, r)
		return
	}

	data := h.newLoginData()
	data.Email = authenticateflow.NormalizeEmail(r.PostForm.Get("email"))
	var statuses []string
	err := h.flow.SignIn(r.Context(), data.Email, r.PostForm.Get("password"), func(status string) {
		statuses = append(statuses, status)
	})
	if err != nil {
		data.Status = strings.Join(statuses, " ")
		data.Error = authenticateflow.Message(err)
		h.render(w, r, signInStatus(err), "login.html", data)
		return
	}
	httputil.Redirect(w, r, urlutil.DashboardPath, http.StatusSeeOther)
}

func signInStatus(err error) int {
	var storageErr *sessions.StorageError
	switch {
	case errors.Is(err, authclient.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.SignOut(r.Context()); err != nil {
		httputil.NewError(http.StatusInternalServerError, err).(*httputil.HTTPError).ErrorResponse(w, r)
		return
	}
	httputil.Redirect(w, r, urlutil.LoginPath, http.StatusSeeOther)
}

type dashboardData struct {
	Title        string            `json:"-"`
	LogoutAction string            `json:"-"`
	Query        string            `json:"query"`
	Members      []dashboardMember `json:"members"`
	Stats        directory.Stats   `json:"stats"`
}

type dashboardMember struct {
	directory.Member
	Location string `json:"location"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := withNavigation(r.Context())
	members := directory.Load(ctx, h.directory)

	// the gate rejected our session while loading
	if target := navigationTarget(ctx); target != "" || !h.guard.CanEnter(ctx) {
		if target == "" {
			target = urlutil.LoginPath
		}
		if httputil.WantsJSON(r) {
			httputil.NewError(http.StatusUnauthorized, sessions.ErrNoSessionFound).(*httputil.HTTPError).ErrorResponse(w, r)
			return
		}
		httputil.Redirect(w, r, target, http.StatusFound)
		return
	}

	query := r.URL.Query().Get("q")
	data := dashboardData{
		Title:        "Dashboard",
		LogoutAction: urlutil.LogoutPath,
		Query:        query,
		Stats:        directory.ComputeStats(members),
	}
	for _, m := range directory.Filter(members, query) {
		data.Members = append(data.Members, dashboardMember{Member: m, Location: m.Location()})
	}
	if httputil.WantsJSON(r) {
		if data.Members == nil {
			data.Members = []dashboardMember{}
		}
		httputil.RenderJSON(w, http.StatusOK, data)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error(r.Context()).Err(err).Str("template", name).Msg("frontend: failed to render template")
		httputil.NewError(http.StatusInternalServerError, err).(*httputil.HTTPError).ErrorResponse(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
