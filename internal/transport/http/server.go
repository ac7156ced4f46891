// Package http exposes the regression engine, the distribution calculator and the per session
// bookkeeping over a chi router.
package http

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/internal/config"
	"github.com/aouyang1/go-regress/internal/metrics"
	"github.com/aouyang1/go-regress/internal/session"
	"github.com/aouyang1/go-regress/internal/store"
)

// Server holds the dependencies shared by every handler
type Server struct {
	cfg      *config.Config
	store    *store.Store
	metrics  *metrics.Metrics
	sessions *session.Manager
	errors   *apierrors.ErrorHandler
	validate *validator.Validate
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, st *store.Store, m *metrics.Metrics, logger *slog.Logger) *Server {
	v := validator.New()
	// report json names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		cfg:      cfg,
		store:    st,
		metrics:  m,
		sessions: session.NewManager(cfg.Session.CookieName, cfg.Session.MaxAge, cfg.Session.Secure, logger),
		errors:   apierrors.NewErrorHandler(logger, domainErrors),
		validate: v,
		logger:   logger.With(slog.String("component", "http")),
	}
}

// Routes builds the router
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger, s.errors))
	r.Use(cors(s.cfg.Server.AllowedOrigins))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		if s.cfg.RateLimit.Enabled {
			r.Use(newSessionLimiter(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst, s.logger, s.errors).Handler)
		}
		r.Use(middleware.RequestSize(s.cfg.Server.MaxUploadBytes))

		r.Get("/", s.root)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/session", s.currentSession)

			r.Route("/regression", func(r chi.Router) {
				r.Post("/json", s.regressionJSON)
				r.Post("/chart", s.regressionChart)
				r.Post("/excel", s.regressionExcel)
				r.Post("/excel/reuse", s.regressionExcelReuse)
			})

			r.Route("/state", func(r chi.Router) {
				r.Get("/table", s.getTableState)
				r.Post("/table", s.saveTableState)
				r.Get("/excel", s.getExcelState)
				r.Post("/excel", s.saveExcelState)
				r.Get("/excel/result", s.getExcelResult)
			})

			r.Route("/library/excel", func(r chi.Router) {
				r.Post("/upload", s.libraryUpload)
				r.Get("/list", s.libraryList)
				r.Post("/to_table", s.libraryToTable)
				r.Post("/calc", s.libraryCalc)
				r.Post("/delete", s.libraryDelete)
				r.Get("/download", s.libraryDownload)
			})

			r.Get("/distributions", s.listDistributions)
			r.Get("/distributions/{name}", s.evaluateDistribution)
		})
	})

	return r
}

// sid returns the session id placed in the context by the session middleware.
func (s *Server) sid(r *http.Request) string {
	sid, _ := session.ID(r.Context())
	return sid
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"message": "regression API ready. Routes: POST /api/regression/json, POST /api/regression/excel, state under /api/state/*",
	})
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"sid": s.sid(r)})
}
