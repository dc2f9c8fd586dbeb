package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"diaryshare/internal/infra/api"
	"diaryshare/internal/usecase"
)

// Throttle is the fixed-window limiter guarding the submit route.
type Throttle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	entitlements  usecase.EntitlementUseCase
	sets          usecase.QuestionSetUseCase
	responses     usecase.ResponseUseCase
	notifications usecase.NotificationUseCase
	stats         usecase.StatsUseCase

	auth           *AuthManager
	throttle       Throttle
	submitPerMin   int
	requestTimeout time.Duration
	validate       *validator.Validate
	log            *zerolog.Logger
}

func NewServer(
	entitlements usecase.EntitlementUseCase,
	sets usecase.QuestionSetUseCase,
	responses usecase.ResponseUseCase,
	notifications usecase.NotificationUseCase,
	stats usecase.StatsUseCase,
	auth *AuthManager,
	throttle Throttle,
	submitPerMin int,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		entitlements:   entitlements,
		sets:           sets,
		responses:      responses,
		notifications:  notifications,
		stats:          stats,
		auth:           auth,
		throttle:       throttle,
		submitPerMin:   submitPerMin,
		requestTimeout: requestTimeout,
		validate:       validator.New(),
		log:            logger,
	}
}

// Router builds the full HTTP surface: health, metrics and the authenticated API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.RequestLog(s.log),
		api.Recover(s.log),
		api.Timeout(s.requestTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAccount)

		r.Get("/me", s.handleProfile)
		r.Post("/me/upgrade", s.handleUpgrade)
		r.Get("/styles", s.handleListStyles)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Route("/sets", func(r chi.Router) {
			r.Get("/", s.handleListSets)
			r.Post("/", s.handleCreateSet)
			r.Get("/{slug}", s.handleGetSet)
			r.Delete("/{slug}", s.handleDeleteSet)
			r.Post("/{slug}/questions", s.handleAddQuestion)
			r.Get("/{slug}/responses", s.handleSetResponses)
		})

		r.Put("/questions/{id}", s.handleEditQuestion)
		r.Delete("/questions/{id}", s.handleDeleteQuestion)

		r.Get("/responses", s.handleAllResponses)
		r.Get("/responses/{id}", s.handleGetResponse)
		r.Get("/responses/{id}/export", s.handleExportResponse)

		r.Get("/share/{token}", s.handleShareView)
		r.With(s.submitThrottle).Post("/share/{token}/responses", s.handleSubmit)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/read-all", s.handleMarkAllRead)
		r.Post("/notifications/{id}/read", s.handleMarkRead)
	})
	return r
}
