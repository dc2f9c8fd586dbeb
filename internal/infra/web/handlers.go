package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"diaryshare/internal/domain"
	"diaryshare/internal/infra/logging"
	"diaryshare/internal/infra/metrics"
	red "diaryshare/internal/infra/redis"
	"diaryshare/internal/usecase"
)

// ----- profile -----

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.entitlements.Profile(r.Context(), AccountFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.entitlements.Upgrade(ctx, AccountFrom(ctx)); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.entitlements.Profile(ctx, AccountFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

func (s *Server) handleListStyles(w http.ResponseWriter, r *http.Request) {
	styles, err := s.sets.ListStyles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]styleDTO, 0, len(styles))
	for _, st := range styles {
		out = append(out, toStyleDTO(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	stats, err := s.stats.PopularOwners(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ownerStatDTO, 0, len(stats))
	for _, st := range stats {
		out = append(out, ownerStatDTO{AccountID: st.AccountID, Username: st.Username, ResponseCount: st.ResponseCount})
	}
	writeJSON(w, http.StatusOK, out)
}

// ----- question sets -----

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.sets.ListMine(r.Context(), AccountFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]questionSetDTO, 0, len(sets))
	for _, qs := range sets {
		out = append(out, toOwnerSetDTO(qs))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if !s.decode(w, r, &req) {
		return
	}
	qs, err := s.sets.Create(r.Context(), AccountFrom(r.Context()), usecase.CreateQuestionSetInput{
		Title:       req.Title,
		Description: req.Description,
		StyleID:     req.StyleID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			metrics.IncQuotaDenial("sets")
		case errors.Is(err, domain.ErrPremiumStyleRequired):
			metrics.IncQuotaDenial("premium_style")
		}
		s.fail(w, r, err)
		return
	}
	metrics.IncQuestionSetCreated()
	writeJSON(w, http.StatusCreated, toOwnerSetDTO(qs))
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	qs, err := s.sets.GetBySlug(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOwnerSetDTO(qs))
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setID, err := s.sets.SetIDBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sets.DeleteQuestionSet(ctx, AccountFrom(ctx), setID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	setID, err := s.sets.SetIDBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := s.sets.AddQuestion(ctx, AccountFrom(ctx), setID, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionDTO(q))
}

func (s *Server) handleEditQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := s.sets.EditQuestion(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionDTO(q))
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.sets.DeleteQuestion(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- responses -----

func (s *Server) handleSetResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := AccountFrom(ctx)
	qs, err := s.sets.GetBySlug(ctx, owner, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sessions, err := s.responses.ListResponses(ctx, owner, qs.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

func (s *Server) handleAllResponses(w http.ResponseWriter, r *http.Request) {
	groups, err := s.responses.ListAllResponses(r.Context(), AccountFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]setResponsesDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, setResponsesDTO{
			QuestionSetID: g.Set.ID,
			Title:         g.Set.Title,
			Slug:          g.Set.Slug,
			Responses:     toSessionDTOs(g.Sessions),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.responses.GetResponse(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

func (s *Server) handleExportResponse(w http.ResponseWriter, r *http.Request) {
	doc, err := s.responses.ExportResponse(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// ----- sharing -----

func (s *Server) handleShareView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	qs, err := s.sets.GetByShareToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	remaining, err := s.entitlements.RemainingAnswers(ctx, AccountFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Set              questionSetDTO `json:"set"`
		IsOwner          bool           `json:"is_owner"`
		RemainingAnswers int            `json:"remaining_answers"`
	}{
		Set:              toPublicSetDTO(qs),
		IsOwner:          qs.IsOwnedBy(AccountFrom(ctx)),
		RemainingAnswers: remaining,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	token := chi.URLParam(r, "token")
	qs, err := s.sets.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l := logging.With(ctx, s.log)
			l.Debug().Str("token", logging.Redact(token, false)).Msg("submit to unknown share token")
		}
		s.fail(w, r, err)
		return
	}
	ctx = logging.WithQuestionSetID(ctx, qs.ID)
	sess, err := s.responses.Submit(ctx, AccountFrom(ctx), qs.ID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			metrics.IncSubmission("quota_exceeded")
			metrics.IncQuotaDenial("answers")
		case errors.Is(err, domain.ErrForbidden):
			metrics.IncSubmission("forbidden")
		default:
			metrics.IncSubmission("error")
		}
		s.fail(w, r, err)
		return
	}
	metrics.IncSubmission("accepted")
	writeJSON(w, http.StatusCreated, toSessionDTO(sess))
}

// submitThrottle applies the per-account redis window. Redis trouble lets the request through.
func (s *Server) submitThrottle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.throttle == nil || s.submitPerMin <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		ok, err := s.throttle.Allow(ctx, red.SubmitKey(AccountFrom(ctx)), s.submitPerMin, time.Minute)
		if err != nil {
			l := logging.With(ctx, s.log)
			l.Warn().Err(err).Msg("submit throttle unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncRateLimited("submit")
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many submissions, slow down"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ----- notifications -----

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	p, err := s.notifications.List(r.Context(), AccountFrom(r.Context()), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationPageDTO(p))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkRead(r.Context(), AccountFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.MarkAllRead(r.Context(), AccountFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Marked int `json:"marked"`
	}{Marked: n})
}
