package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

// EmptyRecommendationsMessage accompanies an empty recommendation list.
const EmptyRecommendationsMessage = "No recommendations available yet. Complete your profile and start trading!"

type recommendationsResponse struct {
	Recommendations []model.CandidateMatch `json:"recommendations"`
	Message         *string                `json:"message"`
}

type trendingResponse struct {
	TrendingSkills []model.TrendingSkill `json:"trendingSkills"`
}

type recommendationsRequest struct {
	UserID string `validate:"required,number"`
	Limit  string `validate:"omitempty,numeric"`
}

type trendingRequest struct {
	Limit string `validate:"omitempty,numeric"`
}

// HandleRecommendations handles GET /api/v1/recommendations/{userId}.
func (s *Server) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.HandleRecommendations"
	ctx := r.Context()

	req := recommendationsRequest{
		UserID: chi.URLParam(r, "userId"),
		Limit:  r.URL.Query().Get("limit"),
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("invalid request: %w", err)))
		return
	}
	userID, err := strconv.ParseInt(req.UserID, 10, 64)
	if err != nil {
		s.fail(w, r, errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("invalid user id: %w", err)))
		return
	}
	limit, err := s.parseLimit(op, req.Limit, s.defaultRecommendations, s.maxRecommendations)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	caller, ok := UserFrom(ctx)
	if !ok || (caller.ID != userID && !caller.IsAdmin()) {
		s.fail(w, r, errs.NewKind(op, errs.ErrForbidden))
		return
	}

	recs, err := s.recommender.Recommend(ctx, userID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := recommendationsResponse{Recommendations: recs}
	if len(recs) == 0 {
		resp.Recommendations = []model.CandidateMatch{}
		msg := EmptyRecommendationsMessage
		resp.Message = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleTrending handles GET /api/v1/recommendations/trending.
func (s *Server) HandleTrending(w http.ResponseWriter, r *http.Request) {
	const op = "api.HandleTrending"

	req := trendingRequest{Limit: r.URL.Query().Get("limit")}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("invalid request: %w", err)))
		return
	}
	limit, err := s.parseLimit(op, req.Limit, s.defaultTrending, s.maxTrending)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	skills, err := s.recommender.Trending(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if skills == nil {
		skills = []model.TrendingSkill{}
	}
	writeJSON(w, http.StatusOK, trendingResponse{TrendingSkills: skills})
}

// parseLimit returns def for an absent limit. Values at or below zero pass
// through for the engine to clamp.
func (s *Server) parseLimit(op, raw string, def, maxLimit int) (int, error) {
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("invalid limit: %w", err))
	}
	if err := s.validate.Var(limit, "max="+strconv.Itoa(maxLimit)); err != nil {
		return 0, errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("limit must not exceed %d", maxLimit))
	}
	return limit, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFor(err)
	if status >= statusInternalError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeError(w, status, code, msg)
}
