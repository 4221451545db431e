package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/solana"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxScorePosts       = 500
	maxScoreBody        = 4 << 20
)

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status    string         `json:"status"`
	Uptime    string         `json:"uptime"`
	StartedAt time.Time      `json:"started_at"`
	Sections  map[string]any `json:"sections,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	sections := make(map[string]any, len(names))
	for _, name := range names {
		sections[name] = s.sections[name]()
	}
	s.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		StartedAt: s.started,
		Sections:  sections,
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")

	res, err := s.analyzer.Analyze(r.Context(), mint)
	switch {
	case errors.Is(err, risk.ErrMarketUnavailable):
		s.logger.Warn().Err(err).Str("mint", mint).Msg("analysis failed")
		respondWithError(w, http.StatusBadGateway, "market data unavailable")
		return
	case err != nil:
		s.logger.Error().Err(err).Str("mint", mint).Msg("analysis failed")
		respondWithError(w, http.StatusInternalServerError, "analysis failed")
		return
	case res == nil:
		respondWithError(w, http.StatusNotFound, "no trading pairs found for mint")
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

// handleSentiment always answers 200; fetch failures are reported in the body status.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	q := domain.PostQuery{
		Mint:   chi.URLParam(r, "mint"),
		Symbol: strings.TrimSpace(r.URL.Query().Get("symbol")),
	}
	respondWithJSON(w, http.StatusOK, s.sentiment.ReportFor(r.Context(), q))
}

// ScoreRequest is the body of POST /api/v1/sentiment/score.
type ScoreRequest struct {
	Mint  string              `json:"mint"`
	Posts []domain.SocialPost `json:"posts"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody))
	if err := dec.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Mint != "" && !solana.IsValidAddress(req.Mint) {
		respondWithError(w, http.StatusBadRequest, "invalid mint address")
		return
	}
	if len(req.Posts) > maxScorePosts {
		respondWithError(w, http.StatusBadRequest, "too many posts (max "+strconv.Itoa(maxScorePosts)+")")
		return
	}

	respondWithJSON(w, http.StatusOK, s.sentiment.Score(req.Mint, req.Posts))
}

// HistoryResponse is the JSON response for the history endpoint.
type HistoryResponse struct {
	Mint      string                    `json:"mint"`
	Analyses  []*domain.AnalysisRecord  `json:"analyses"`
	Sentiment []*domain.SentimentRecord `json:"sentiment"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.analyses == nil || s.sentiments == nil {
		respondWithError(w, http.StatusNotImplemented, "journal disabled")
		return
	}

	mint := chi.URLParam(r, "mint")
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	analyses, err := s.analyses.GetByMint(r.Context(), mint, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("mint", mint).Msg("load analysis history")
		respondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	sentiment, err := s.sentiments.GetByMint(r.Context(), mint, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("mint", mint).Msg("load sentiment history")
		respondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	if analyses == nil {
		analyses = []*domain.AnalysisRecord{}
	}
	if sentiment == nil {
		sentiment = []*domain.SentimentRecord{}
	}
	respondWithJSON(w, http.StatusOK, HistoryResponse{Mint: mint, Analyses: analyses, Sentiment: sentiment})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
