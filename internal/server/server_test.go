package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/storage/memory"
)

const (
	testMint  = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	otherMint = "So11111111111111111111111111111111111111112"
)

type fakeAnalyzer struct {
	result *domain.TokenAnalysisResult
	err    error
	calls  []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, mint string) (*domain.TokenAnalysisResult, error) {
	f.calls = append(f.calls, mint)
	return f.result, f.err
}

type fakeSentiment struct {
	lastQuery domain.PostQuery
	scored    int
}

func (f *fakeSentiment) ReportFor(_ context.Context, q domain.PostQuery) *domain.SentimentReport {
	f.lastQuery = q
	return domain.EmptyReport(q.Mint, domain.ReportNoData, time.Unix(0, 0))
}

func (f *fakeSentiment) Score(mint string, posts []domain.SocialPost) *domain.SentimentReport {
	f.scored = len(posts)
	r := domain.EmptyReport(mint, domain.ReportReady, time.Unix(0, 0))
	r.TotalPosts = len(posts)
	return r
}

func newTestServer(a *fakeAnalyzer, s *fakeSentiment, opts ...Option) *Server {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 5 * time.Second
	return New(cfg, a, s, opts...)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})
	rec := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalysis_OK(t *testing.T) {
	a := &fakeAnalyzer{result: &domain.TokenAnalysisResult{
		Market:    &domain.TokenMarketSnapshot{Mint: testMint, Symbol: "BONK"},
		Security:  domain.UnknownSecurity(),
		RiskScore: 42,
		RiskLevel: domain.RiskMedium,
		Signal:    domain.SignalHold,
	}}
	srv := newTestServer(a, &fakeSentiment{})

	rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.TokenAnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 42, got.RiskScore)
	assert.Equal(t, domain.SignalHold, got.Signal)
	assert.Equal(t, []string{testMint}, a.calls)
}

func TestAnalysis_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no pairs", nil, http.StatusNotFound},
		{"market down", fmt.Errorf("%w: timeout", risk.ErrMarketUnavailable), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeAnalyzer{err: tt.err}, &fakeSentiment{})
			rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/analysis", "")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestAnalysis_InvalidMint(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(a, &fakeSentiment{})

	for _, mint := range []string{"not-a-mint", "0OIl", "abc"} {
		rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+mint+"/analysis", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, mint)
	}
	assert.Empty(t, a.calls)
}

func TestSentiment_PassesSymbol(t *testing.T) {
	s := &fakeSentiment{}
	srv := newTestServer(&fakeAnalyzer{}, s)

	rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/sentiment?symbol=bonk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PostQuery{Mint: testMint, Symbol: "bonk"}, s.lastQuery)

	var got domain.SentimentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ReportNoData, got.Status)
}

func TestScore(t *testing.T) {
	s := &fakeSentiment{}
	srv := newTestServer(&fakeAnalyzer{}, s)

	body := `{"mint":"` + testMint + `","posts":[{"id":"1","text":"moon"},{"id":"2","text":"rug"}]}`
	rec := do(t, srv, http.MethodPost, "/api/v1/sentiment/score", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, s.scored)

	rec = do(t, srv, http.MethodPost, "/api/v1/sentiment/score", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/sentiment/score", `{"mint":"bad!","posts":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScore_TooManyPosts(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})

	posts := make([]string, maxScorePosts+1)
	for i := range posts {
		posts[i] = fmt.Sprintf(`{"id":"%d"}`, i)
	}
	body := `{"posts":[` + strings.Join(posts, ",") + `]}`

	rec := do(t, srv, http.MethodPost, "/api/v1/sentiment/score", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	analyses := memory.NewAnalysisStore()
	sentiments := memory.NewSentimentStore()
	for i := 1; i <= 3; i++ {
		require.NoError(t, analyses.Insert(ctx, &domain.AnalysisRecord{
			ID: fmt.Sprintf("a%d", i), Mint: testMint, RiskScore: i * 10, CheckedAt: int64(i * 1000),
		}))
	}
	require.NoError(t, analyses.Insert(ctx, &domain.AnalysisRecord{ID: "x", Mint: otherMint, CheckedAt: 5000}))
	require.NoError(t, sentiments.Insert(ctx, &domain.SentimentRecord{ID: "s1", Mint: testMint, GeneratedAt: 1000}))

	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{}, WithJournal(analyses, sentiments))

	rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Analyses, 2)
	assert.Equal(t, "a3", got.Analyses[0].ID)
	assert.Equal(t, "a2", got.Analyses[1].ID)
	require.Len(t, got.Sentiment, 1)

	rec = do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_EmptyUsesArrays(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{},
		WithJournal(memory.NewAnalysisStore(), memory.NewSentimentStore()))

	rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"analyses":[]`)
	assert.Contains(t, rec.Body.String(), `"sentiment":[]`)
}

func TestHistory_Disabled(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})
	rec := do(t, srv, http.MethodGet, "/api/v1/tokens/"+testMint+"/history", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, &fakeSentiment{})
	srv.AddStatus("watcher", func() any { return map[string]int{"seen": 7} })

	rec := do(t, srv, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Status   string                    `json:"status"`
		Sections map[string]map[string]int `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "running", got.Status)
	assert.Equal(t, 7, got.Sections["watcher"]["seen"])
}

// syncBuffer guards a log buffer shared with the serving goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestListenAndServe_LogsListeningOnce(t *testing.T) {
	logs := &syncBuffer{}
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, &fakeAnalyzer{}, &fakeSentiment{}, WithLogger(zerolog.New(logs)))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "http server listening")
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)

	assert.Equal(t, 1, strings.Count(logs.String(), "http server listening"))
	assert.Contains(t, logs.String(), `"addr":"127.0.0.1:0"`)
}
