package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/solana"
	"solana-token-sentinel/internal/solana/stub"
	"solana-token-sentinel/internal/storage"
	"solana-token-sentinel/internal/storage/memory"
)

const (
	testMint  = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	freshMint = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"
	createLog = "Program log: Instruction: Create"
)

type fakeWS struct {
	mu     sync.Mutex
	chans  map[string]chan solana.LogNotification
	err    error
	closed bool
}

func newFakeWS(programIDs ...string) *fakeWS {
	ws := &fakeWS{chans: make(map[string]chan solana.LogNotification)}
	for _, id := range programIDs {
		ws.chans[id] = make(chan solana.LogNotification, 16)
	}
	return ws
}

func (f *fakeWS) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch, ok := f.chans[filter.Mentions[0]]
	if !ok {
		return nil, errors.New("unknown program")
	}
	return ch, nil
}

func (f *fakeWS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		for _, ch := range f.chans {
			close(ch)
		}
	}
	return nil
}

func (f *fakeWS) send(programID string, n solana.LogNotification) {
	f.chans[programID] <- n
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []string
	result func(mint string) (*domain.TokenAnalysisResult, error)
}

func (a *fakeAnalyzer) Analyze(_ context.Context, mint string) (*domain.TokenAnalysisResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, mint)
	a.mu.Unlock()
	if a.result != nil {
		return a.result(mint)
	}
	return &domain.TokenAnalysisResult{
		Market:    &domain.TokenMarketSnapshot{Mint: mint},
		RiskScore: 10,
		RiskLevel: domain.RiskLow,
		Signal:    domain.SignalHold,
	}, nil
}

func (a *fakeAnalyzer) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type fakeSentiment struct {
	mu    sync.Mutex
	mints []string
}

func (s *fakeSentiment) Report(_ context.Context, mint string) *domain.SentimentReport {
	s.mu.Lock()
	s.mints = append(s.mints, mint)
	s.mu.Unlock()
	return domain.EmptyReport(mint, domain.ReportNoData, time.Now())
}

func (s *fakeSentiment) Mints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.mints...)
}

func launchTx(sig string, mints ...string) *solana.Transaction {
	tx := &solana.Transaction{Signature: sig, Slot: 100, Meta: &solana.TransactionMeta{}}
	for i, m := range mints {
		tx.Meta.PostTokenBalances = append(tx.Meta.PostTokenBalances, solana.TokenBalance{AccountIndex: i, Mint: m})
	}
	return tx
}

func testConfig() Config {
	return Config{
		Programs:     []Program{PumpFun},
		Workers:      2,
		QueueSize:    8,
		TxRetries:    1,
		TxRetryDelay: time.Millisecond,
	}
}

func startWatcher(t *testing.T, w *Watcher) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(stop)
	return stop, errCh
}

func TestWatcher_AnalyzesNewLaunch(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	rpc.AddTransaction(launchTx("sig1", testMint, solana.WrappedSOLMint))
	analyzer := &fakeAnalyzer{}
	sent := &fakeSentiment{}

	w := New(testConfig(), ws, rpc, analyzer, WithSentiment(sent))
	startWatcher(t, w)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig1", Slot: 100, Logs: []string{createLog}})

	require.Eventually(t, func() bool { return len(sent.Mints()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{testMint}, analyzer.Calls())
	assert.Equal(t, []string{testMint}, sent.Mints())

	require.Eventually(t, func() bool { return w.Stats().LastSignature == "sig1" }, time.Second, 5*time.Millisecond)
	stats := w.Stats()
	assert.True(t, stats.Running)
	assert.Equal(t, int64(1), stats.Notifications)
	assert.Equal(t, int64(1), stats.Launches)
	assert.Equal(t, int64(1), stats.Analyzed)
	assert.Equal(t, 1, stats.MintsSeen)
	assert.Equal(t, int64(100), stats.LastSlot)
}

func TestWatcher_SkipsNonLaunchAndFailedNotifications(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	rpc.AddTransaction(launchTx("sig1", testMint))
	rpc.AddTransaction(launchTx("sig2", testMint))
	analyzer := &fakeAnalyzer{}

	w := New(testConfig(), ws, rpc, analyzer)
	startWatcher(t, w)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig1", Logs: []string{"Program log: Instruction: Buy"}})
	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig2", Logs: []string{createLog}, Err: map[string]interface{}{"InstructionError": 1}})

	require.Eventually(t, func() bool { return w.Stats().Notifications == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), w.Stats().Launches)
	assert.Equal(t, 0, rpc.Calls("getTransaction"))
	assert.Empty(t, analyzer.Calls())
}

func TestWatcher_DeduplicatesMints(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	rpc.AddTransaction(launchTx("sig1", testMint))
	rpc.AddTransaction(launchTx("sig2", testMint))
	analyzer := &fakeAnalyzer{}

	w := New(testConfig(), ws, rpc, analyzer)
	startWatcher(t, w)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig1", Logs: []string{createLog}})
	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig2", Logs: []string{createLog}})

	require.Eventually(t, func() bool { return w.Stats().LastSignature == "sig2" }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return w.Stats().Analyzed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{testMint}, analyzer.Calls())
	assert.Equal(t, int64(2), w.Stats().Launches)
}

func TestWatcher_RestoresAndPersistsProgress(t *testing.T) {
	ctx := context.Background()
	progress := memory.NewWatchProgressStore()
	require.NoError(t, progress.MarkMintSeen(ctx, testMint))
	require.NoError(t, progress.SetLastProcessed(ctx, &storage.WatchProgress{Slot: 50, Signature: "old"}))

	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	// One mint was seen before the restart, the other is fresh.
	rpc.AddTransaction(launchTx("sig1", testMint, freshMint))
	analyzer := &fakeAnalyzer{}

	w := New(testConfig(), ws, rpc, analyzer, WithProgressStore(progress))
	startWatcher(t, w)

	require.Eventually(t, func() bool { return w.Stats().LastSignature == "old" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(50), w.Stats().LastSlot)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig1", Slot: 120, Logs: []string{createLog}})

	require.Eventually(t, func() bool {
		last, err := progress.GetLastProcessed(ctx)
		return err == nil && last.Signature == "sig1"
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(analyzer.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{freshMint}, analyzer.Calls())

	seen, err := progress.IsMintSeen(ctx, freshMint)
	require.NoError(t, err)
	assert.True(t, seen)

	last, err := progress.GetLastProcessed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), last.Slot)
}

func TestWatcher_RetriesMissingTransaction(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	analyzer := &fakeAnalyzer{}

	cfg := testConfig()
	cfg.TxRetries = 2
	w := New(cfg, ws, rpc, analyzer)
	startWatcher(t, w)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "missing", Logs: []string{createLog}})

	require.Eventually(t, func() bool { return rpc.Calls("getTransaction") == 3 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, analyzer.Calls())
}

func TestWatcher_CountsFailuresAndMissingPairs(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	rpc := stub.NewRPCClient()
	rpc.AddTransaction(launchTx("sig1", testMint))
	rpc.AddTransaction(launchTx("sig2", freshMint))
	analyzer := &fakeAnalyzer{result: func(mint string) (*domain.TokenAnalysisResult, error) {
		if mint == testMint {
			return nil, errors.New("market unavailable")
		}
		return nil, nil
	}}

	w := New(testConfig(), ws, rpc, analyzer)
	startWatcher(t, w)

	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig1", Logs: []string{createLog}})
	ws.send(solana.PumpFunProgramID, solana.LogNotification{Signature: "sig2", Logs: []string{createLog}})

	require.Eventually(t, func() bool {
		s := w.Stats()
		return s.Failed == 1 && s.NoPairs == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), w.Stats().Analyzed)
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	w := New(testConfig(), ws, stub.NewRPCClient(), &fakeAnalyzer{})
	cancel, done := startWatcher(t, w)

	require.Eventually(t, func() bool { return w.Stats().Running }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, w.Stats().Running)
}

func TestWatcher_RunFailsWhenSubscriptionsClose(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	w := New(testConfig(), ws, stub.NewRPCClient(), &fakeAnalyzer{})
	_, done := startWatcher(t, w)

	require.Eventually(t, func() bool { return w.Stats().Running }, time.Second, 5*time.Millisecond)
	require.NoError(t, ws.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subscriptions closed")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after subscriptions closed")
	}
}

func TestWatcher_SubscribeError(t *testing.T) {
	ws := newFakeWS(solana.PumpFunProgramID)
	ws.err = errors.New("dial failed")
	w := New(testConfig(), ws, stub.NewRPCClient(), &fakeAnalyzer{})

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe pumpfun")
}

func TestWatcher_DropsWhenQueueFull(t *testing.T) {
	w := New(Config{QueueSize: 1}, newFakeWS(), stub.NewRPCClient(), &fakeAnalyzer{})

	w.enqueue(Launch{Mint: "a"})
	w.enqueue(Launch{Mint: "b"})

	stats := w.Stats()
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestNew_AppliesDefaults(t *testing.T) {
	w := New(Config{TxRetries: -1}, newFakeWS(), stub.NewRPCClient(), &fakeAnalyzer{})

	assert.Len(t, w.cfg.Programs, 2)
	assert.Equal(t, DefaultWorkers, w.cfg.Workers)
	assert.Equal(t, DefaultQueueSize, cap(w.queue))
	assert.Equal(t, 0, w.cfg.TxRetries)
	assert.Equal(t, DefaultTxRetryDelay, w.cfg.TxRetryDelay)
}
