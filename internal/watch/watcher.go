package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/solana"
	"solana-token-sentinel/internal/storage"
)

// Default configuration values.
const (
	DefaultWorkers      = 4
	DefaultQueueSize    = 256
	DefaultSeenCapacity = 100_000
	DefaultTxRetries    = 3
	DefaultTxRetryDelay = 500 * time.Millisecond
)

// Analyzer runs the risk analysis for one mint.
type Analyzer interface {
	Analyze(ctx context.Context, mint string) (*domain.TokenAnalysisResult, error)
}

// SentimentReporter builds a sentiment report for one mint.
type SentimentReporter interface {
	Report(ctx context.Context, mint string) *domain.SentimentReport
}

// Config configures a Watcher.
type Config struct {
	Programs     []Program
	Workers      int
	QueueSize    int
	SeenCapacity int
	// AnalyzeDelay postpones analysis so market indexers can pick up the new pair.
	AnalyzeDelay time.Duration
	TxRetries    int
	TxRetryDelay time.Duration
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Programs:     DefaultPrograms(),
		Workers:      DefaultWorkers,
		QueueSize:    DefaultQueueSize,
		SeenCapacity: DefaultSeenCapacity,
		TxRetries:    DefaultTxRetries,
		TxRetryDelay: DefaultTxRetryDelay,
	}
}

// Launch is a newly seen mint waiting for analysis.
type Launch struct {
	Mint      string
	Program   string
	Signature string
	Slot      int64
	SeenAt    time.Time
}

// Stats is a snapshot of watcher counters.
type Stats struct {
	Running       bool   `json:"running"`
	Notifications int64  `json:"notifications"`
	Launches      int64  `json:"launches"`
	MintsSeen     int    `json:"mints_seen"`
	Queued        int    `json:"queued"`
	Dropped       int64  `json:"dropped"`
	Analyzed      int64  `json:"analyzed"`
	NoPairs       int64  `json:"no_pairs"`
	Failed        int64  `json:"failed"`
	LastSlot      int64  `json:"last_slot"`
	LastSignature string `json:"last_signature,omitempty"`
}

// Watcher turns launch log notifications into analyses.
type Watcher struct {
	cfg       Config
	ws        solana.WSClient
	rpc       solana.RPCClient
	analyzer  Analyzer
	sentiment SentimentReporter          // optional
	progress  storage.WatchProgressStore // optional
	logger    zerolog.Logger

	seen  *seenSet
	queue chan Launch

	running       atomic.Bool
	notifications atomic.Int64
	launches      atomic.Int64
	dropped       atomic.Int64
	analyzed      atomic.Int64
	noPairs       atomic.Int64
	failed        atomic.Int64

	mu       sync.Mutex
	lastSlot int64
	lastSig  string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSentiment also builds a sentiment report for each launch.
func WithSentiment(s SentimentReporter) Option {
	return func(w *Watcher) {
		w.sentiment = s
	}
}

// WithProgressStore persists seen mints and the last processed notification.
func WithProgressStore(p storage.WatchProgressStore) Option {
	return func(w *Watcher) {
		w.progress = p
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher. Zero config values take defaults.
func New(cfg Config, ws solana.WSClient, rpc solana.RPCClient, analyzer Analyzer, opts ...Option) *Watcher {
	def := DefaultConfig()
	if len(cfg.Programs) == 0 {
		cfg.Programs = def.Programs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.SeenCapacity <= 0 {
		cfg.SeenCapacity = def.SeenCapacity
	}
	if cfg.TxRetries < 0 {
		cfg.TxRetries = 0
	}
	if cfg.TxRetryDelay <= 0 {
		cfg.TxRetryDelay = def.TxRetryDelay
	}

	w := &Watcher{
		cfg:      cfg,
		ws:       ws,
		rpc:      rpc,
		analyzer: analyzer,
		logger:   zerolog.Nop(),
		seen:     newSeenSet(cfg.SeenCapacity),
		queue:    make(chan Launch, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type programNotification struct {
	program Program
	notif   solana.LogNotification
}

// Run subscribes to every program and processes launches until ctx is done.
// It returns ctx.Err() on shutdown, or an error if subscribing fails or every
// subscription closes.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.warm(ctx); err != nil {
		return err
	}

	// One subscription per program: some providers accept a single mention per filter.
	merged := make(chan programNotification, w.cfg.QueueSize)
	var subs sync.WaitGroup
	for _, p := range w.cfg.Programs {
		ch, err := w.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{p.ID}})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", p.Name, err)
		}
		w.logger.Info().Str("program", p.Name).Str("program_id", p.ID).Msg("subscribed to launch logs")

		subs.Add(1)
		go func(p Program, ch <-chan solana.LogNotification) {
			defer subs.Done()
			for notif := range ch {
				select {
				case merged <- programNotification{program: p, notif: notif}:
				case <-ctx.Done():
					return
				}
			}
		}(p, ch)
	}
	go func() {
		subs.Wait()
		close(merged)
	}()

	w.running.Store(true)
	defer w.running.Store(false)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.worker(workerCtx)
		}()
	}
	defer func() {
		stopWorkers()
		workers.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pn, ok := <-merged:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("all log subscriptions closed")
			}
			w.handle(ctx, pn.program, pn.notif)
		}
	}
}

// warm loads persisted seen mints into the in-memory set.
func (w *Watcher) warm(ctx context.Context) error {
	if w.progress == nil {
		return nil
	}
	mints, err := w.progress.LoadSeenMints(ctx)
	if err != nil {
		return fmt.Errorf("load seen mints: %w", err)
	}
	for _, m := range mints {
		w.seen.Add(m)
	}

	last, err := w.progress.GetLastProcessed(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load watch progress: %w", err)
	default:
		w.setLast(last.Slot, last.Signature)
	}

	w.logger.Info().Int("seen_mints", len(mints)).Msg("watcher state restored")
	return nil
}

// handle processes one notification: launch detection, transaction fetch,
// de-duplication and enqueueing.
func (w *Watcher) handle(ctx context.Context, p Program, notif solana.LogNotification) {
	w.notifications.Add(1)
	if notif.Err != nil || !p.IsLaunch(notif.Logs) {
		return
	}
	w.launches.Add(1)

	tx, err := w.fetchTransaction(ctx, notif.Signature)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn().Err(err).Str("signature", notif.Signature).Msg("fetch launch transaction failed")
		}
		return
	}
	if tx == nil {
		w.logger.Debug().Str("signature", notif.Signature).Msg("launch transaction not available")
		return
	}

	for _, mint := range NewMints(tx) {
		if !w.seen.Add(mint) {
			continue
		}
		observability.RecordMintSeen()
		if w.progress != nil {
			if err := w.progress.MarkMintSeen(ctx, mint); err != nil {
				w.logger.Warn().Err(err).Str("mint", mint).Msg("persist seen mint failed")
			}
		}
		w.enqueue(Launch{
			Mint:      mint,
			Program:   p.Name,
			Signature: notif.Signature,
			Slot:      notif.Slot,
			SeenAt:    time.Now(),
		})
	}

	w.setLast(notif.Slot, notif.Signature)
	if w.progress != nil {
		if err := w.progress.SetLastProcessed(ctx, &storage.WatchProgress{Slot: notif.Slot, Signature: notif.Signature}); err != nil {
			w.logger.Warn().Err(err).Msg("persist watch progress failed")
		}
	}
}

// fetchTransaction retries while the node has not indexed the transaction yet.
func (w *Watcher) fetchTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	delay := w.cfg.TxRetryDelay
	for attempt := 0; ; attempt++ {
		tx, err := w.rpc.GetTransaction(ctx, signature)
		if err != nil || tx != nil || attempt >= w.cfg.TxRetries {
			return tx, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// enqueue never blocks the notification loop; a full queue drops the launch.
func (w *Watcher) enqueue(l Launch) {
	select {
	case w.queue <- l:
		observability.UpdateWatcherQueue(len(w.queue))
	default:
		w.dropped.Add(1)
		w.logger.Warn().Str("mint", l.Mint).Msg("analysis queue full, launch dropped")
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case l := <-w.queue:
			observability.UpdateWatcherQueue(len(w.queue))
			w.process(ctx, l)
		}
	}
}

func (w *Watcher) process(ctx context.Context, l Launch) {
	if w.cfg.AnalyzeDelay > 0 {
		if wait := time.Until(l.SeenAt.Add(w.cfg.AnalyzeDelay)); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}

	log := w.logger.With().Str("mint", l.Mint).Str("program", l.Program).Logger()

	res, err := w.analyzer.Analyze(ctx, l.Mint)
	switch {
	case err != nil:
		w.failed.Add(1)
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("launch analysis failed")
		}
		return
	case res == nil:
		w.noPairs.Add(1)
		log.Debug().Msg("launch has no trading pairs yet")
		return
	}
	w.analyzed.Add(1)
	log.Info().
		Int("risk_score", res.RiskScore).
		Str("risk_level", string(res.RiskLevel)).
		Str("signal", string(res.Signal)).
		Msg("launch analysed")

	if w.sentiment != nil {
		report := w.sentiment.Report(ctx, l.Mint)
		log.Debug().Str("status", string(report.Status)).Int("score", report.OverallScore).Msg("launch sentiment")
	}
}

func (w *Watcher) setLast(slot int64, sig string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSlot = slot
	w.lastSig = sig
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	slot, sig := w.lastSlot, w.lastSig
	w.mu.Unlock()

	return Stats{
		Running:       w.running.Load(),
		Notifications: w.notifications.Load(),
		Launches:      w.launches.Load(),
		MintsSeen:     w.seen.Len(),
		Queued:        len(w.queue),
		Dropped:       w.dropped.Load(),
		Analyzed:      w.analyzed.Load(),
		NoPairs:       w.noPairs.Load(),
		Failed:        w.failed.Load(),
		LastSlot:      slot,
		LastSignature: sig,
	}
}
