package shield

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/25thblame/prompt-shield/pkg/app/dedup"
	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/cache"
	"github.com/25thblame/prompt-shield/pkg/infra/fingerprint"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"github.com/25thblame/prompt-shield/pkg/infra/telemetry"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCacheTTL = time.Hour
	MaxRecentLimit  = 1000
	MaxWindowDays   = 3650

	recordTimeout = 5 * time.Second
	shutdownPoll  = 10 * time.Millisecond
)

var ErrEngineClosed = errors.New("screening engine is shut down")

type Engine interface {
	Check(ctx context.Context, text, sourceID string) (verdict.Verdict, error)
	GetStats(ctx context.Context, windowDays int) (*attack.Stats, error)
	GetRecentAttacks(ctx context.Context, limit, offset int, types ...verdict.AttackType) ([]attack.AttackRecord, error)
	GetRepeatOffenders(ctx context.Context, windowDays, minCount int) ([]attack.Offender, error)
	Shutdown(ctx context.Context) error
}

type Config struct {
	CacheTTL time.Duration
}

type Option func(*engine)

// WithPublisher forwards every recorded attack to the telemetry exporters.
func WithPublisher(p telemetry.Publisher) Option {
	return func(e *engine) {
		e.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		e.now = now
	}
}

func WithRunner(r dedup.Runner) Option {
	return func(e *engine) {
		e.runner = r
	}
}

type engine struct {
	logger     *logrus.Logger
	cache      cache.VerdictCache
	classifier oracle.Classifier
	ledger     attack.Repository
	runner     dedup.Runner
	publisher  telemetry.Publisher
	cfg        Config
	now        func() time.Time

	inFlight atomic.Int64
	closed   atomic.Bool
}

func NewEngine(
	logger *logrus.Logger,
	verdictCache cache.VerdictCache,
	classifier oracle.Classifier,
	ledger attack.Repository,
	cfg Config,
	opts ...Option,
) Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	e := &engine{
		logger:     logger,
		cache:      verdictCache,
		classifier: classifier,
		ledger:     ledger,
		runner:     dedup.NewCoordinator(),
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check screens text. A cached verdict is returned as is; otherwise the
// oracle is consulted once per fingerprint no matter how many callers ask
// concurrently. The only error callers see for a healthy engine is
// *oracle.ClassificationUnavailableError, or ctx.Err() when they give up.
func (e *engine) Check(ctx context.Context, text, sourceID string) (verdict.Verdict, error) {
	// Counted before the closed check so Shutdown either rejects this call
	// or waits for it.
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	if e.closed.Load() {
		return verdict.Verdict{}, ErrEngineClosed
	}
	start := time.Now()
	fp := fingerprint.Of(text)

	if v, ok := e.cache.Get(ctx, fp); ok {
		e.observe(v, start)
		return v, nil
	}

	v, shared, err := e.runner.Run(ctx, fp, func(ctx context.Context) (verdict.Verdict, error) {
		return e.classify(ctx, fp, text, sourceID)
	})
	if err != nil {
		return verdict.Verdict{}, err
	}
	if shared {
		e.logger.WithField("fingerprint", fp.String()).Debug("verdict shared with concurrent check")
	}
	e.observe(v, start)
	return v, nil
}

// classify runs once per in-flight fingerprint. The attack is attributed to
// the caller that started the call, and the verdict is cached before any
// waiter is released.
func (e *engine) classify(ctx context.Context, fp fingerprint.Fingerprint, text, sourceID string) (verdict.Verdict, error) {
	v, err := e.classifier.Classify(ctx, text)
	if err != nil {
		return verdict.Verdict{}, err
	}
	if v.Degraded {
		return v, nil
	}
	if v.Recordable() {
		e.record(ctx, attack.NewRecord(sourceID, fp.String(), text, v, e.now()))
	}
	e.cache.Put(ctx, fp, v, e.cfg.CacheTTL)
	return v, nil
}

func (e *engine) record(ctx context.Context, rec *attack.AttackRecord) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := e.ledger.Record(ctx, rec); err != nil {
		prometheus.LedgerErrors.Inc()
		e.logger.WithFields(logrus.Fields{
			"fingerprint": rec.Fingerprint,
			"attack_type": rec.AttackType,
			"source_id":   rec.SourceID,
		}).WithError(err).Error("failed to record attack")
		return
	}
	if e.publisher != nil {
		e.publisher.Publish(rec)
	}
	e.logger.WithFields(logrus.Fields{
		"attack_id":   rec.ID.String(),
		"attack_type": rec.AttackType,
		"action":      rec.Action,
		"confidence":  rec.Confidence,
		"source_id":   rec.SourceID,
	}).Info("attack recorded")
}

func (e *engine) observe(v verdict.Verdict, start time.Time) {
	cached := strconv.FormatBool(v.Cached)
	prometheus.ChecksTotal.WithLabelValues(string(v.Action), cached).Inc()
	prometheus.CheckLatency.WithLabelValues(cached).Observe(float64(time.Since(start).Milliseconds()))
}

func (e *engine) windowStart(windowDays int) (time.Time, error) {
	if windowDays <= 0 || windowDays > MaxWindowDays {
		return time.Time{}, fmt.Errorf("%w: got %d", domain.ErrInvalidWindow, windowDays)
	}
	return e.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour), nil
}

func (e *engine) GetStats(ctx context.Context, windowDays int) (*attack.Stats, error) {
	since, err := e.windowStart(windowDays)
	if err != nil {
		return nil, err
	}
	stats, err := e.ledger.StatsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load attack stats: %w", err)
	}
	return stats, nil
}

// GetRecentAttacks pages through the ledger newest first. Limits above
// MaxRecentLimit are clamped.
func (e *engine) GetRecentAttacks(
	ctx context.Context,
	limit, offset int,
	types ...verdict.AttackType,
) ([]attack.AttackRecord, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit=%d offset=%d", domain.ErrInvalidPagination, limit, offset)
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	records, err := e.ledger.Recent(ctx, limit, offset, types...)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attacks: %w", err)
	}
	return records, nil
}

func (e *engine) GetRepeatOffenders(ctx context.Context, windowDays, minCount int) ([]attack.Offender, error) {
	since, err := e.windowStart(windowDays)
	if err != nil {
		return nil, err
	}
	if minCount < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidMinCount, minCount)
	}
	offenders, err := e.ledger.RepeatOffenders(ctx, since, minCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load repeat offenders: %w", err)
	}
	return offenders, nil
}

// Shutdown rejects new checks and waits for admitted ones, plus any oracle
// call a departed caller left behind, so their verdicts reach the cache and
// the ledger.
func (e *engine) Shutdown(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	ticker := time.NewTicker(shutdownPoll)
	defer ticker.Stop()
	for e.inFlight.Load() > 0 || e.runner.Pending() > 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d in-flight check(s) and %d oracle call(s): %w",
				e.inFlight.Load(), e.runner.Pending(), ctx.Err())
		}
	}
	e.logger.Info("screening engine stopped")
	return nil
}
