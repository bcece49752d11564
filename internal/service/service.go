package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jackpot-alerts/internal/alerting"
	"jackpot-alerts/internal/config"
	"jackpot-alerts/internal/crossing"
	"jackpot-alerts/internal/fetcher"
	"jackpot-alerts/internal/storage"
	"jackpot-alerts/internal/tasks"
	"jackpot-alerts/internal/threshold"
)

// Service orchestrates fetching, threshold evaluation, crossing detection,
// notification and persistence.
type Service struct {
	feeds  []fetcher.Feed
	store  storage.StateStore
	sender alerting.Sender
	logger zerolog.Logger

	rawThreshold     string
	defaultThreshold float64
	email            config.EmailConfig
	locker           storage.AdvisoryLocker
	lockKey          int64

	now func() time.Time
}

// New constructs the monitoring service. sender may be nil when email is not configured.
func New(cfg *config.Config, feeds []fetcher.Feed, store storage.StateStore, sender alerting.Sender, logger zerolog.Logger) *Service {
	defaultThreshold := cfg.Threshold.DefaultMillions
	if defaultThreshold <= 0 {
		defaultThreshold = threshold.DefaultMillions
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		feeds:            feeds,
		store:            store,
		sender:           sender,
		logger:           logger.With().Str("component", "service").Logger(),
		rawThreshold:     cfg.Threshold.AmountMillions,
		defaultThreshold: defaultThreshold,
		email:            cfg.Email,
		locker:           locker,
		lockKey:          cfg.Scheduler.AdvisoryLockKey,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Report describes one full run. Background holds the notification and
// persistence tasks; the host must Wait on it before shutting down.
type Report struct {
	RunID      string              `json:"runId"`
	Snapshot   Snapshot            `json:"snapshot"`
	Decisions  []crossing.Decision `json:"decisions"`
	Notified   []string            `json:"notified"`
	Background *tasks.Group        `json:"-"`
}

// Snapshot fetches every feed and evaluates it against the threshold.
// Nothing is persisted or sent.
func (s *Service) Snapshot(ctx context.Context) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("snapshot aborted")
			snap, err = Snapshot{}, fmt.Errorf("snapshot aborted: %v", r)
		}
	}()

	results, err := s.fetchAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.evaluate(results), nil
}

// Run executes one full check. Any error means nothing was persisted or sent.
func (s *Service) Run(ctx context.Context) (report *Report, err error) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("run aborted")
			report, err = nil, fmt.Errorf("run %s aborted: %v", runID, r)
		}
	}()

	results, err := s.fetchAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("run aborted while fetching")
		return nil, err
	}
	// a cancelled fetch looks like an outage; persisting its zeros would re-arm every crossing
	if err := s.checkCancelled(ctx, logger, "fetching"); err != nil {
		return nil, err
	}
	previous, err := s.loadPrevious(ctx, logger)
	if err != nil {
		logger.Error().Err(err).Msg("run aborted while loading state")
		return nil, err
	}

	snap := s.evaluate(results)
	observedAt := s.now()

	decisions := make([]crossing.Decision, 0, len(results))
	var outgoing []alerting.Email
	var notified []string
	for i, res := range results {
		decision, err := crossing.Detect(previous[i], res.AmountMillions, snap.Threshold.AmountMillions)
		if err != nil {
			logger.Error().Err(err).Str("feed", res.Name).Msg("run aborted by invalid input")
			return nil, fmt.Errorf("detect crossing for %s: %w", res.Name, err)
		}
		decision.Feed = res.Name
		decisions = append(decisions, decision)

		if !decision.Crossed || res.Failed() {
			continue
		}
		if s.sender == nil || !alerting.IsConfigured(s.email) {
			logger.Info().Str("feed", res.Name).Msg("threshold crossed; notifications disabled")
			continue
		}

		body, err := alerting.BuildMessage(res.Name, decision.PreviousMillions, decision.CurrentMillions, decision.ThresholdMillions, res.NextDrawing)
		if err != nil {
			logger.Error().Err(err).Str("feed", res.Name).Msg("run aborted by invalid message input")
			return nil, fmt.Errorf("build message for %s: %w", res.Name, err)
		}
		outgoing = append(outgoing, alerting.Email{
			From:    s.email.From,
			To:      s.email.To,
			Subject: alerting.Subject(res.Name, decision.CurrentMillions),
			HTML:    body,
		})
		notified = append(notified, res.Name)
	}

	if err := s.checkCancelled(ctx, logger, "detecting"); err != nil {
		return nil, err
	}
	s.logSummary(logger, snap, decisions)

	// side effects start here; they outlive the caller's context
	bgCtx := context.WithoutCancel(ctx)
	background := tasks.NewGroup(logger)

	for i, email := range outgoing {
		feed := notified[i]
		background.Go("notify:"+feed, func() error {
			return s.dispatch(bgCtx, logger, feed, email)
		})
	}
	for _, res := range results {
		feed := res.Name
		state := storage.FeedState{AmountMillions: res.AmountMillions, ObservedAt: observedAt}
		background.Go("persist:"+feed, func() error {
			return s.persist(bgCtx, logger, feed, state)
		})
	}

	return &Report{
		RunID:      runID,
		Snapshot:   snap,
		Decisions:  decisions,
		Notified:   notified,
		Background: background,
	}, nil
}

// Tick is the scheduled entry point: it runs a check and waits for its
// background work before returning.
func (s *Service) Tick(ctx context.Context, at time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("at", at).Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	report, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Background.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("background tasks finished with errors")
	}
	return nil
}

func (s *Service) checkCancelled(ctx context.Context, logger zerolog.Logger, stage string) error {
	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Str("stage", stage).Msg("run cancelled; nothing persisted or sent")
		return fmt.Errorf("run cancelled while %s: %w", stage, err)
	}
	return nil
}

func (s *Service) fetchAll(ctx context.Context) ([]fetcher.FeedResult, error) {
	results := make([]fetcher.FeedResult, len(s.feeds))

	var g errgroup.Group
	for i, feed := range s.feeds {
		i, feed := i, feed
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("feed %s panicked: %v", feed.Name(), r)
				}
			}()
			results[i] = feed.Fetch(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].Name == "" {
			results[i].Name = s.feeds[i].Name()
		}
		if results[i].Failed() {
			results[i].AmountMillions = 0
		}
	}
	return results, nil
}

func (s *Service) loadPrevious(ctx context.Context, logger zerolog.Logger) ([]float64, error) {
	previous := make([]float64, len(s.feeds))

	var g errgroup.Group
	for i, feed := range s.feeds {
		i, feed := i, feed
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("state read for %s panicked: %v", feed.Name(), r)
				}
			}()

			amount, err := storage.LoadAmount(ctx, s.store, feed.Name())
			if err != nil {
				logger.Warn().Err(err).Str("feed", feed.Name()).Msg("failed to read previous state; assuming 0")
			}
			previous[i] = amount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return previous, nil
}

func (s *Service) evaluate(results []fetcher.FeedResult) Snapshot {
	cfg := threshold.Resolve(s.rawThreshold, s.defaultThreshold)
	annotated, summary := threshold.Evaluate(results, cfg)

	keys := make([]string, len(s.feeds))
	for i, feed := range s.feeds {
		keys[i] = feed.Key()
	}

	return Snapshot{
		Timestamp: s.now(),
		Keys:      keys,
		Results:   annotated,
		Threshold: cfg,
		Summary:   summary,
	}
}

func (s *Service) dispatch(ctx context.Context, logger zerolog.Logger, feed string, email alerting.Email) error {
	res := s.sender.Send(ctx, email)
	if !res.Success {
		logger.Error().Str("feed", feed).Str("detail", res.ErrorDetail).Msg("failed to dispatch alert")
		return fmt.Errorf("send alert for %s: %s", feed, res.ErrorDetail)
	}
	logger.Info().Str("feed", feed).Str("to", email.To).Msg("alert dispatched")
	return nil
}

func (s *Service) persist(ctx context.Context, logger zerolog.Logger, feed string, state storage.FeedState) error {
	if err := s.store.PutState(ctx, feed, state); err != nil {
		logger.Error().Err(err).Str("feed", feed).Msg("failed to persist feed state")
		return err
	}
	logger.Debug().Str("feed", feed).Float64("amount_millions", state.AmountMillions).Msg("feed state persisted")
	return nil
}

func (s *Service) logSummary(logger zerolog.Logger, snap Snapshot, decisions []crossing.Decision) {
	evt := logger.Info().
		Float64("threshold_millions", snap.Threshold.AmountMillions).
		Str("threshold", snap.Threshold.Display()).
		Bool("exceeded", snap.Summary.Exceeded).
		Strs("exceeding_feeds", snap.Summary.ExceedingFeeds)

	var crossed []string
	for i, res := range snap.Results {
		evt = evt.Dict(snap.Keys[i], zerolog.Dict().
			Str("jackpot", res.Jackpot).
			Float64("amount_millions", res.AmountMillions).
			Str("next_drawing", res.NextDrawing).
			Str("error", res.Error).
			Bool("exceeds_threshold", res.ExceedsThreshold).
			Float64("previous_millions", decisions[i].PreviousMillions).
			Bool("crossed", decisions[i].Crossed))
		if decisions[i].Crossed {
			crossed = append(crossed, decisions[i].Feed)
		}
	}
	evt.Strs("crossings", crossed).Msg("jackpot check complete")

	if snap.Summary.Exceeded {
		logger.Warn().Strs("feeds", snap.Summary.ExceedingFeeds).
			Msgf("ALERT: jackpot at or above %s", snap.Threshold.Display())
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
