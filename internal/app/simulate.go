package app

import (
	"context"
	"errors"
	"fmt"

	"jackpot-alerts/internal/alerting"
	"jackpot-alerts/internal/fetcher"
	"jackpot-alerts/internal/service"
	"jackpot-alerts/internal/storage"
)

// SimulateAlert 使用给定金额与预置的上一次状态跑完整流程，用于验证邮件发送。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) (*service.Report, error) {
	if !alerting.IsConfigured(a.Config.Email) {
		return nil, errors.New("email 未配置, 无法发送模拟告警")
	}
	return a.simulate(ctx, opts, a.newSender())
}

func (a *App) simulate(ctx context.Context, opts SimulateOptions, sender alerting.Sender) (*service.Report, error) {
	store := storage.NewMemoryStore()
	seeds := map[string]float64{
		fetcher.PowerballName:    opts.PreviousPowerball,
		fetcher.MegaMillionsName: opts.PreviousMegaMillions,
	}
	for feed, previous := range seeds {
		if err := store.PutState(ctx, feed, storage.FeedState{AmountMillions: previous}); err != nil {
			return nil, fmt.Errorf("seed %s: %w", feed, err)
		}
	}

	feeds := []fetcher.Feed{
		&staticFeed{name: fetcher.PowerballName, key: "powerball", millions: opts.Powerball},
		&staticFeed{name: fetcher.MegaMillionsName, key: "megaMillions", millions: opts.MegaMillions},
	}

	svc := service.New(a.Config, feeds, store, sender, a.Logger)
	report, err := svc.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := report.Background.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

type staticFeed struct {
	name     string
	key      string
	millions float64
}

func (s *staticFeed) Name() string { return s.name }
func (s *staticFeed) Key() string  { return s.key }

func (s *staticFeed) Fetch(ctx context.Context) fetcher.FeedResult {
	return fetcher.Found(s.name, s.millions, "Simulated drawing")
}

var _ fetcher.Feed = (*staticFeed)(nil)
