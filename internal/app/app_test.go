package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jackpot-alerts/internal/alerting"
	"jackpot-alerts/internal/config"
	"jackpot-alerts/internal/fetcher"
	"jackpot-alerts/internal/storage"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []alerting.Email
}

func (r *recordingSender) Send(_ context.Context, email alerting.Email) alerting.SendResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, email)
	return alerting.SendResult{Success: true}
}

func testApp() *App {
	cfg := &config.Config{
		Threshold: config.ThresholdConfig{DefaultMillions: 1500},
		State:     config.StateConfig{Backend: config.BackendMemory},
		Email: config.EmailConfig{
			Enabled: true,
			APIURL:  "http://mail.invalid/send",
			From:    "alerts@example.com",
			To:      "me@example.com",
		},
	}
	return NewApp(cfg, zerolog.Nop())
}

func TestSimulateSendsForCrossingFeedsOnly(t *testing.T) {
	sender := &recordingSender{}
	report, err := testApp().simulate(context.Background(), SimulateOptions{
		Powerball:            1600,
		MegaMillions:         900,
		PreviousPowerball:    1200,
		PreviousMegaMillions: 800,
	}, sender)
	if err != nil {
		t.Fatalf("模拟失败: %v", err)
	}
	if len(sender.sent) != 1 || !strings.HasPrefix(sender.sent[0].Subject, fetcher.PowerballName) {
		t.Fatalf("只应为 Powerball 发送邮件: %#v", sender.sent)
	}
	if len(report.Notified) != 1 {
		t.Fatalf("通知列表不正确: %v", report.Notified)
	}
}

func TestSimulatePreviousAboveThresholdIsSilent(t *testing.T) {
	sender := &recordingSender{}
	_, err := testApp().simulate(context.Background(), SimulateOptions{
		Powerball:         1600,
		PreviousPowerball: 1550,
	}, sender)
	if err != nil {
		t.Fatalf("模拟失败: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("上一次已超过阈值不应再次通知: %d", len(sender.sent))
	}
}

func TestSimulateAlertRequiresEmail(t *testing.T) {
	a := testApp()
	a.Config.Email.Enabled = false
	if _, err := a.SimulateAlert(context.Background(), SimulateOptions{Powerball: 2000}); err == nil {
		t.Fatal("未配置邮件时应返回错误")
	}
}

func TestOpenStoreRejectsUnknownBackend(t *testing.T) {
	a := testApp()
	a.Config.State.Backend = "etcd"
	if _, _, err := a.openStore(context.Background()); err == nil {
		t.Fatal("未知存储后端应返回错误")
	}
}

func TestWriteStates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	observed := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	_ = store.PutState(ctx, fetcher.PowerballName, storage.FeedState{AmountMillions: 1700, ObservedAt: observed})

	var buf bytes.Buffer
	if err := writeStates(ctx, &buf, store, []string{fetcher.PowerballName, fetcher.MegaMillionsName}); err != nil {
		t.Fatalf("输出状态失败: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "$1.70 Billion") || !strings.Contains(out, "2025-09-01T12:00:00Z") {
		t.Fatalf("Powerball 行不正确:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[2], fetcher.MegaMillionsName) || !strings.Contains(lines[2], "-") {
		t.Fatalf("缺失状态应显示占位符:\n%s", out)
	}
}
