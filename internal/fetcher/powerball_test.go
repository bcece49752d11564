package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const powerballPage = `<html><body>
<div class="card">
  <h5 class="card-title">Estimated Jackpot:</h5>
  <span class="game-jackpot-number text-xxxl lh-1 text-center">$1.7 Billion</span>
  <span class="game-jackpot-number text-lg lh-1 text-center">$770.3 Million</span>
  <h5 class="card-title">Next Drawing:</h5>
  <h5 class="title-date">Wed, Oct 21, 2026</h5>
</div>
</body></html>`

func newPowerballServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "jackpotwatch") && ua != "test-agent" {
			t.Fatalf("User-Agent 不正确: %q", ua)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestPowerballFetchSuccess(t *testing.T) {
	srv := newPowerballServer(t, http.StatusOK, powerballPage)
	defer srv.Close()

	res := NewPowerball(PowerballOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if res.Failed() {
		t.Fatalf("不应失败: %s", res.Error)
	}
	if res.AmountMillions != 1700 || res.Jackpot != "$1.70 Billion" {
		t.Fatalf("金额解析不正确: %#v", res)
	}
	if res.NextDrawing != "Wed, Oct 21, 2026" {
		t.Fatalf("开奖日期不正确: %q", res.NextDrawing)
	}
}

func TestPowerballFallbackStrategy(t *testing.T) {
	page := `<p>Estimated Jackpot</p><strong>$450 Million</strong><p>Next Drawing: Sat, Oct 24, 2026</p>`
	srv := newPowerballServer(t, http.StatusOK, page)
	defer srv.Close()

	res := NewPowerball(PowerballOptions{URL: srv.URL, Client: ClientOptions{UserAgent: "test-agent"}}, noopLogger()).Fetch(context.Background())
	if res.Failed() || res.AmountMillions != 450 {
		t.Fatalf("后备策略应命中: %#v", res)
	}
	if res.NextDrawing != "Sat, Oct 24, 2026" {
		t.Fatalf("后备日期策略应命中: %q", res.NextDrawing)
	}
}

func TestPowerballNotFound(t *testing.T) {
	srv := newPowerballServer(t, http.StatusOK, `<html><body>Jackpot coming soon</body></html>`)
	defer srv.Close()

	res := NewPowerball(PowerballOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if !res.Failed() {
		t.Fatal("没有金额应标记错误")
	}
	if res.Jackpot != DisplayNotFound || res.NextDrawing != DisplayNotFound || res.AmountMillions != 0 {
		t.Fatalf("Not found 结果不正确: %#v", res)
	}
}

func TestPowerballHTTPError(t *testing.T) {
	srv := newPowerballServer(t, http.StatusServiceUnavailable, "")
	defer srv.Close()

	res := NewPowerball(PowerballOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if res.Jackpot != DisplayError || !strings.Contains(res.Error, "503") {
		t.Fatalf("HTTP 503 应标记 Error: %#v", res)
	}
}
