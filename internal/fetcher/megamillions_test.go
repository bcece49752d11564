package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newMegaMillionsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("应使用 POST, 实际 %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func envelope(t *testing.T, inner string) string {
	t.Helper()
	out, err := json.Marshal(map[string]string{"d": inner})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(out)
}

func TestMegaMillionsFetchSuccess(t *testing.T) {
	inner := `{"Jackpot":{"NextPrizePool":1700000000.0,"CurrentPrizePool":1500000000.0},"NextDrawingDate":"2026-10-20T23:00:00"}`
	srv := newMegaMillionsServer(t, http.StatusOK, envelope(t, inner))
	defer srv.Close()

	feed := NewMegaMillions(MegaMillionsOptions{URL: srv.URL, Client: ClientOptions{Timeout: time.Second}}, noopLogger())
	res := feed.Fetch(context.Background())

	if res.Failed() {
		t.Fatalf("不应失败: %s", res.Error)
	}
	if res.Name != MegaMillionsName {
		t.Fatalf("name 不正确: %q", res.Name)
	}
	if res.AmountMillions != 1700 {
		t.Fatalf("期望 1700, 实际 %v", res.AmountMillions)
	}
	if res.Jackpot != "$1.70 Billion" {
		t.Fatalf("jackpot 显示不正确: %q", res.Jackpot)
	}
	if res.NextDrawing != "Tuesday, October 20, 2026" {
		t.Fatalf("next drawing 不正确: %q", res.NextDrawing)
	}
}

func TestMegaMillionsBareDocument(t *testing.T) {
	srv := newMegaMillionsServer(t, http.StatusOK, `{"Jackpot":{"NextPrizePool":"500000000"},"NextDrawingDate":""}`)
	defer srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if res.Failed() || res.AmountMillions != 500 {
		t.Fatalf("裸文档应解析成功: %#v", res)
	}
	if res.NextDrawing != DisplayNotFound {
		t.Fatalf("缺少日期应为 Not found, 实际 %q", res.NextDrawing)
	}
}

func TestMegaMillionsHTTPError(t *testing.T) {
	srv := newMegaMillionsServer(t, http.StatusInternalServerError, "boom")
	defer srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if !res.Failed() {
		t.Fatal("HTTP 500 应标记错误")
	}
	if res.Jackpot != DisplayError || res.NextDrawing != DisplayError || res.AmountMillions != 0 {
		t.Fatalf("传输错误结果不正确: %#v", res)
	}
}

func TestMegaMillionsMissingPrizePool(t *testing.T) {
	srv := newMegaMillionsServer(t, http.StatusOK, envelope(t, `{"Jackpot":{},"NextDrawingDate":"2026-10-20T23:00:00"}`))
	defer srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if !res.Failed() {
		t.Fatal("缺少奖池应标记错误")
	}
	if res.Jackpot != DisplayNotFound || res.AmountMillions != 0 {
		t.Fatalf("解析失败结果不正确: %#v", res)
	}
	if res.NextDrawing != "Tuesday, October 20, 2026" {
		t.Fatalf("日期仍应保留: %q", res.NextDrawing)
	}
}

func TestMegaMillionsGarbage(t *testing.T) {
	srv := newMegaMillionsServer(t, http.StatusOK, "<html>maintenance</html>")
	defer srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if res.Jackpot != DisplayNotFound || !res.Failed() {
		t.Fatalf("非 JSON 应视为 Not found: %#v", res)
	}
}

func TestMegaMillionsUnreachable(t *testing.T) {
	srv := newMegaMillionsServer(t, http.StatusOK, "{}")
	url := srv.URL
	srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: url, Client: ClientOptions{Timeout: time.Second}}, noopLogger()).Fetch(context.Background())
	if res.Jackpot != DisplayError || !res.Failed() {
		t.Fatalf("不可达应视为 Error: %#v", res)
	}
}

func TestMegaMillionsFallsBackToCurrentPrizePool(t *testing.T) {
	inner := `{"Jackpot":{"NextPrizePool":null,"CurrentPrizePool":900000000},"NextDrawingDate":"2026-10-20T23:00:00"}`
	srv := newMegaMillionsServer(t, http.StatusOK, envelope(t, inner))
	defer srv.Close()

	res := NewMegaMillions(MegaMillionsOptions{URL: srv.URL}, noopLogger()).Fetch(context.Background())
	if res.Failed() || res.AmountMillions != 900 {
		t.Fatalf("缺少 NextPrizePool 时应使用 CurrentPrizePool: %#v", res)
	}
}
