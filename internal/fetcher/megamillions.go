package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"jackpot-alerts/internal/amount"
)

const (
	// MegaMillionsName is the feed identifier and state key for Mega Millions.
	MegaMillionsName = "Mega Millions"

	defaultMegaMillionsURL = "https://www.megamillions.com/cmspages/utilservice.asmx/GetLatestDrawData"
	megaMillionsDateLayout = "2006-01-02T15:04:05"
)

// MegaMillionsOptions parameterise the structured API adapter.
type MegaMillionsOptions struct {
	URL    string
	Client ClientOptions
}

// MegaMillions reads the jackpot from the Mega Millions draw-data service.
type MegaMillions struct {
	url    string
	client *httpClient
	logger zerolog.Logger
}

// NewMegaMillions constructs the structured API adapter.
func NewMegaMillions(opts MegaMillionsOptions, logger zerolog.Logger) *MegaMillions {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		url = defaultMegaMillionsURL
	}
	return &MegaMillions{
		url:    url,
		client: newHTTPClient(opts.Client),
		logger: logger.With().Str("component", "megamillions_fetcher").Logger(),
	}
}

// Name implements Feed.
func (m *MegaMillions) Name() string { return MegaMillionsName }

// Key implements Feed.
func (m *MegaMillions) Key() string { return "megaMillions" }

// Fetch implements Feed.
func (m *MegaMillions) Fetch(ctx context.Context) (result FeedResult) {
	defer recoverResult(MegaMillionsName, &result)

	payload, err := m.client.do(ctx, http.MethodPost, m.url, "application/json", []byte("{}"))
	if err != nil {
		m.logger.Warn().Err(err).Msg("mega millions request failed")
		return Unavailable(MegaMillionsName, err)
	}

	data, err := decodeDrawData(payload)
	if err != nil {
		m.logger.Warn().Err(err).Msg("mega millions payload not decodable")
		return Unparseable(MegaMillionsName, "", err.Error())
	}

	nextDrawing := formatDrawingDate(data.NextDrawingDate)
	pool, ok := data.prizePool()
	if !ok {
		return Unparseable(MegaMillionsName, nextDrawing, "NextPrizePool and CurrentPrizePool missing")
	}

	millions := amount.FromDollars(pool)
	m.logger.Debug().Float64("amount_millions", millions).Str("next_drawing", nextDrawing).Msg("mega millions fetched")
	return Found(MegaMillionsName, millions, nextDrawing)
}

type drawData struct {
	Jackpot struct {
		NextPrizePool    decimal.NullDecimal `json:"NextPrizePool"`
		CurrentPrizePool decimal.NullDecimal `json:"CurrentPrizePool"`
	} `json:"Jackpot"`
	NextDrawingDate string `json:"NextDrawingDate"`
}

// prizePool prefers the advertised next jackpot and falls back to the current one.
func (d drawData) prizePool() (decimal.Decimal, bool) {
	for _, pool := range []decimal.NullDecimal{d.Jackpot.NextPrizePool, d.Jackpot.CurrentPrizePool} {
		if pool.Valid && pool.Decimal.IsPositive() {
			return pool.Decimal, true
		}
	}
	return decimal.Decimal{}, false
}

// decodeDrawData accepts both the ASMX envelope {"d": "<json>"} and a bare document.
func decodeDrawData(payload []byte) (drawData, error) {
	var envelope struct {
		D *string `json:"d"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return drawData{}, err
	}

	inner := payload
	if envelope.D != nil {
		inner = []byte(*envelope.D)
	}

	var data drawData
	if err := json.Unmarshal(inner, &data); err != nil {
		return drawData{}, err
	}
	return data, nil
}

func formatDrawingDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{megaMillionsDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Monday, January 2, 2006")
		}
	}
	return raw
}

var _ Feed = (*MegaMillions)(nil)
