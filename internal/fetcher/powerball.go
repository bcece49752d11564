package fetcher

import (
	"context"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"jackpot-alerts/internal/amount"
)

const (
	// PowerballName is the feed identifier and state key for Powerball.
	PowerballName = "Powerball"

	defaultPowerballURL = "https://www.powerball.com/"
)

// Extraction strategies are tried in order; the first match wins.
var (
	powerballAmountStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?is)class="[^"]*game-jackpot-number[^"]*"[^>]*>\s*(\$[0-9][0-9.,]*\s*(?:Billion|Million))`),
		regexp.MustCompile(`(?is)Estimated\s+Jackpot.{0,300}?(\$[0-9][0-9.,]*\s*(?:Billion|Million))`),
		regexp.MustCompile(`(?i)(\$[0-9][0-9.,]*\s*(?:Billion|Million))`),
	}

	powerballDrawingStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?is)class="[^"]*title-date[^"]*"[^>]*>\s*([^<]+?)\s*<`),
		regexp.MustCompile(`(?is)Next\s+Drawing.{0,300}?((?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*,?\s+[A-Z][a-z]{2,8}\.?\s+[0-9]{1,2}(?:,\s*[0-9]{4})?)`),
	}
)

// PowerballOptions parameterise the HTML scrape adapter.
type PowerballOptions struct {
	URL    string
	Client ClientOptions
}

// Powerball scrapes the jackpot from the Powerball home page.
type Powerball struct {
	url    string
	client *httpClient
	logger zerolog.Logger
}

// NewPowerball constructs the HTML scrape adapter.
func NewPowerball(opts PowerballOptions, logger zerolog.Logger) *Powerball {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		url = defaultPowerballURL
	}
	return &Powerball{
		url:    url,
		client: newHTTPClient(opts.Client),
		logger: logger.With().Str("component", "powerball_fetcher").Logger(),
	}
}

// Name implements Feed.
func (p *Powerball) Name() string { return PowerballName }

// Key implements Feed.
func (p *Powerball) Key() string { return "powerball" }

// Fetch implements Feed.
func (p *Powerball) Fetch(ctx context.Context) (result FeedResult) {
	defer recoverResult(PowerballName, &result)

	payload, err := p.client.do(ctx, http.MethodGet, p.url, "text/html", nil)
	if err != nil {
		p.logger.Warn().Err(err).Msg("powerball request failed")
		return Unavailable(PowerballName, err)
	}

	page := string(payload)
	nextDrawing, _ := firstMatch(powerballDrawingStrategies, page)

	text, ok := firstMatch(powerballAmountStrategies, page)
	if !ok {
		return Unparseable(PowerballName, nextDrawing, "no extraction strategy matched")
	}

	millions, err := amount.Parse(text)
	if err != nil || millions <= 0 {
		return Unparseable(PowerballName, nextDrawing, "unrecognised figure "+text)
	}

	p.logger.Debug().Float64("amount_millions", millions).Str("next_drawing", nextDrawing).Msg("powerball fetched")
	return Found(PowerballName, millions, nextDrawing)
}

func firstMatch(strategies []*regexp.Regexp, text string) (string, bool) {
	for _, re := range strategies {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		value := strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
		if value != "" {
			return value, true
		}
	}
	return "", false
}

var _ Feed = (*Powerball)(nil)
