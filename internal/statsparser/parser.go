package statsparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://t.me"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	avgViewsWindow = 20
)

// ErrChannelNotFound means t.me has no public preview for the username.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelSnapshot is what the public t.me/s/<username> preview tells about a channel.
type ChannelSnapshot struct {
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Subscribers *int      `json:"subscribers,omitempty"`
	Verified    bool      `json:"verified"`
	AvgViews    *int      `json:"avg_views,omitempty"`
	LangGuess   string    `json:"lang_guess"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type Parser struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewParser(timeoutMS, maxRetries int, log *zap.Logger) *Parser {
	return &Parser{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

// WithBaseURL points the parser at another host. Used in tests.
func (p *Parser) WithBaseURL(u string) *Parser {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

// Fetch downloads the channel preview with retries and parses it.
func (p *Parser) Fetch(ctx context.Context, username string) (*ChannelSnapshot, error) {
	url := fmt.Sprintf("%s/s/%s", p.baseURL, username)

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}

		doc, err := p.get(ctx, url)
		if errors.Is(err, ErrChannelNotFound) {
			return nil, err
		}
		if err != nil {
			lastErr = err
			p.log.Debug("t.me fetch failed", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		snap := parseChannelPage(doc, username)
		if snap == nil {
			return nil, ErrChannelNotFound
		}
		snap.FetchedAt = time.Now()
		return snap, nil
	}
	return nil, lastErr
}

func (p *Parser) get(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChannelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// parseChannelPage returns nil when the page has no channel header,
// which is what t.me serves for private or missing channels.
func parseChannelPage(doc *goquery.Document, username string) *ChannelSnapshot {
	header := doc.Find(".tgme_channel_info_header")
	if header.Length() == 0 {
		return nil
	}

	snap := &ChannelSnapshot{
		Username: username,
		Title:    strings.TrimSpace(header.Find(".tgme_channel_info_header_title").Text()),
	}

	// Subscribers
	doc.Find(".tgme_channel_info_counter").Each(func(_ int, s *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(s.Find(".counter_type").Text()))
		if strings.Contains(label, "subscriber") || strings.Contains(label, "member") {
			if n := parseCount(s.Find(".counter_value").Text()); n > 0 {
				snap.Subscribers = &n
			}
		}
	})

	// Fallback: tgme_channel_info_header_counter
	if snap.Subscribers == nil {
		doc.Find(".tgme_channel_info_header_counter").Each(func(_ int, s *goquery.Selection) {
			text := strings.ToLower(s.Text())
			if strings.Contains(text, "subscriber") || strings.Contains(text, "member") {
				if n := parseCount(text); n > 0 {
					snap.Subscribers = &n
				}
			}
		})
	}

	snap.Verified = header.Find(".tgme_channel_info_header_title .verified-icon").Length() > 0

	// Средние просмотры по последним постам
	var allText strings.Builder
	total, count := 0, 0
	doc.Find(".tgme_widget_message_wrap").Each(func(i int, s *goquery.Selection) {
		if i >= avgViewsWindow {
			return
		}
		if n := parseCount(s.Find(".tgme_widget_message_views").First().Text()); n > 0 {
			total += n
			count++
		}
		allText.WriteString(s.Find(".tgme_widget_message_text").Text())
		allText.WriteString(" ")
	})
	if count > 0 {
		avg := total / count
		snap.AvgViews = &avg
	}
	snap.LangGuess = guessLanguage(allText.String())

	return snap
}

var viewCountRE = regexp.MustCompile(`[\d,.]+[KkMm]?`)

func parseCount(text string) int {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")

	match := viewCountRE.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1
	if strings.HasSuffix(match, "K") || strings.HasSuffix(match, "k") {
		multiplier = 1000
		match = match[:len(match)-1]
	} else if strings.HasSuffix(match, "M") || strings.HasSuffix(match, "m") {
		multiplier = 1000000
		match = match[:len(match)-1]
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return int(f * float64(multiplier))
}

func guessLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	cyrillicCount := 0
	latinCount := 0
	arabicCount := 0
	cjkCount := 0
	totalLetters := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		totalLetters++
		if unicode.Is(unicode.Cyrillic, r) {
			cyrillicCount++
		} else if unicode.Is(unicode.Latin, r) {
			latinCount++
		} else if unicode.Is(unicode.Arabic, r) {
			arabicCount++
		} else if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			cjkCount++
		}
	}

	if totalLetters == 0 {
		return "unknown"
	}

	cyrPct := float64(cyrillicCount) / float64(totalLetters)
	latPct := float64(latinCount) / float64(totalLetters)
	arPct := float64(arabicCount) / float64(totalLetters)
	cjkPct := float64(cjkCount) / float64(totalLetters)

	switch {
	case cyrPct >= 0.3:
		return "ru" // could be uk/bg etc, but MVP
	case arPct >= 0.3:
		return "ar"
	case cjkPct >= 0.3:
		return "zh"
	case latPct >= 0.3:
		return "en" // simplified, could be any latin language
	default:
		return "other"
	}
}
