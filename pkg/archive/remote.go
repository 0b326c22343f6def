package archive

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/config"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/pkg/httpclient"
	"golang.org/x/time/rate"
)

// RemoteOptions configures the archive HTTP strategy.
type RemoteOptions struct {
	BaseURL       string
	APIKey        string
	ProxyURL      string
	Delay         time.Duration
	RatePerMinute float64
}

type remoteSource struct {
	opts    RemoteOptions
	client  httpclient.Client
	limiter *rate.Limiter
	log     logger.Logger
}

// NewRemoteSource builds the HTTP archive strategy. A nil client gets the default resty client.
func NewRemoteSource(opts RemoteOptions, client httpclient.Client, log logger.Logger) Source {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	opts.ProxyURL = strings.TrimRight(strings.TrimSpace(opts.ProxyURL), "/")
	opts.APIKey = strings.TrimSpace(opts.APIKey)

	var limiter *rate.Limiter
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerMinute/60), 1)
	}

	return &remoteSource{
		opts:    opts,
		client:  client,
		limiter: limiter,
		log:     logger.Ensure(log),
	}
}

func (r *remoteSource) Name() string { return StrategyRemote }

// FetchMonth requests one archive month and returns its normalized documents.
func (r *remoteSource) FetchMonth(ctx context.Context, year, month int) ([]domain.Article, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	if !config.ValidAPIKey(r.opts.APIKey) {
		return nil, &ConfigurationError{Reason: "api key is missing or a placeholder"}
	}

	if err := r.throttle(ctx); err != nil {
		return nil, &TransportError{Kind: KindGeneric, Err: err}
	}

	endpoint := r.endpoint(year, month)
	r.log.DebugObj("fetching archive month", "archive_request", map[string]any{
		"year":  year,
		"month": month,
		"proxy": r.opts.ProxyURL != "",
	})

	resp, err := r.client.Get(ctx, r.requestURL(endpoint), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, &TransportError{Kind: KindGeneric, Err: err}
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &TransportError{
			StatusCode: code,
			Kind:       classifyStatus(code),
			Body:       responseSnippet(body),
		}
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	docs := *env.Response.Docs
	articles, skipped := decodeDocs(docs)
	if skipped > 0 {
		r.log.DebugObj("archive docs skipped", "archive_decode", map[string]any{
			"year":    year,
			"month":   month,
			"skipped": skipped,
			"kept":    len(articles),
		})
	}

	r.log.InfoObj("archive month fetched", "archive_result", map[string]any{
		"year":     year,
		"month":    month,
		"docs":     len(docs),
		"hits":     env.Response.Meta.Hits,
		"strategy": StrategyRemote,
	})
	return articles, nil
}

// endpoint builds the archive URL; the key is escaped and never logged.
func (r *remoteSource) endpoint(year, month int) string {
	return fmt.Sprintf("%s/archive/v1/%d/%02d.json?api-key=%s",
		r.opts.BaseURL, year, month, url.QueryEscape(r.opts.APIKey))
}

func (r *remoteSource) requestURL(endpoint string) string {
	if r.opts.ProxyURL == "" {
		return endpoint
	}
	return r.opts.ProxyURL + "/" + endpoint
}

// throttle applies the configured artificial delay and the client-side rate limit.
func (r *remoteSource) throttle(ctx context.Context) error {
	if r.opts.Delay > 0 {
		timer := time.NewTimer(r.opts.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
