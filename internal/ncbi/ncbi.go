package ncbi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"seqanalyzer/internal/fasta"
	"seqanalyzer/internal/sequence"
)

// DefaultBaseURL is the E-utilities efetch endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

const maxAttempts = 3

// ErrNotFound is returned when efetch answers without a record for an accession.
var ErrNotFound = errors.New("ncbi: accession not found")

// Client fetches nucleotide FASTA records from NCBI.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	// Limiter paces requests; NCBI allows 3 req/s without an API key.
	Limiter *rate.Limiter
	Cache   *Cache
	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client with a 20s HTTP timeout and qps pacing. A
// qps <= 0 disables pacing. cache may be nil.
func NewClient(apiKey string, qps float64, cache *Cache) *Client {
	lim := rate.NewLimiter(rate.Inf, 1)
	if qps > 0 {
		lim = rate.NewLimiter(rate.Limit(qps), 1)
	}
	return &Client{
		HTTP:    &http.Client{Timeout: 20 * time.Second},
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Limiter: lim,
		Cache:   cache,
	}
}

// FetchRecords returns one record per accession, in the order requested.
// Cached entries are used when fresh; the rest are fetched in a single
// efetch call.
func (c *Client) FetchRecords(ctx context.Context, accessions []string) ([]sequence.Record, error) {
	out := make([]sequence.Record, len(accessions))
	var missing []string
	missingIdx := map[string][]int{}
	for i, acc := range accessions {
		acc = strings.TrimSpace(acc)
		if acc == "" {
			return nil, fmt.Errorf("ncbi: empty accession at position %d", i)
		}
		if rec, ok := c.cached(acc); ok {
			out[i] = rec
			continue
		}
		if _, seen := missingIdx[acc]; !seen {
			missing = append(missing, acc)
		}
		missingIdx[acc] = append(missingIdx[acc], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	body, err := c.efetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	recs, err := fasta.ParseFasta(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ncbi: parse efetch response: %w", err)
	}

	var notFound []string
	for _, acc := range missing {
		rec, ok := matchAccession(recs, acc)
		if !ok {
			notFound = append(notFound, acc)
			continue
		}
		for _, i := range missingIdx[acc] {
			out[i] = rec
		}
		if c.Cache != nil {
			c.Cache.Set(acc, formatRecord(rec))
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Flush(); err != nil {
			return nil, err
		}
	}
	if len(notFound) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(notFound, ","))
	}
	return out, nil
}

func (c *Client) cached(acc string) (sequence.Record, bool) {
	if c.Cache == nil {
		return sequence.Record{}, false
	}
	text, ok := c.Cache.Get(acc)
	if !ok {
		return sequence.Record{}, false
	}
	recs, err := fasta.ParseFasta(strings.NewReader(text))
	if err != nil || len(recs) != 1 {
		return sequence.Record{}, false
	}
	return recs[0], true
}

// matchAccession accepts the bare accession or any versioned form of it
// (NM_000797 matches NM_000797.4).
func matchAccession(recs []sequence.Record, acc string) (sequence.Record, bool) {
	for _, r := range recs {
		id := r.ID
		// efetch may return ids like "ref|NM_000797.4|"
		if strings.Contains(id, "|") {
			for _, part := range strings.Split(id, "|") {
				if part == acc || strings.HasPrefix(part, acc+".") {
					return r, true
				}
			}
			continue
		}
		if id == acc || strings.HasPrefix(id, acc+".") {
			return r, true
		}
	}
	return sequence.Record{}, false
}

func formatRecord(r sequence.Record) string {
	var sb strings.Builder
	_ = fasta.Write(&sb, fasta.DefaultLineWidth, r)
	return sb.String()
}

func (c *Client) efetch(ctx context.Context, accessions []string) (string, error) {
	q := url.Values{}
	q.Set("db", "nuccore")
	q.Set("id", strings.Join(accessions, ","))
	q.Set("rettype", "fasta")
	q.Set("retmode", "text")
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	reqURL := base + "?" + q.Encode()

	sleep := c.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", "seqanalyzer/1.0")
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if err := sleep(ctx, time.Duration(attempt*300)*time.Millisecond); err != nil {
				return "", err
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return "", readErr
			}
			return string(data), nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("ncbi efetch returned %d", resp.StatusCode)
			wait := retryAfter(resp.Header.Get("Retry-After"))
			if wait == 0 {
				wait = time.Duration(attempt*500) * time.Millisecond
			}
			if err := sleep(ctx, wait); err != nil {
				return "", err
			}
		default:
			return "", fmt.Errorf("ncbi efetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
	}
	return "", lastErr
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
