package ncbi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func respond(status int, body string, h http.Header) *http.Response {
	if h == nil {
		h = make(http.Header)
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: h}
}

func testClient(t *testing.T, rt roundTripperFunc) *Client {
	t.Helper()
	c := NewClient("", 0, NewCache(filepath.Join(t.TempDir(), "ncbi_cache.json"), time.Hour))
	c.HTTP = &http.Client{Transport: rt}
	c.BaseURL = "https://eutils.test/efetch.fcgi"
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

const twoRecords = `>NM_000797.4 Homo sapiens dopamine receptor D4 (DRD4), mRNA
ATGGGGAACC
GCAGCACC
>ACC2.1 second
GGCC
`

func TestFetchRecords_BatchAndOrder(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		gotQuery = r.URL.RawQuery
		return respond(200, twoRecords, nil), nil
	})
	c.APIKey = "secret"

	recs, err := c.FetchRecords(context.Background(), []string{"ACC2", "NM_000797"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "ACC2.1" || recs[0].Residues != "GGCC" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].ID != "NM_000797.4" || recs[1].Residues != "ATGGGGAACCGCAGCACC" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
	for _, want := range []string{"rettype=fasta", "db=nuccore", "api_key=secret", "id=ACC2%2CNM_000797"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetchRecords_UsesCache(t *testing.T) {
	calls := 0
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(200, twoRecords, nil), nil
	})
	if _, err := c.FetchRecords(context.Background(), []string{"NM_000797"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// second call should hit cache and not invoke HTTP transport
	c.HTTP = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("HTTP should not be called on cached fetch")
		return nil, nil
	})}
	recs, err := c.FetchRecords(context.Background(), []string{"NM_000797", "NM_000797"})
	if err != nil {
		t.Fatalf("unexpected error on cached fetch: %v", err)
	}
	if len(recs) != 2 || recs[1].Residues != "ATGGGGAACCGCAGCACC" {
		t.Fatalf("unexpected cached records: %+v", recs)
	}
	if calls != 1 {
		t.Fatalf("expected 1 HTTP call, got %d", calls)
	}

	// a fresh cache over the same file sees the flushed entry
	reopened := NewCache(c.Cache.Path(), time.Hour)
	if _, ok := reopened.Get("NM_000797"); !ok {
		t.Fatalf("expected entry to be persisted to %s", c.Cache.Path())
	}
}

func TestFetchRecords_RetryAndRetryAfter(t *testing.T) {
	calls := 0
	var waits []time.Duration
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			h := make(http.Header)
			h.Set("Retry-After", "2")
			return respond(429, "", h), nil
		}
		return respond(200, twoRecords, nil), nil
	})
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	if _, err := c.FetchRecords(context.Background(), []string{"ACC2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(waits) != 1 || waits[0] != 2*time.Second {
		t.Fatalf("expected a single 2s Retry-After wait, got %v", waits)
	}
}

func TestFetchRecords_GivesUpAfterRetries(t *testing.T) {
	calls := 0
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(503, "busy", nil), nil
	})
	if _, err := c.FetchRecords(context.Background(), []string{"ACC2"}); err == nil {
		t.Fatal("expected error after retries")
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestFetchRecords_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(400, "bad id", nil), nil
	})
	_, err := c.FetchRecords(context.Background(), []string{"???"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestFetchRecords_NotFound(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		return respond(200, twoRecords, nil), nil
	})
	_, err := c.FetchRecords(context.Background(), []string{"ACC2", "MISSING1"})
	if !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "MISSING1") {
		t.Fatalf("expected ErrNotFound naming MISSING1, got %v", err)
	}
}

func TestFetchRecords_EmptyAccession(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("HTTP should not be called")
		return nil, nil
	})
	if _, err := c.FetchRecords(context.Background(), []string{" "}); err == nil {
		t.Fatal("expected error for empty accession")
	}
}

// Test cache TTL logic: expired entries should not be returned.
func TestCacheTTL_Expiry(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "ncbi_cache.json"), time.Second)
	c.Set("OLDACC", ">OLDACC\nACGT\n")
	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	if v, ok := c.Get("OLDACC"); ok || v != "" {
		t.Fatalf("expected OLDACC to be expired and not returned, got %v (ok=%v)", v, ok)
	}
}

func TestRetryAfter(t *testing.T) {
	if retryAfter("3") != 3*time.Second || retryAfter("") != 0 || retryAfter("soon") != 0 {
		t.Fatal("unexpected Retry-After parsing")
	}
}
