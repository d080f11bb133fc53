package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noWait makes retries instant and records the requested backoffs.
func noWait(c *Client) *[]time.Duration {
	var waits []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})
	assert.Equal(t, 30*time.Second, c.hc.Timeout)
	assert.Equal(t, 3, c.maxRetries)
	assert.Equal(t, 200*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 5*time.Second, c.maxBackoff)

	tr, ok := c.hc.Transport.(*http.Transport)
	require.True(t, ok, "transport is %T", c.hc.Transport)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)

	assert.Equal(t, 0, NewClient(Config{MaxRetries: -1}).maxRetries)
}

/*
TestGet_Retries walks the retry policy: success needs no retry, 5xx and 429
are retried until success or the budget runs out, and a 404 is final.
*/
func TestGet_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		statuses  []int
		retries   int
		wantHits  int32
		wantErr   bool
		wantCode  int
		wantWaits []time.Duration
	}{
		{"ok_first_try", []int{200}, 3, 1, false, 200, nil},
		{"5xx_then_ok", []int{503, 500, 200}, 3, 3, false, 200,
			[]time.Duration{10 * time.Millisecond, 20 * time.Millisecond}},
		{"429_then_ok", []int{429, 200}, 1, 2, false, 200, []time.Duration{10 * time.Millisecond}},
		{"budget_exhausted", []int{502, 502, 502}, 2, 3, true, 0,
			[]time.Duration{10 * time.Millisecond, 20 * time.Millisecond}},
		{"not_found_is_final", []int{404}, 3, 1, false, 404, nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&hits, 1)
				assert.Equal(t, "studentetl", r.Header.Get("User-Agent"))
				w.WriteHeader(tc.statuses[n-1])
			}))
			defer srv.Close()

			c := NewClient(Config{
				MaxRetries:     tc.retries,
				InitialBackoff: 10 * time.Millisecond,
				MaxBackoff:     time.Second,
				Headers:        http.Header{"User-Agent": {"studentetl"}},
			})
			waits := noWait(c)

			resp, err := c.Get(context.Background(), srv.URL)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "status 502")
			} else {
				require.NoError(t, err)
				defer resp.Body.Close()
				assert.Equal(t, tc.wantCode, resp.StatusCode)
			}
			assert.Equal(t, tc.wantHits, atomic.LoadInt32(&hits))
			assert.Equal(t, tc.wantWaits, *waits)
		})
	}
}

func TestGet_Errors(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	_, err := c.Get(context.Background(), "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{62, time.Second},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, backoff(100*time.Millisecond, tc.retry, time.Second), "retry %d", tc.retry)
	}
}

func TestWaitContext(t *testing.T) {
	t.Parallel()

	assert.NoError(t, waitContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitContext(ctx, time.Hour), context.Canceled)
}

func TestSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/exports/students.csv" {
			_, _ = io.WriteString(w, "dept,score\n")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: -1})

	src := NewSource(c, srv.URL+"/exports/students.csv?token=abc")
	assert.Equal(t, "students.csv", src.Name())
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "dept,score\n", string(b))

	_, err = NewSource(c, srv.URL+"/missing.csv").Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}
