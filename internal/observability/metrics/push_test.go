package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPush struct {
	method string
	path   string
	body   []byte
}

func newPushgateway(t *testing.T) (*httptest.Server, func() []recordedPush) {
	t.Helper()
	var (
		mu     sync.Mutex
		pushes []recordedPush
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		pushes = append(pushes, recordedPush{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedPush {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedPush(nil), pushes...)
	}
}

func TestPushSweepReplacesGroupOnSuccess(t *testing.T) {
	srv, pushes := newPushgateway(t)
	pusher := NewPushgatewayPusher(srv.URL, "gizzle_sweep", map[string]string{"environment": "test", "": "ignored"})

	err := pusher.PushSweep(context.Background(), SweepReport{
		Scanned:      4,
		Transitioned: 3,
		Failed:       1,
		FinishedAt:   time.Unix(1700000000, 0),
		Succeeded:    true,
	})
	require.NoError(t, err)

	got := pushes()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/metrics/job/gizzle_sweep/environment/test", got[0].path)
	assert.Contains(t, string(got[0].body), "gizzle_sweep_last_success_timestamp_seconds")
}

func TestPushSweepKeepsPreviousSuccessOnFailure(t *testing.T) {
	srv, pushes := newPushgateway(t)
	pusher := NewPushgatewayPusher(srv.URL, "", nil)

	require.NoError(t, pusher.PushSweep(context.Background(), SweepReport{Scanned: 2, Failed: 2}))

	got := pushes()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/metrics/job/reconcile_sweep", got[0].path)
	assert.NotContains(t, string(got[0].body), "last_success_timestamp_seconds")
}

func TestPushSweepRequiresEndpoint(t *testing.T) {
	err := NewPushgatewayPusher(" ", "job", nil).PushSweep(context.Background(), SweepReport{})
	assert.ErrorIs(t, err, ErrPushgatewayEndpointRequired)

	var nilPusher *PushgatewayPusher
	assert.NoError(t, nilPusher.PushSweep(context.Background(), SweepReport{}))
}
