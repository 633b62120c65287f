package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapMirrorsCounters(t *testing.T) {
	before := Snap()
	IncRx()
	IncRx()
	IncTx()
	IncPollWakeup()
	IncPollTimeout()
	IncErrorFrame()
	IncMalformed()
	IncError(ErrSocketRead)
	after := Snap()

	assert.Equal(t, before.Rx+2, after.Rx)
	assert.Equal(t, before.Tx+1, after.Tx)
	assert.Equal(t, before.PollWakeups+1, after.PollWakeups)
	assert.Equal(t, before.PollTimeouts+1, after.PollTimeouts)
	assert.Equal(t, before.ErrorFrames+1, after.ErrorFrames)
	assert.Equal(t, before.Malformed+1, after.Malformed)
	assert.Equal(t, before.Errors+1, after.Errors)
}

func TestReadyEndpoint(t *testing.T) {
	t.Cleanup(func() { SetReadinessFunc(nil) })
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	get := func() (int, string) {
		resp, err := http.Get(srv.URL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := get()
	assert.Equal(t, http.StatusOK, code, "unset readiness counts as ready")
	assert.Equal(t, "ready\n", body)

	SetReadinessFunc(func() bool { return false })
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready\n", body)
}

func TestMetricsEndpointExportsErrorLabels(t *testing.T) {
	InitBuildInfo("v0.0.0-test", "abc", "today")
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(b)
	for _, lbl := range []string{ErrSocketRead, ErrSocketWrite, ErrPoll, ErrTxOverflow, ErrOption, ErrCapture} {
		assert.True(t, strings.Contains(out, `errors_total{where="`+lbl+`"}`), "missing label %s", lbl)
	}
	assert.Contains(t, out, `build_info{commit="abc",date="today",version="v0.0.0-test"} 1`)
}
