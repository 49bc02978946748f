package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/artify/api/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// scriptedCaller replays attempts in order and records how many were made.
type scriptedCaller struct {
	mu       sync.Mutex
	attempts []Attempt
	calls    int
}

func (s *scriptedCaller) Call(_ context.Context, _ Request) Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	// the last attempt repeats once the script runs out
	i := min(s.calls, len(s.attempts)-1)
	s.calls++
	return s.attempts[i]
}

func (s *scriptedCaller) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestController(caller Caller, sleeper *recordingSleeper) *Controller {
	return NewController(caller, DefaultPolicy(),
		WithSleeper(sleeper.Sleep),
		WithLogger(logging.Nop()),
	)
}

var (
	loading = Attempt{StatusCode: 503, ContentType: "application/json", Body: []byte(`{"error":"Model is currently loading"}`)}
	png     = Attempt{StatusCode: 200, ContentType: "image/png", Body: []byte("png-bytes")}
	imgReq  = Request{Capability: "image", URL: "http://upstream", Expect: ExpectImage}
)

func TestDoImmediateSuccess(t *testing.T) {
	caller := &scriptedCaller{attempts: []Attempt{png}}
	sleeper := &recordingSleeper{}

	out, err := newTestController(caller, sleeper).Do(context.Background(), imgReq)
	require.NoError(t, err)
	assert.Equal(t, KindBinarySuccess, out.Kind)
	assert.Equal(t, []byte("png-bytes"), out.Body)
	assert.Equal(t, 1, caller.Calls())
	assert.Empty(t, sleeper.delays)
}

func TestDoSucceedsAfterColdStart(t *testing.T) {
	caller := &scriptedCaller{attempts: []Attempt{loading, loading, loading, png}}
	sleeper := &recordingSleeper{}

	out, err := newTestController(caller, sleeper).Do(context.Background(), imgReq)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, 4, caller.Calls())

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if diff := cmp.Diff(want, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	caller := &scriptedCaller{attempts: []Attempt{loading}}
	sleeper := &recordingSleeper{}

	_, err := newTestController(caller, sleeper).Do(context.Background(), imgReq)
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrRetryExhausted, ue.Kind)
	assert.Equal(t, 8, ue.Attempts)
	assert.Equal(t, 503, ue.StatusCode)
	assert.Equal(t, 8, caller.Calls())

	if diff := cmp.Diff(DefaultPolicy().Delays(), sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestDoStopsOnFatal(t *testing.T) {
	tests := []struct {
		name   string
		script []Attempt
		kind   ErrorKind
		calls  int
	}{
		{"rate limit first", []Attempt{{StatusCode: 429}}, ErrRateLimited, 1},
		{"quota after loading", []Attempt{loading, {StatusCode: 402}}, ErrQuotaExhausted, 2},
		{"bad request", []Attempt{{StatusCode: 400, Body: []byte(`{"error":"bad"}`)}}, ErrRejected, 1},
		{"wrong content type", []Attempt{{StatusCode: 200, ContentType: "text/html"}}, ErrRejected, 1},
		{"transport", []Attempt{{Err: errors.New("dial tcp: refused")}}, ErrTransport, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &scriptedCaller{attempts: tt.script}
			sleeper := &recordingSleeper{}

			_, err := newTestController(caller, sleeper).Do(context.Background(), imgReq)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.calls, caller.Calls())
			assert.Len(t, sleeper.delays, tt.calls-1)
		})
	}
}

func TestOnceDoesNotRetry(t *testing.T) {
	caller := &scriptedCaller{attempts: []Attempt{loading, png}}
	sleeper := &recordingSleeper{}

	_, err := newTestController(caller, sleeper).Once(context.Background(), Request{Capability: "style", Expect: ExpectJSON})
	require.Error(t, err)
	assert.Equal(t, ErrRetryExhausted, KindOf(err))
	assert.Equal(t, 1, caller.Calls())
	assert.Empty(t, sleeper.delays)
}

func TestDoHonoursContextDuringBackoff(t *testing.T) {
	caller := &scriptedCaller{attempts: []Attempt{loading}}
	ctrl := NewController(caller, Policy{MaxAttempts: 8, BaseDelay: time.Hour, MaxDelay: time.Hour},
		WithLogger(logging.Nop()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Do(ctx, imgReq)
		done <- err
	}()

	require.Eventually(t, func() bool { return caller.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not return after cancel")
	}
	assert.Equal(t, 1, caller.Calls())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Empty(t, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, ErrRateLimited))
}
