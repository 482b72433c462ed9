package auth_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
	"github.com/ordermesh/courier/pkg/courier/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource is a TokenSource that counts authentication exchanges.
type countingSource struct {
	name     string
	calls    atomic.Int64
	delay    time.Duration
	err      error
	tokenSeq atomic.Int64
	ttl      time.Duration
}

func (s *countingSource) Provider() string { return s.name }

func (s *countingSource) Authenticate(ctx context.Context) (auth.Credential, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return auth.Credential{}, s.err
	}
	ttl := s.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	n := s.tokenSeq.Add(1)
	return auth.Credential{
		Provider:  s.name,
		Token:     s.name + "-token-" + strconv.FormatInt(n, 10),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func TestCache_Token(t *testing.T) {
	source := &countingSource{name: "shiprocket"}
	cache := auth.NewCache()
	cache.Register(source)

	token, err := cache.Token(context.Background(), "shiprocket")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestCache_ReusesFreshToken(t *testing.T) {
	source := &countingSource{name: "shiprocket"}
	cache := auth.NewCache()
	cache.Register(source)

	ctx := context.Background()
	first, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)
	second, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), source.calls.Load(), "fresh token must not trigger a second exchange")
}

func TestCache_SingleFlight(t *testing.T) {
	source := &countingSource{name: "shiprocket", delay: 50 * time.Millisecond}
	cache := auth.NewCache()
	cache.Register(source)

	const callers = 20
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], errs[i] = cache.Token(context.Background(), "shiprocket")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), source.calls.Load(), "concurrent callers must share one exchange")
	for _, token := range tokens {
		assert.Equal(t, tokens[0], token, "all callers observe the same refreshed token")
	}
}

func TestCache_RefreshesNearExpiry(t *testing.T) {
	now := time.Now()
	clock := &now
	var mu sync.Mutex

	source := &countingSource{name: "shiprocket", ttl: 10 * time.Minute}
	cache := auth.NewCache(auth.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *clock
	}))
	cache.Register(source)

	ctx := context.Background()
	_, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)

	// Move the clock to inside the safety margin.
	mu.Lock()
	*clock = now.Add(10*time.Minute - 30*time.Second)
	mu.Unlock()

	_, err = cache.Token(ctx, "shiprocket")
	require.NoError(t, err)
	assert.Equal(t, int64(2), source.calls.Load(), "token inside the safety margin must refresh")
}

func TestCache_Invalidate(t *testing.T) {
	source := &countingSource{name: "shiprocket"}
	cache := auth.NewCache()
	cache.Register(source)

	ctx := context.Background()
	first, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "shiprocket"))

	second, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, int64(2), source.calls.Load())
}

func TestCache_AuthFailureNotRetried(t *testing.T) {
	source := &countingSource{name: "shiprocket", err: courier.NewAuthError("shiprocket", "bad credentials")}
	cache := auth.NewCache()
	cache.Register(source)

	_, err := cache.Token(context.Background(), "shiprocket")
	assert.True(t, courier.IsAuth(err))
	assert.Equal(t, int64(1), source.calls.Load(), "a failed exchange is surfaced, not retried")
}

func TestCache_UnknownProvider(t *testing.T) {
	cache := auth.NewCache()

	_, err := cache.Token(context.Background(), "nope")
	assert.ErrorIs(t, err, courier.ErrProviderNotFound)
}

func TestCache_ProvidersIndependent(t *testing.T) {
	slow := &countingSource{name: "slow", delay: 100 * time.Millisecond}
	fast := &countingSource{name: "fast"}
	cache := auth.NewCache()
	cache.Register(slow)
	cache.Register(fast)

	done := make(chan struct{})
	go func() {
		cache.Token(context.Background(), "slow")
		close(done)
	}()

	start := time.Now()
	_, err := cache.Token(context.Background(), "fast")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"a slow refresh for one provider must not stall another")
	<-done
}

func TestCache_ObserverSeesExchangeOutcomes(t *testing.T) {
	type outcome struct {
		provider string
		failed   bool
	}
	var mu sync.Mutex
	var seen []outcome
	observe := func(provider string, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, outcome{provider: provider, failed: err != nil})
	}

	good := &countingSource{name: "shiprocket"}
	bad := &countingSource{name: "nimbuspost", err: courier.NewAuthError("nimbuspost", "bad credentials")}
	cache := auth.NewCache(auth.WithObserver(observe))
	cache.Register(good)
	cache.Register(bad)

	ctx := context.Background()
	_, err := cache.Token(ctx, "shiprocket")
	require.NoError(t, err)
	_, err = cache.Token(ctx, "shiprocket")
	require.NoError(t, err)
	_, err = cache.Token(ctx, "nimbuspost")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2, "cache hits do not count as exchanges")
	assert.Equal(t, outcome{provider: "shiprocket", failed: false}, seen[0])
	assert.Equal(t, outcome{provider: "nimbuspost", failed: true}, seen[1])
}

func TestCredential_Fresh(t *testing.T) {
	now := time.Now()
	cred := auth.Credential{Token: "t", ExpiresAt: now.Add(5 * time.Minute)}

	assert.True(t, cred.Fresh(now, time.Minute))
	assert.False(t, cred.Fresh(now.Add(4*time.Minute+30*time.Second), time.Minute))
	assert.False(t, auth.Credential{}.Fresh(now, time.Minute), "empty credential is never fresh")
}
