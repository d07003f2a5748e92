package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrade/storefront/internal/credstore"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
)

// authRig wires an AuthClient against a scripted backend.
type authRig struct {
	store     *credstore.Memory
	client    *AuthClient
	srv       *httptest.Server
	mu        sync.Mutex
	resources int // hits on the resource path
	refreshes int // hits on the token path
}

// newAuthRig builds a backend where the resource path returns 401 until the
// bearer token equals wantToken, and the token path behaves per refreshOK.
func newAuthRig(t *testing.T, wantToken string, refreshOK bool) *authRig {
	t.Helper()
	rig := &authRig{store: credstore.NewMemory()}

	mux := http.NewServeMux()
	mux.HandleFunc("/o/token/", func(w http.ResponseWriter, r *http.Request) {
		rig.mu.Lock()
		rig.refreshes++
		rig.mu.Unlock()

		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "refresh_token", in["grant_type"])
		if !refreshOK {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_description": "invalid refresh token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token": "` + wantToken + `", "refresh_token": "ref-2"}`))
	})
	mux.HandleFunc("/things/", func(w http.ResponseWriter, r *http.Request) {
		rig.mu.Lock()
		rig.resources++
		rig.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"value": 42}`))
	})

	rig.srv = httptest.NewServer(mux)
	t.Cleanup(rig.srv.Close)

	base := New()
	refresher := NewRefresher(base, rig.store, rig.srv.URL+"/o/token/", "cid", "secret", nil)
	rig.client = NewAuth(base, rig.store, refresher, nil)
	return rig
}

func (r *authRig) counts() (resources, refreshes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resources, r.refreshes
}

func TestAuthClient_AttachesBearer(t *testing.T) {
	rig := newAuthRig(t, "good", true)
	require.NoError(t, rig.store.SaveTokens(model.Tokens{AccessToken: "good", RefreshToken: "ref-1"}))

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, rig.client.Get(context.Background(), rig.srv.URL+"/things/", &out))
	assert.Equal(t, 42, out.Value)

	resources, refreshes := rig.counts()
	assert.Equal(t, 1, resources)
	assert.Zero(t, refreshes)
}

func TestAuthClient_RefreshAndRetryOnce(t *testing.T) {
	rig := newAuthRig(t, "fresh", true)
	require.NoError(t, rig.store.SaveTokens(model.Tokens{AccessToken: "expired", RefreshToken: "ref-1"}))

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, rig.client.Get(context.Background(), rig.srv.URL+"/things/", &out))
	assert.Equal(t, 42, out.Value)

	resources, refreshes := rig.counts()
	assert.Equal(t, 2, resources, "original request + exactly one retry")
	assert.Equal(t, 1, refreshes)

	tok, err := rig.store.Tokens()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "ref-2", tok.RefreshToken)
}

func TestAuthClient_SecondUnauthorizedIsSurfaced(t *testing.T) {
	// Refresh succeeds but the resource rejects even the fresh token: the
	// second 401 must surface as-is, never trigger another refresh.
	var resources, refreshes int
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/o/token/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		refreshes++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"access_token": "fresh", "refresh_token": "ref-2"}`))
	})
	mux.HandleFunc("/things/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resources++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "still no"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := credstore.NewMemory()
	require.NoError(t, store.SaveTokens(model.Tokens{AccessToken: "expired", RefreshToken: "ref-1"}))
	base := New()
	client := NewAuth(base, store, NewRefresher(base, store, srv.URL+"/o/token/", "cid", "secret", nil), nil)

	err := client.Get(context.Background(), srv.URL+"/things/", nil)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.NotErrorIs(t, err, errs.ErrSessionExpired, "a post-refresh 401 is an ordinary 401")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, resources, "never more than one retry")
	assert.Equal(t, 1, refreshes)
}

func TestAuthClient_RefreshFailureWipesStoreAndTagsSessionExpired(t *testing.T) {
	rig := newAuthRig(t, "good", false)
	require.NoError(t, rig.store.SaveTokens(model.Tokens{AccessToken: "expired", RefreshToken: "ref-1"}))
	require.NoError(t, rig.store.SaveUser(&model.User{ID: 1, Username: "u"}))

	err := rig.client.Get(context.Background(), rig.srv.URL+"/things/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	// All three durable keys gone.
	_, terr := rig.store.Tokens()
	assert.ErrorIs(t, terr, errs.ErrNotFound)
	_, uerr := rig.store.User()
	assert.ErrorIs(t, uerr, errs.ErrNotFound)

	resources, _ := rig.counts()
	assert.Equal(t, 1, resources, "no retry after failed refresh")
}

func TestAuthClient_NoRefreshTokenFailsWithoutNetworkCall(t *testing.T) {
	rig := newAuthRig(t, "good", true)
	require.NoError(t, rig.store.SaveTokens(model.Tokens{AccessToken: "expired"}))

	err := rig.client.Get(context.Background(), rig.srv.URL+"/things/", nil)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)

	_, refreshes := rig.counts()
	assert.Zero(t, refreshes, "missing refresh token must not hit the token endpoint")
}

func TestAuthClient_ConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	var resources, refreshes int
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/o/token/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		refreshes++
		mu.Unlock()
		// Hold the refresh open so every concurrent 401 joins this flight.
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access_token": "fresh", "refresh_token": "ref-2"}`))
	})
	mux.HandleFunc("/things/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resources++
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"value": 42}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := credstore.NewMemory()
	require.NoError(t, store.SaveTokens(model.Tokens{AccessToken: "expired", RefreshToken: "ref-1"}))
	base := New()
	client := NewAuth(base, store, NewRefresher(base, store, srv.URL+"/o/token/", "cid", "secret", nil), nil)

	const n = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	errsCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errsCh <- client.Get(context.Background(), srv.URL+"/things/", nil)
		}()
	}
	close(start)
	wg.Wait()
	close(errsCh)
	for err := range errsCh {
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, refreshes, "singleflight must collapse concurrent refreshes")
}

func TestAuthClient_MutatingCallsCarryStableIdempotencyKey(t *testing.T) {
	var keys []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	store := credstore.NewMemory()
	require.NoError(t, store.SaveTokens(model.Tokens{AccessToken: "expired", RefreshToken: "ref-1"}))

	mux.HandleFunc("/o/token/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "fresh", "refresh_token": "ref-2"}`))
	})
	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id": 1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	base := New()
	refresher := NewRefresher(base, store, srv.URL+"/o/token/", "cid", "secret", nil)
	client := NewAuth(base, store, refresher, nil)

	require.NoError(t, client.Post(context.Background(), srv.URL+"/orders/", map[string]int{"cart_id": 5}, nil))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1], "refresh retry must reuse the submission's key")
}

func TestAuthClient_PinnedIdempotencyKeyWins(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Idempotency-Key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := credstore.NewMemory()
	require.NoError(t, store.SaveTokens(model.Tokens{AccessToken: "tok", RefreshToken: "ref"}))
	base := New()
	client := NewAuth(base, store, NewRefresher(base, store, srv.URL, "", "", nil), nil)

	require.NoError(t, client.Post(context.Background(), srv.URL, nil, nil, WithIdempotencyKey("pinned-1")))
	assert.Equal(t, "pinned-1", got)
}

func TestAuthClient_NoTokenFailsFast(t *testing.T) {
	store := credstore.NewMemory()
	base := New()
	client := NewAuth(base, store, NewRefresher(base, store, "http://unused/", "", "", nil), nil)

	err := client.Get(context.Background(), "http://unused/things/", nil)
	assert.True(t, errors.Is(err, errs.ErrNotAuthenticated))
}

func TestEndpoints_Table(t *testing.T) {
	ep := NewEndpoints("https://api.example.com")
	assert.Equal(t, "https://api.example.com/o/token/", ep.Token())
	assert.Equal(t, "https://api.example.com/products/9/approve/", ep.ProductApprove(9))
	assert.Equal(t, "https://api.example.com/carts/3/add-item/", ep.CartAddItem(3))
	assert.Equal(t, "https://api.example.com/payments/success/?session_id=cs_123", ep.PaymentSuccess("cs_123"))
	assert.Equal(t, "https://api.example.com/notifications/12/mark-as-read/", ep.NotificationMarkAsRead(12))

	q := ep.Products()
	assert.True(t, strings.HasSuffix(q, "/products/"))
}
