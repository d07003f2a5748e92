package api

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/credstore"
	"github.com/meditrade/storefront/internal/errs"
)

// AuthClient is the authenticated surface. It attaches the stored bearer token
// to every request and, on a 401, refreshes once and retries once. A second
// 401 after a successful refresh is surfaced as-is; the retry never recurses.
//
// Mutating verbs carry an Idempotency-Key header so a refresh retry (or a
// rapid caller resubmit pinning the same key) cannot double-apply.
type AuthClient struct {
	base      *Client
	creds     credstore.Store
	refresher *Refresher
	log       *zap.Logger
}

// NewAuth builds the authenticated surface on top of the unauthenticated one.
func NewAuth(base *Client, creds credstore.Store, refresher *Refresher, log *zap.Logger) *AuthClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthClient{base: base, creds: creds, refresher: refresher, log: log}
}

func (a *AuthClient) Get(ctx context.Context, url string, out any, opts ...ReqOption) error {
	return a.call(ctx, http.MethodGet, url, nil, out, opts)
}

func (a *AuthClient) Post(ctx context.Context, url string, in, out any, opts ...ReqOption) error {
	return a.call(ctx, http.MethodPost, url, in, out, opts)
}

func (a *AuthClient) Put(ctx context.Context, url string, in, out any, opts ...ReqOption) error {
	return a.call(ctx, http.MethodPut, url, in, out, opts)
}

func (a *AuthClient) Delete(ctx context.Context, url string, out any, opts ...ReqOption) error {
	return a.call(ctx, http.MethodDelete, url, nil, out, opts)
}

// PostMultipart uploads files through the authenticated surface with the same
// refresh-and-retry behavior as JSON calls.
func (a *AuthClient) PostMultipart(ctx context.Context, url string, fields map[string]string, files map[string]NamedReader, out any, opts ...ReqOption) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	opts = withIdempotency(opts)
	err = a.base.PostMultipart(ctx, url, fields, files, out, append(opts, bearer(token))...)
	if StatusOf(err) != http.StatusUnauthorized {
		return err
	}
	token, rerr := a.refreshForRetry(ctx)
	if rerr != nil {
		return rerr
	}
	return a.base.PostMultipart(ctx, url, fields, files, out, append(opts, bearer(token))...)
}

func (a *AuthClient) call(ctx context.Context, method, url string, in, out any, opts []ReqOption) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	if method != http.MethodGet {
		opts = withIdempotency(opts)
	}

	err = a.dispatch(ctx, method, url, in, out, append(opts, bearer(token)))
	if StatusOf(err) != http.StatusUnauthorized {
		return err
	}

	token, rerr := a.refreshForRetry(ctx)
	if rerr != nil {
		return rerr
	}
	return a.dispatch(ctx, method, url, in, out, append(opts, bearer(token)))
}

func (a *AuthClient) dispatch(ctx context.Context, method, url string, in, out any, opts []ReqOption) error {
	switch method {
	case http.MethodGet:
		return a.base.Get(ctx, url, out, opts...)
	case http.MethodPost:
		return a.base.Post(ctx, url, in, out, opts...)
	case http.MethodPut:
		return a.base.Put(ctx, url, in, out, opts...)
	default:
		return a.base.Delete(ctx, url, out, opts...)
	}
}

// refreshForRetry performs the single allowed refresh. On failure the store is
// already wiped by the refresher; the caller gets the session-expired 401.
func (a *AuthClient) refreshForRetry(ctx context.Context) (string, error) {
	token, err := a.refresher.Refresh(ctx)
	if err != nil {
		a.log.Info("session expired", zap.Error(err))
		return "", sessionExpiredError()
	}
	return token, nil
}

func (a *AuthClient) token() (string, error) {
	t, err := a.creds.Tokens()
	if err != nil || t.AccessToken == "" {
		return "", errs.ErrNotAuthenticated
	}
	return t.AccessToken, nil
}

func bearer(token string) ReqOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// withIdempotency generates a key unless the caller pinned one.
func withIdempotency(opts []ReqOption) []ReqOption {
	var probe reqOpts
	for _, fn := range opts {
		fn(&probe)
	}
	if probe.idempotencyKey != "" {
		return opts
	}
	key, err := uuid.NewV4()
	if err != nil {
		return opts
	}
	return append(opts, WithIdempotencyKey(key.String()))
}
