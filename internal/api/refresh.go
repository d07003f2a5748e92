package api

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/meditrade/storefront/internal/credstore"
	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
)

// Refresher exchanges a stored refresh token for a new token pair.
// Concurrent 401s share one in-flight refresh through a singleflight group,
// so the backend never sees the same refresh token raced against itself.
type Refresher struct {
	client       *Client
	creds        credstore.Store
	tokenURL     string
	clientID     string
	clientSecret string
	log          *zap.Logger

	sf singleflight.Group
}

// NewRefresher wires the refresh path. client must be the unauthenticated
// surface: a refresh request never carries a bearer token.
func NewRefresher(client *Client, creds credstore.Store, tokenURL, clientID, clientSecret string, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		client:       client,
		creds:        creds,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          log,
	}
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh returns a fresh access token. Any failure wipes the credential
// store: refresh failure means "re-authenticate", never "retry later".
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	v, err, _ := r.sf.Do("refresh", func() (any, error) {
		return r.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Refresher) refresh(ctx context.Context) (string, error) {
	stored, err := r.creds.Tokens()
	if err != nil || stored.RefreshToken == "" {
		// No refresh token: fail locally without a network call.
		_ = r.creds.Clear()
		return "", errs.ErrNoRefreshToken
	}

	var tr tokenResponse
	err = r.client.Post(ctx, r.tokenURL, refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: stored.RefreshToken,
		ClientID:     r.clientID,
		ClientSecret: r.clientSecret,
	}, &tr)
	if err != nil {
		r.log.Info("token refresh failed", zap.Error(err))
		_ = r.creds.Clear()
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if tr.AccessToken == "" {
		_ = r.creds.Clear()
		return "", errors.New("refresh token: malformed response")
	}

	if err := r.creds.SaveTokens(model.Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}); err != nil {
		_ = r.creds.Clear()
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}
	r.log.Info("access token refreshed")
	return tr.AccessToken, nil
}
