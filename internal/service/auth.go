package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Auth covers authentication and account endpoints. Login and password reset
// go through the unauthenticated surface; everything else is authenticated.
type Auth struct {
	pub          Doer // no Authorization header
	auth         Doer
	ep           api.Endpoints
	clientID     string
	clientSecret string
}

// NewAuth constructs the auth service with both call surfaces.
func NewAuth(pub, auth Doer, ep api.Endpoints, clientID, clientSecret string) *Auth {
	return &Auth{pub: pub, auth: auth, ep: ep, clientID: clientID, clientSecret: clientSecret}
}

type passwordGrant struct {
	GrantType    string `json:"grant_type"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// PasswordLogin exchanges username/password for a token pair.
func (a *Auth) PasswordLogin(ctx context.Context, username, password string) (model.Tokens, error) {
	var t model.Tokens
	err := a.pub.Post(ctx, a.ep.Token(), passwordGrant{
		GrantType:    "password",
		Username:     username,
		Password:     password,
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
	}, &t)
	return t, err
}

// CurrentUser fetches the logged-in account; also the cold-start token check.
func (a *Auth) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := a.auth.Get(ctx, a.ep.CurrentUser(), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout invalidates the current session server-side.
func (a *Auth) Logout(ctx context.Context) error {
	return a.auth.Post(ctx, a.ep.Logout(), struct{}{}, nil)
}

// RegisterInput is a new-account request.
type RegisterInput struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Address  string     `json:"address,omitempty"`
}

// Register creates an account; public endpoint.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	var u model.User
	if err := a.pub.Post(ctx, a.ep.Users(), in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword rotates the password for the logged-in account.
func (a *Auth) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	in := struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}{oldPassword, newPassword}
	return a.auth.Post(ctx, a.ep.ChangePassword(), in, nil)
}

// RequestPasswordReset starts the email reset flow; public endpoint.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	in := struct {
		Email string `json:"email"`
	}{email}
	return a.pub.Post(ctx, a.ep.PasswordResetRequest(), in, nil)
}

// ConfirmPasswordReset completes the reset with the emailed token.
func (a *Auth) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	in := struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}{token, newPassword}
	return a.pub.Post(ctx, a.ep.PasswordResetConfirm(), in, nil)
}
