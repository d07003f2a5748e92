package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Users covers the admin account-management endpoints plus profile updates.
type Users struct {
	api Doer
	ep  api.Endpoints
}

func NewUsers(api Doer, ep api.Endpoints) *Users {
	return &Users{api: api, ep: ep}
}

// List returns all accounts (admin).
func (u *Users) List(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, u.api, u.ep.Users())
}

// ProfileInput is a partial profile update; empty fields are omitted.
type ProfileInput struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Update patches an account's profile fields.
func (u *Users) Update(ctx context.Context, id int64, in ProfileInput) (*model.User, error) {
	var out model.User
	if err := u.api.Put(ctx, u.ep.User(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeActiveState enables or disables an account (admin).
func (u *Users) ChangeActiveState(ctx context.Context, id int64, active bool) error {
	in := struct {
		UserID   int64 `json:"user_id"`
		IsActive bool  `json:"is_active"`
	}{id, active}
	return u.api.Post(ctx, u.ep.UserChangeActiveState(), in, nil)
}

// Deactivate disables the calling account.
func (u *Users) Deactivate(ctx context.Context) error {
	return u.api.Post(ctx, u.ep.UserDeactivate(), struct{}{}, nil)
}
