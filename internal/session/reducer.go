// Package session owns authenticated-session state: a pure reducer over
// login/logout/update actions plus a manager that wires persistence and the
// backend round-trips around it.
package session

import "github.com/meditrade/storefront/internal/model"

// ActionType enumerates the session transitions.
type ActionType string

const (
	ActionLogin      ActionType = "login"
	ActionLogout     ActionType = "logout"
	ActionUpdateUser ActionType = "update_user"
)

// State is the in-memory session. User and Token are both set or both nil:
// Reduce never produces a half-authenticated state.
type State struct {
	User  *model.User
	Token string
}

// Role is the effective role; anonymous when logged out.
func (s State) Role() model.Role {
	if s.User == nil {
		return model.RoleAnonymous
	}
	return s.User.Role
}

// Authenticated reports whether the state holds a complete session.
func (s State) Authenticated() bool { return s.User != nil && s.Token != "" }

// UserPatch is a partial user update; nil fields are left untouched.
type UserPatch struct {
	Email    *string
	FullName *string
	Avatar   *string
	Phone    *string
	Address  *string
}

// Action is one reducer input. Login carries the canonical {user, token} pair;
// UpdateUser carries a patch; Logout carries nothing.
type Action struct {
	Type  ActionType
	User  *model.User
	Token string
	Patch UserPatch
}

// Login builds the canonical login action. The user and token always travel
// together; there is no bare-user variant.
func Login(user *model.User, token string) Action {
	return Action{Type: ActionLogin, User: user, Token: token}
}

func Logout() Action { return Action{Type: ActionLogout} }

func UpdateUser(patch UserPatch) Action {
	return Action{Type: ActionUpdateUser, Patch: patch}
}

// Reduce is the pure transition function. It never mutates its inputs and has
// no side effects; persistence is the caller's job, adjacent to dispatch.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLogin:
		if a.User == nil || a.Token == "" {
			// Incomplete login payload would break the both-or-neither
			// invariant; treat it as a no-op rather than half-apply.
			return s
		}
		u := *a.User
		return State{User: &u, Token: a.Token}

	case ActionLogout:
		return State{}

	case ActionUpdateUser:
		if s.User == nil {
			return s
		}
		u := *s.User
		applyPatch(&u, a.Patch)
		return State{User: &u, Token: s.Token}

	default:
		return s
	}
}

func applyPatch(u *model.User, p UserPatch) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}
