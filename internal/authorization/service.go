package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service answers "may a user with this role perform this action on this
// object". Roles come from the verified access token; policies live in the
// database through the casbin adapter so they survive restarts and can be
// amended without a deploy.
type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}
