// Package authz enforces the visibility and ownership rules of analyses.
//
// The rules are pure functions over (requesting user, owner, mode) so both
// the question and cause services share them without a circular dependency.
//
// View and modify rights are deliberately asymmetric: viewing honors the
// visibility mode (PRIVATE is owner-only, SUPERVISED adds staff), while
// modification is owner-only regardless of mode. The asymmetry mirrors the
// product contract and is flagged in DESIGN.md rather than unified here.
package authz

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/naze-ai/naze/internal/model"
)

// ErrForbidden is returned when a user lacks rights to a question or cause.
var ErrForbidden = errors.New("authz: forbidden")

// CanView returns nil if user may read a record owned by ownerID with the
// given visibility mode. The owner can always view; PRIVATE blocks everyone
// else; SUPERVISED admits staff; any other mode is openly readable.
func CanView(user model.User, ownerID uuid.UUID, mode model.Mode) error {
	if user.ID == ownerID {
		return nil
	}
	switch mode {
	case model.ModePrivate:
		return fmt.Errorf("%w: user is not permitted to view this analysis", ErrForbidden)
	case model.ModeSupervised:
		if user.IsStaff {
			return nil
		}
		return fmt.Errorf("%w: user is not permitted to view this analysis", ErrForbidden)
	default:
		return nil
	}
}

// CanModify returns nil if user may mutate a record owned by ownerID.
// Only the owner may modify; the visibility mode is not consulted.
func CanModify(user model.User, ownerID uuid.UUID) error {
	if user.ID != ownerID {
		return fmt.Errorf("%w: user is not permitted to update this analysis", ErrForbidden)
	}
	return nil
}
