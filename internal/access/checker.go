// Package access decides which chat users may run privileged operations.
// Core packages know nothing about admins; workers call Can before invoking
// them.
package access

import (
	"context"
	"errors"
	"fmt"
)

var ErrAccessDenied = errors.New("ACCESS_DENIED")

type Capability string

const (
	SubmitPosting Capability = "submit_posting"
	ManageReviews Capability = "manage_reviews"
	ManageAdmins  Capability = "manage_admins"
)

// AdminLookup reports whether a registered subscriber has the admin flag.
// Unknown subscribers are not admins.
type AdminLookup interface {
	IsAdmin(ctx context.Context, subscriberID int64) (bool, error)
}

type Checker struct {
	superusers map[int64]struct{}
	admins     AdminLookup
}

func NewChecker(superusers []int64, admins AdminLookup) *Checker {
	set := make(map[int64]struct{}, len(superusers))
	for _, id := range superusers {
		set[id] = struct{}{}
	}
	return &Checker{superusers: set, admins: admins}
}

func (c *Checker) IsSuperuser(actorID int64) bool {
	_, ok := c.superusers[actorID]
	return ok
}

// Can reports whether actor holds the capability. Superusers hold every
// capability; ManageAdmins is theirs alone.
func (c *Checker) Can(ctx context.Context, actorID int64, capability Capability) (bool, error) {
	if c.IsSuperuser(actorID) {
		return true, nil
	}
	switch capability {
	case SubmitPosting, ManageReviews:
		ok, err := c.admins.IsAdmin(ctx, actorID)
		if err != nil {
			return false, fmt.Errorf("check admin %d: %w", actorID, err)
		}
		return ok, nil
	}
	return false, nil
}

// Require returns ErrAccessDenied when actor lacks the capability.
func (c *Checker) Require(ctx context.Context, actorID int64, capability Capability) error {
	ok, err := c.Can(ctx, actorID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d lacks %s", ErrAccessDenied, actorID, capability)
	}
	return nil
}
