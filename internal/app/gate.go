package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/domain"
)

// PermissionOracle answers what level a user holds on a resource.
// ok=false means no grant at all (and no ownership).
type PermissionOracle interface {
	GetPermissionLevel(ctx context.Context, userID domain.UserID, resourceID domain.ResourceID, resourceType domain.ResourceType) (domain.Level, bool, error)
}

// ShareStore exposes share existence for a resource.
type ShareStore interface {
	FindSharesByResource(ctx context.Context, resourceID domain.ResourceID, resourceType domain.ResourceType) ([]domain.Share, error)
}

// AccessGate is a pure query layer over the permission oracle and the
// share store. It never mutates state. Collaborator errors deny (fail
// closed) rather than surface.
type AccessGate struct {
	Perms  PermissionOracle
	Shares ShareStore
}

func NewAccessGate(perms PermissionOracle, shares ShareStore) *AccessGate {
	return &AccessGate{Perms: perms, Shares: shares}
}

// CanAccess reports whether the user holds at least the required level
// on the resource. Results are never cached: share revocation must
// take effect on the very next call.
func (g *AccessGate) CanAccess(ctx context.Context, userID domain.UserID, resourceID domain.ResourceID, resourceType domain.ResourceType, need domain.Level) bool {
	level, ok, err := g.Perms.GetPermissionLevel(ctx, userID, resourceID, resourceType)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gate").Str("user", string(userID)).Str("resource", string(resourceID)).Msg("permission lookup failed, denying")
		return false
	}
	return ok && level.AtLeast(need)
}

// HasAnyShare reports whether the resource is shared with anyone at
// all. A resource with zero shares gets no room: there is no one to
// collaborate with, even for the owner.
func (g *AccessGate) HasAnyShare(ctx context.Context, resourceID domain.ResourceID, resourceType domain.ResourceType) bool {
	shares, err := g.Shares.FindSharesByResource(ctx, resourceID, resourceType)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gate").Str("resource", string(resourceID)).Msg("share lookup failed, denying")
		return false
	}
	return len(shares) > 0
}
