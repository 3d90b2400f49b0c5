package booking

import (
	"github.com/platterhub/service-booking/internal/domain/identity"
)

// viewRule decides whether a principal of one role may see a booking.
type viewRule func(p identity.Principal, b *Booking) bool

// viewRules is the visibility table, keyed by role. Roles absent from the
// table see nothing.
var viewRules = map[identity.Role]viewRule{
	identity.RoleAdmin: func(identity.Principal, *Booking) bool { return true },
	identity.RoleClient: func(p identity.Principal, b *Booking) bool {
		return b.clientID == p.ID
	},
	// Workers see their own jobs and the claimable pool.
	identity.RoleWorker: func(p identity.Principal, b *Booking) bool {
		return b.IsAssignedTo(p.ID) || b.IsClaimable()
	},
}

// actorRules maps a role to the booking relationship it can hold.
var actorRules = map[identity.Role]struct {
	actor   Actor
	applies func(p identity.Principal, b *Booking) bool
}{
	identity.RoleAdmin: {
		actor:   ActorAdmin,
		applies: func(identity.Principal, *Booking) bool { return true },
	},
	identity.RoleClient: {
		actor:   ActorOwner,
		applies: func(p identity.Principal, b *Booking) bool { return b.clientID == p.ID },
	},
	identity.RoleWorker: {
		actor:   ActorAssignedWorker,
		applies: func(p identity.Principal, b *Booking) bool { return b.IsAssignedTo(p.ID) },
	},
}

// ActorFor returns the relationship p holds to b, if any.
func ActorFor(p identity.Principal, b *Booking) (Actor, bool) {
	rule, ok := actorRules[p.Role]
	if !ok || !rule.applies(p, b) {
		return "", false
	}
	return rule.actor, true
}

// CanView reports whether p may read b.
func CanView(p identity.Principal, b *Booking) bool {
	rule, ok := viewRules[p.Role]
	if !ok {
		return false
	}
	return rule(p, b)
}

// CanMutateStatus reports whether p may ask for b to move to requested.
//
// A principal needs a relationship to the booking (owner, assigned worker or
// admin). When the transition is part of the lifecycle table the relationship
// must also be one of the permitted actors for the current status. Transitions
// missing from the table pass here and are rejected as illegal by the
// transition engine.
func CanMutateStatus(p identity.Principal, b *Booking, requested BookingStatus) bool {
	actor, ok := ActorFor(p, b)
	if !ok {
		return false
	}
	if !b.status.CanTransitionTo(requested) {
		return true
	}
	return b.status.PermitsActor(actor)
}
