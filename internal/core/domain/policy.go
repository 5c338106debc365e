package domain

// AnyOwner marks a resource that is not owned by a particular user.
const AnyOwner uint64 = 0

// Authorize decides whether who may act on a resource owned by ownerID.
// Admins pass every check. Otherwise required must be RoleUser and, for an
// owned resource, who must be its owner.
func Authorize(who *Identity, ownerID uint64, required Role) error {
	if who == nil || who.UserID == 0 {
		return ErrUnauthenticated
	}
	if who.Role == RoleAdmin {
		return nil
	}
	if required == RoleAdmin {
		return ErrForbidden
	}
	if ownerID != AnyOwner && ownerID != who.UserID {
		return ErrForbidden
	}
	return nil
}
