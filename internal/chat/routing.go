package chat

import (
	"github.com/lalith-99/supportchat/internal/models"
)

// RecipientFor computes the recipient of an outbound message from the role
// and the selected scope.
//
//   - user: always the admin desk, whatever the scope says.
//   - admin: the selected counterpart; no selection means no recipient.
//   - guest: no recipient.
//
// ok=false is a send precondition failure: the caller must not touch the
// live channel and should surface "nothing selected" as a disabled send
// affordance, not an error.
func RecipientFor(session models.Session, scope string) (recipient string, ok bool) {
	switch session.Role {
	case models.RoleUser:
		return models.AdminDesk, true
	case models.RoleAdmin:
		if scope == "" {
			return "", false
		}
		return scope, true
	default:
		return "", false
	}
}
