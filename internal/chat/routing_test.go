package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lalith-99/supportchat/internal/models"
)

func TestRecipientForUserAlwaysAdminDesk(t *testing.T) {
	sess := models.Session{Role: models.RoleUser, Identity: "alice"}

	for _, scope := range []string{"", "bob", "admin", "alice"} {
		recipient, ok := RecipientFor(sess, scope)
		assert.True(t, ok, "scope %q", scope)
		assert.Equal(t, models.AdminDesk, recipient, "scope %q", scope)
	}
}

func TestRecipientForAdmin(t *testing.T) {
	sess := models.Session{Role: models.RoleAdmin, Identity: "admin1"}

	recipient, ok := RecipientFor(sess, "bob")
	assert.True(t, ok)
	assert.Equal(t, "bob", recipient)

	_, ok = RecipientFor(sess, "")
	assert.False(t, ok)
}

func TestRecipientForGuest(t *testing.T) {
	_, ok := RecipientFor(models.Session{Role: models.RoleGuest}, "bob")
	assert.False(t, ok)

	_, ok = RecipientFor(models.Session{}, "")
	assert.False(t, ok)
}
