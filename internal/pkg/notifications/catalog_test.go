package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	content := Render(KeyExpiringSoon, "en", map[string]string{"date": "2025-03-13"})
	assert.Equal(t, "Your subscription ends on 2025-03-13. Renew now to keep full access.", content)
}

func TestRender_MultipleVars(t *testing.T) {
	content := Render(KeyDowngradeSoon, "en", map[string]string{
		"planName": "Basic",
		"date":     "2025-03-11",
	})
	assert.Equal(t, "Your plan changes to Basic on 2025-03-11.", content)
}

func TestRender_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	content := Render(KeyExpired, "fr", nil)
	assert.Equal(t, "Your subscription has expired. Renew to restore access.", content)
}

func TestRender_UnknownKeyRendersTheKey(t *testing.T) {
	assert.Equal(t, "subscription.nope", Render("subscription.nope", "en", nil))
}
