package notifications

import "strings"

// Notification keys used by the subscription sweep.
const (
	KeyExpiringSoon     = "subscription.expiring_soon"
	KeyExpiringTomorrow = "subscription.expiring_tomorrow"
	KeyExpired          = "subscription.expired"
	KeyDowngradeSoon    = "subscription.downgrade_effective_soon"
)

// catalog maps notification keys to templates per language. Locale
// resolution proper lives outside this subsystem; this is the boundary stub
// the delivery side renders from. Placeholders use {name} syntax.
var catalog = map[string]map[string]string{
	KeyExpiringSoon: {
		"en": "Your subscription ends on {date}. Renew now to keep full access.",
	},
	KeyExpiringTomorrow: {
		"en": "Your subscription ends tomorrow ({date}). This is your last reminder.",
	},
	KeyExpired: {
		"en": "Your subscription has expired. Renew to restore access.",
	},
	KeyDowngradeSoon: {
		"en": "Your plan changes to {planName} on {date}.",
	},
}

// Render resolves a key for a language and substitutes placeholders. Unknown
// keys render as the key itself so a missing catalog entry never breaks
// delivery.
func Render(key, language string, vars map[string]string) string {
	templates, ok := catalog[key]
	if !ok {
		return key
	}
	tpl, ok := templates[language]
	if !ok {
		tpl = templates["en"]
	}
	if tpl == "" {
		return key
	}
	for name, value := range vars {
		tpl = strings.ReplaceAll(tpl, "{"+name+"}", value)
	}
	return tpl
}
