package subscription

// Static lookup tables. Kept as immutable package data so the precedence
// rules stay in one auditable place instead of being re-derived at call
// sites.

var severityByTiming = map[Timing]Severity{
	TimingDays7:     SeverityInfo,
	TimingDays3:     SeverityNotice,
	TimingDays1:     SeverityWarning,
	TimingHours6:    SeverityUrgent,
	TimingExpired:   SeverityCritical,
	TimingPostGrace: SeverityBlocker,
}

var primaryActionByReason = map[Reason]Action{
	ReasonTrialExpired:     ActionSubscribe,
	ReasonTrialExpiring:    ActionSubscribe,
	ReasonManualExpired:    ActionRenew,
	ReasonManualRenewalDue: ActionRenew,
	ReasonCancelledExpired: ActionReactivate,
	ReasonCancelledEnding:  ActionReactivate,
}

// SeverityForTiming maps a timing to its UI severity.
func SeverityForTiming(timing Timing) Severity {
	if s, ok := severityByTiming[timing]; ok {
		return s
	}
	return SeverityInfo
}

// PrimaryActionForReason maps a blocking reason to its call-to-action.
func PrimaryActionForReason(reason Reason) Action {
	if a, ok := primaryActionByReason[reason]; ok {
		return a
	}
	return ActionSubscribe
}

const translationPrefix = "subscription.blocker"

// PreExpiryTranslationKeys builds the i18n keys for pre-expiry warnings.
// Text resolution happens in the client; only the keys are composed here.
func PreExpiryTranslationKeys(reason Reason, timing Timing) (titleKey, messageKey string) {
	titleKey = translationPrefix + "." + string(reason) + "." + string(timing) + ".title"
	messageKey = translationPrefix + "." + string(reason) + "." + string(timing) + ".message"
	return titleKey, messageKey
}

// TranslationKeys builds the i18n keys for expired-state modals. Reasons
// outside the known set fall back to the default keys.
func TranslationKeys(reason Reason, modalType ModalType) (titleKey, messageKey string) {
	name := "default"
	switch reason {
	case ReasonTrialExpired, ReasonManualExpired, ReasonCancelledExpired:
		name = string(reason)
	}
	titleKey = translationPrefix + "." + name + "." + string(modalType) + "_title"
	messageKey = translationPrefix + "." + name + "." + string(modalType) + "_message"
	return titleKey, messageKey
}
