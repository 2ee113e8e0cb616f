package config

// Availability-vs-strictness policies. Each gate that swallows an error
// consults one of these constants so the tradeoff is auditable here
// instead of being buried at the call sites.
const (
	// BlacklistFailOpen lets a message through when the blacklist
	// lookup itself fails. A transient storage error should not
	// silently drop legitimate traffic.
	BlacklistFailOpen = true

	// WelcomeTrackingFailOpen permits a (possibly duplicate) greeting
	// when the tracking check fails. Duplicate greetings beat silence.
	WelcomeTrackingFailOpen = true

	// AIDeclineWhenUnconfigured keeps a bot without a behavior prompt
	// silent instead of letting it improvise generic replies.
	AIDeclineWhenUnconfigured = true
)

// CancelKeyword aborts an in-progress data-collection form. Compared
// case-insensitively against the trimmed message body.
const CancelKeyword = "cancelar"

// Retry defaults for calls whose transient failure should not abort
// the message pipeline.
const (
	RetryAttempts = 3
	RetryDelayMs  = 1000
)
