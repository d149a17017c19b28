package models

// Config store keys
const (
	// OptionWebhooks holds {"webhooks": {slug: Webhook}}
	OptionWebhooks = "hook_expose"
	// OptionSettings holds Settings
	OptionSettings = "hook_expose_settings"
)

// SecretField is the body field carrying the shared webhook secret
const SecretField = "wp_webhook_secret"

// ArgsField is the body field carrying the event's positional arguments
const ArgsField = "args"
