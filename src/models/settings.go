package models

// Retention field names accepted in Settings.RetainLastExecutionData
const (
	RetainTimestamp          = "timestamp"
	RetainResponseStatusCode = "response_status_code"
)

// DefaultRetention is used when no retention policy has been stored
var DefaultRetention = RetentionFields{RetainTimestamp, RetainResponseStatusCode}

// RetentionFields is the set of delivery outcome fields kept in LastExecution.
// A nil value means "not configured"; an empty non-nil value means "keep nothing".
type RetentionFields []string

// Has reports whether field is part of the set
func (r RetentionFields) Has(field string) bool {
	for _, f := range r {
		if f == field {
			return true
		}
	}
	return false
}

// IsKnownRetentionField reports whether name is a valid retention field
func IsKnownRetentionField(name string) bool {
	return name == RetainTimestamp || name == RetainResponseStatusCode
}

// Settings is the process-wide delivery configuration
type Settings struct {
	WebhookSecret           string          `json:"webhook_secret"`
	DebugLog                bool            `json:"debug_log"`
	RetainLastExecutionData RetentionFields `json:"retain_last_execution_data"`
}

// DefaultSettings returns the settings written on first start
func DefaultSettings() Settings {
	return Settings{}
}

// EffectiveRetention returns the configured retention set, or DefaultRetention if unset
func (s Settings) EffectiveRetention() RetentionFields {
	if s.RetainLastExecutionData == nil {
		return DefaultRetention
	}
	return s.RetainLastExecutionData
}
