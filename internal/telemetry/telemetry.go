// Package telemetry provides no-op telemetry functions.
// Merchant data must never leave the device without explicit opt-in, so
// every function here does nothing by default. A real implementation can
// be swapped in via build tags or configuration once the user consents.
package telemetry

import "time"

// IsEnabled returns false always (telemetry disabled by default).
// When the user explicitly enables telemetry, this should return true.
func IsEnabled() bool {
	// Always disabled by default - explicit opt-in required
	return false
}

// EnableTelemetry enables telemetry collection.
// A real implementation should:
// 1. Store user consent in durable storage
// 2. Only collect/transmit after explicit consent
// 3. Provide a clear way to disable
func EnableTelemetry() error {
	// No-op - no telemetry without explicit opt-in
	return nil
}

// DisableTelemetry disables telemetry collection.
func DisableTelemetry() error {
	// No-op - already disabled by default
	return nil
}

// TrackEvent tracks an application event (NO-OP).
func TrackEvent(name string, properties map[string]interface{}) {
	// No-op - no event tracking without opt-in
}

// TrackError tracks an error (NO-OP).
func TrackError(err error, context map[string]interface{}) {
	// No-op - no error transmission without opt-in
}

// RecordMetric records a numeric metric (NO-OP).
func RecordMetric(name string, value float64, tags map[string]string) {
	// No-op - no metric collection without opt-in
}

// RecordTiming records a timing duration (NO-OP).
func RecordTiming(name string, duration time.Duration, tags map[string]string) {
	// No-op - no timing data without opt-in
}

// RecordCount records a counter increment (NO-OP).
func RecordCount(name string, delta int, tags map[string]string) {
	// No-op - no counter data without opt-in
}

// ShouldCollectData returns false always (opt-in required).
func ShouldCollectData() bool {
	return false
}

// GetOptInStatus returns the current opt-in status.
// Returns "disabled" by default. Should return "enabled" only after the
// user gives explicit consent through settings.
func GetOptInStatus() string {
	return "disabled"
}
