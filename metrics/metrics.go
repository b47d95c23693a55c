package metrics

import "time"

// Counter names
const (
	OperationStarted   = "operation_started"
	OperationFailed    = "operation_failed"
	OperationSucceeded = "operation_succeeded"
	QuoteRequested     = "quote_requested"
	IntentPublished    = "intent_published"
	SettlementPolled   = "settlement_polled"
)

// Recorder receives engine counters and latencies. Labels use the keys
// "operation" and "chain"; other keys are ignored by the Prometheus backend.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Labels is a small helper for the two label keys.
func Labels(operation, chain string) map[string]string {
	return map[string]string{"operation": operation, "chain": chain}
}
