package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRunID is the curation run ID (UUID)
	FieldRunID = "run_id"

	// FieldPass is the curation pass name (classify, prices, warehouse, ...)
	FieldPass = "pass"

	// FieldProductID is the catalog product being processed
	FieldProductID = "product_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields, used for aggregation and alerting.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"
)
