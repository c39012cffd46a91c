package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldEntryID    = "entry_id"
	FieldGoalID     = "goal_id"
	FieldAmount     = "amount_cent"
	FieldDirection  = "direction"
	FieldBalance    = "balance_cent"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentReport  = "report"
	ComponentAuth    = "auth"
	ComponentStorage = "storage"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpRecord     = "record_transaction"
	OpContribute = "contribute"
	OpCreateGoal = "create_goal"
	OpReconcile  = "reconcile"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
