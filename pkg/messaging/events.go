package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Directory events consumed from the staff service
	EventEmployeeCreated = "staff.employee.created"
	EventEmployeeUpdated = "staff.employee.updated"
	EventEmployeeDeleted = "staff.employee.deleted"

	// Tenant provisioning events
	EventTenantCreated = "tenant.created"
	EventTenantUpdated = "tenant.updated"

	// Attendance events
	EventAttendanceRecorded  = "attendance.recorded"
	EventAttendanceCorrected = "attendance.corrected"
	EventAttendanceDeleted   = "attendance.deleted"

	// Ledger events
	EventLedgerEntryCreated        = "ledger.entry.created"
	EventLedgerEntryAdjusted       = "ledger.entry.adjusted"
	EventLedgerEntryClosed         = "ledger.entry.closed"
	EventLedgerEntryDeleted        = "ledger.entry.deleted"
	EventLedgerGenerationRequested = "ledger.generation.requested"
	EventLedgerGenerationCompleted = "ledger.generation.completed"
)

// Exchange names
const (
	ExchangeStaffEvents      = "staff.events"
	ExchangeTenantEvents     = "tenant.events"
	ExchangeAttendanceEvents = "attendance.events"
	ExchangeLedgerEvents     = "ledger.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Directory events

// EmployeeEvent carries the full employee profile on create and update
type EmployeeEvent struct {
	EmployeeID string          `json:"employee_id"`
	TenantID   string          `json:"tenant_id"`
	Name       string          `json:"name"`
	Role       string          `json:"role"`
	WageBasis  string          `json:"wage_basis"`
	WageAmount decimal.Decimal `json:"wage_amount"`
	Active     bool            `json:"active"`
}

// EmployeeDeletedEvent is published when an employee leaves the directory
type EmployeeDeletedEvent struct {
	EmployeeID string `json:"employee_id"`
	TenantID   string `json:"tenant_id"`
}

// TenantEvent carries tenant registry data
type TenantEvent struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}

// Attendance events

// AttendanceEvent is published when an attendance record changes
type AttendanceEvent struct {
	RecordID    string          `json:"record_id"`
	TenantID    string          `json:"tenant_id"`
	EmployeeID  string          `json:"employee_id"`
	WorkDate    string          `json:"work_date"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	WageEarned  decimal.Decimal `json:"wage_earned"`
	ActorID     string          `json:"actor_id"`
}

// Ledger events

// LedgerEntryEvent is the snapshot of a ledger entry after a change
type LedgerEntryEvent struct {
	EntryID       string          `json:"entry_id"`
	TenantID      string          `json:"tenant_id"`
	EmployeeID    string          `json:"employee_id"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BasePay       decimal.Decimal `json:"base_pay"`
	Advance       decimal.Decimal `json:"advance"`
	LoanTaken     decimal.Decimal `json:"loan_taken"`
	LoanPaid      decimal.Decimal `json:"loan_paid"`
	LoanRemaining decimal.Decimal `json:"loan_remaining"`
	FinalPayable  decimal.Decimal `json:"final_payable"`
	ActorID       string          `json:"actor_id"`
}

// LedgerAdjustedEvent adds the applied deltas to the entry snapshot
type LedgerAdjustedEvent struct {
	LedgerEntryEvent
	AdvanceDelta   decimal.Decimal `json:"advance_delta"`
	LoanTakenDelta decimal.Decimal `json:"loan_taken_delta"`
	LoanPaidDelta  decimal.Decimal `json:"loan_paid_delta"`
}

// GenerationRequestedEvent asks the ledger service to generate entries for a tenant period
type GenerationRequestedEvent struct {
	TenantID string `json:"tenant_id"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
}

// GenerationCompletedEvent summarizes one batch generation
type GenerationCompletedEvent struct {
	TenantID string `json:"tenant_id"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	Trigger  string `json:"trigger"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}
