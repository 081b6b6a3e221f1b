package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StaffMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffCreateRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type StaffUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Role   *string `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type StaffListResponse struct {
	Staff []StaffMember `json:"staff"`
}

// SalaryEntitlement is the active monthly salary record for one staff member.
// Setting a new entitlement supersedes the previous one; the engine only ever
// reads the currently-active record.
type SalaryEntitlement struct {
	ID            string          `json:"id"`
	StaffID       string          `json:"staff_id"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	EffectiveDate time.Time       `json:"effective_date"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type EntitlementSetRequest struct {
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	EffectiveDate string          `json:"effective_date"`
	Note          string          `json:"note"`
}

type EntitlementResponse struct {
	Entitlement SalaryEntitlement `json:"entitlement"`
}

// SalaryTransaction is an immutable, append-only ledger fact. Amount is signed:
// repayment and fine are stored as the negative of the entered magnitude, all
// other types are stored positive.
type SalaryTransaction struct {
	ID            string          `json:"id"`
	StaffID       string          `json:"staff_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Date          time.Time       `json:"date"`
	OvertimeHours decimal.Decimal `json:"overtime_hours,omitempty"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate,omitempty"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentRecordRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate"`
	Note          string          `json:"note"`
}

type PaymentRecordResponse struct {
	Transaction SalaryTransaction `json:"transaction"`
}

type PaymentListResponse struct {
	Transactions []SalaryTransaction `json:"transactions"`
}

// StaffCalculation is the derived reconciliation result for one staff member.
// It has no storage lifecycle; it is recomputed from scratch on every call.
type StaffCalculation struct {
	StaffID            string          `json:"staff_id"`
	MonthlySalary      decimal.Decimal `json:"monthly_salary"`
	Carryover          decimal.Decimal `json:"carryover"`
	ExtraPayments      decimal.Decimal `json:"extra_payments"`
	CurrentMonthTotal  decimal.Decimal `json:"current_month_total"`
	AvailableThisMonth decimal.Decimal `json:"available_this_month"`
}

type FleetSummary struct {
	TotalMonthlySalary decimal.Decimal `json:"total_monthly_salary"`
	TotalCarryover     decimal.Decimal `json:"total_carryover"`
	TotalExtraPayments decimal.Decimal `json:"total_extra_payments"`
	StaffCount         int             `json:"staff_count"`
}

type StaffDashboardRow struct {
	Staff       StaffMember      `json:"staff"`
	Calculation StaffCalculation `json:"calculation"`
}

type SalaryDashboard struct {
	Rows         []StaffDashboardRow `json:"rows"`
	Summary      FleetSummary        `json:"summary"`
	PayCycleWeek int                 `json:"pay_cycle_week"`
	GeneratedAt  string              `json:"generated_at"`
}

type CalculationResponse struct {
	Calculation StaffCalculation `json:"calculation"`
}

// PaymentRecordedEvent is published to the broker after a transaction is
// appended to the ledger.
type PaymentRecordedEvent struct {
	TransactionID string          `json:"transaction_id"`
	StaffID       string          `json:"staff_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	RecordedAt    string          `json:"recorded_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type User struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	TxTypeRegular      = "regular"
	TxTypeOvertime     = "overtime"
	TxTypeExtraPayment = "extra_payment"
	TxTypeRepayment    = "repayment"
	TxTypeFine         = "fine"
	TxTypeBonus        = "bonus"
)

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
	RoleSuper = "super"
)

// IsDeduction reports whether a transaction type is entered as a positive
// magnitude but recorded negative on the ledger.
func IsDeduction(txType string) bool {
	return txType == TxTypeRepayment || txType == TxTypeFine
}

func IsValidTxType(txType string) bool {
	switch txType {
	case TxTypeRegular, TxTypeOvertime, TxTypeExtraPayment, TxTypeRepayment, TxTypeFine, TxTypeBonus:
		return true
	}
	return false
}

func IsValidStaffRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin || role == RoleSuper
}
