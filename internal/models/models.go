package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleFinanceManager Role = "finance_manager"
	RoleViewer         Role = "viewer"
)

// ParseRole maps a stored role name onto the closed Role set.
// Unknown names are rejected so an unexpected row in the roles table
// cannot silently grant or deny permissions.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleFinanceManager, RoleViewer:
		return Role(s), true
	default:
		return "", false
	}
}

// Payment status names as seeded in the status table.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Audit trail action tags.
const (
	AuditActionCreate       = "CREATE"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionDelete       = "DELETE"
)

// User represents a user in the system
type User struct {
	ID                  int64           `db:"user_id" json:"id"`
	Name                string          `db:"name" json:"name"`
	Email               string          `db:"email" json:"email"`
	PasswordHash        string          `db:"password_hash" json:"-"` // Password hash, not returned in JSON
	RoleID              int64           `db:"role_id" json:"-"`
	Role                Role            `db:"role_name" json:"role"`
	TeamID              *int64          `db:"team_id" json:"teamId,omitempty"`
	MonthlySalary       decimal.Decimal `db:"monthly_salary" json:"monthlySalary"`
	SalaryEffectiveDate *time.Time      `db:"salary_effective_date" json:"salaryEffectiveDate,omitempty"`
}

// SalaryEligible reports whether the user qualifies for batch salary
// generation at all: a positive salary and an effective date on record.
func (u *User) SalaryEligible() bool {
	return u.MonthlySalary.IsPositive() && u.SalaryEffectiveDate != nil
}

// Team represents a group of users owned by its creator
type Team struct {
	ID        int64     `db:"team_id" json:"id"`
	Name      string    `db:"team_name" json:"name"`
	CreatedBy int64     `db:"created_by_user_id" json:"createdBy"`
	CreatedAt time.Time `db:"created_date" json:"createdAt"`
}

// Category is an open-ended lookup for payment classification
type Category struct {
	ID   int64  `db:"category_id" json:"id"`
	Name string `db:"category_name" json:"name"`
}

// Status is a row of the fixed status lookup table
type Status struct {
	ID   int64  `db:"status_id" json:"id"`
	Name string `db:"status_name" json:"name"`
}

// Payment is a single payment row; its status field carries the lifecycle
type Payment struct {
	ID           int64           `db:"payment_id" json:"id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Type         string          `db:"type" json:"type"`
	Date         time.Time       `db:"payment_date" json:"paymentDate"`
	Description  string          `db:"description" json:"description"`
	CategoryID   int64           `db:"category_id" json:"categoryId"`
	StatusID     int64           `db:"status_id" json:"statusId"`
	CreatedBy    int64           `db:"created_by_user_id" json:"createdBy"`
	TeamID       *int64          `db:"team_id" json:"teamId,omitempty"`
	StatusName   string          `db:"status_name" json:"status"`
	CategoryName string          `db:"category_name" json:"category"`
}

// AuditEntry is an append-only record of a change made to a payment.
// Entries are never mutated or deleted and outlive the payment they describe.
type AuditEntry struct {
	ID        int64     `db:"audit_id" json:"id"`
	PaymentID int64     `db:"payment_id" json:"paymentId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Action    string    `db:"action" json:"action"`
	Timestamp time.Time `db:"change_timestamp" json:"timestamp"`
	OldValue  *string   `db:"old_value" json:"oldValue,omitempty"`
	NewValue  *string   `db:"new_value" json:"newValue,omitempty"`
}
