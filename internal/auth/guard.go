package auth

import (
	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
)

// Operation names a guarded action. The name is what an AuthorizationError
// reports back to the caller.
type Operation string

const (
	OpCreatePayment   Operation = "create payment"
	OpApprovePayment  Operation = "approve payment"
	OpRejectPayment   Operation = "reject payment"
	OpDeletePayment   Operation = "delete payment"
	OpViewAllPayments Operation = "view all payments"
	OpViewAuditTrail  Operation = "view audit trail"
	OpManageUsers     Operation = "manage users"
	OpManageTeams     Operation = "manage teams"
	OpRunSalaryBatch  Operation = "run salary batch"
)

// Allowed is a pure function of (role, operation). Roles outside the closed
// set fail closed. Viewing one's own payments needs no permission and is not
// listed here; visibility filtering happens in the lifecycle.
func Allowed(role models.Role, op Operation) bool {
	switch op {
	case OpCreatePayment, OpApprovePayment, OpRejectPayment, OpViewAllPayments, OpViewAuditTrail:
		return role == models.RoleAdmin || role == models.RoleFinanceManager
	case OpDeletePayment, OpManageUsers, OpManageTeams, OpRunSalaryBatch:
		return role == models.RoleAdmin
	default:
		return false
	}
}

// Authorize returns an AuthorizationError naming the denied operation when
// the role lacks permission.
func Authorize(role models.Role, op Operation) error {
	if !Allowed(role, op) {
		return &domain.AuthorizationError{Role: string(role), Operation: string(op)}
	}
	return nil
}
