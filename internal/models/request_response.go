package models

import "github.com/shopspring/decimal"

// Request models
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"categoryId" binding:"required"`
	TeamID      *int64          `json:"teamId"`
}

type CreateUserRequest struct {
	Name                string           `json:"name" binding:"required"`
	Email               string           `json:"email" binding:"required,email"`
	Password            string           `json:"password" binding:"required,min=8"`
	Role                string           `json:"role" binding:"required,oneof=admin finance_manager viewer"`
	TeamID              *int64           `json:"teamId"`
	MonthlySalary       *decimal.Decimal `json:"monthlySalary"`
	SalaryEffectiveDate string           `json:"salaryEffectiveDate"` // YYYY-MM-DD
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateSalaryRequest struct {
	MonthlySalary decimal.Decimal `json:"monthlySalary" binding:"required"`
	EffectiveDate string          `json:"effectiveDate" binding:"required"` // YYYY-MM-DD
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    int64  `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type PaymentResponse struct {
	Status  string   `json:"status"`
	Payment *Payment `json:"payment,omitempty"`
}

type PaymentListResponse struct {
	Status   string    `json:"status"`
	Payments []Payment `json:"payments"`
}

type AuditHistoryResponse struct {
	Status    string       `json:"status"`
	PaymentID int64        `json:"paymentId"`
	Entries   []AuditEntry `json:"entries"`
}

type UserResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

type UserListResponse struct {
	Status string `json:"status"`
	Users  []User `json:"users"`
}

type TeamResponse struct {
	Status string `json:"status"`
	Team   *Team  `json:"team,omitempty"`
}

type TeamListResponse struct {
	Status string `json:"status"`
	Teams  []Team `json:"teams"`
}

type SalaryRunResponse struct {
	Status    string `json:"status"`
	Month     string `json:"month"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
