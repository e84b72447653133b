package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/audit"
	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/repository"
)

// PaymentService orchestrates the payment lifecycle: create, approve,
// reject, delete, and the visibility-filtered listings. Mutations check
// authorization and input synchronously, then touch storage, then notify the
// audit service without waiting on it.
type PaymentService struct {
	payments   repository.PaymentRepository
	statuses   repository.StatusRepository
	categories repository.CategoryRepository
	audit      *audit.Service
	workers    *WorkerPool
	logger     *zap.Logger
}

// NewPaymentService creates the lifecycle service.
func NewPaymentService(
	payments repository.PaymentRepository,
	statuses repository.StatusRepository,
	categories repository.CategoryRepository,
	auditSvc *audit.Service,
	workers *WorkerPool,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		statuses:   statuses,
		categories: categories,
		audit:      auditSvc,
		workers:    workers,
		logger:     logger,
	}
}

// Create validates the request, persists the payment in PENDING status, and
// schedules a CREATE audit entry.
func (s *PaymentService) Create(ctx context.Context, req models.CreatePaymentRequest, actor *models.User) (*models.Payment, error) {
	if err := auth.Authorize(actor.Role, auth.OpCreatePayment); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, &domain.ValidationError{Field: "type", Reason: "cannot be empty"}
	}
	if req.CategoryID == 0 {
		return nil, &domain.ValidationError{Field: "category", Reason: "is required"}
	}

	category, err := s.categories.FindByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("resolving category: %w", err)
	}
	if category == nil {
		return nil, &domain.NotFoundError{Entity: "category", ID: req.CategoryID}
	}

	pending, err := s.statuses.FindByName(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("resolving pending status: %w", err)
	}
	if pending == nil {
		return nil, &domain.NotFoundError{Entity: "status", Name: models.StatusPending}
	}

	teamID := req.TeamID
	if teamID == nil {
		teamID = actor.TeamID
	}

	payment := &models.Payment{
		Amount:       req.Amount,
		Type:         req.Type,
		Description:  req.Description,
		CategoryID:   category.ID,
		StatusID:     pending.ID,
		CreatedBy:    actor.ID,
		TeamID:       teamID,
		StatusName:   pending.Name,
		CategoryName: category.Name,
	}

	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("error creating payment: %w", err)
	}

	s.audit.RecordCreate(payment, actor.ID)

	return payment, nil
}

// Approve moves the payment to APPROVED. Concurrent approve/reject on the
// same payment resolve as last write wins at the storage layer.
func (s *PaymentService) Approve(ctx context.Context, paymentID int64, actor *models.User) error {
	return s.setStatus(ctx, paymentID, actor, models.StatusApproved, auth.OpApprovePayment)
}

// Reject moves the payment to REJECTED.
func (s *PaymentService) Reject(ctx context.Context, paymentID int64, actor *models.User) error {
	return s.setStatus(ctx, paymentID, actor, models.StatusRejected, auth.OpRejectPayment)
}

func (s *PaymentService) setStatus(ctx context.Context, paymentID int64, actor *models.User, statusName string, op auth.Operation) error {
	if err := auth.Authorize(actor.Role, op); err != nil {
		return err
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("error loading payment: %w", err)
	}
	if payment == nil {
		return &domain.NotFoundError{Entity: "payment", ID: paymentID}
	}

	status, err := s.statuses.FindByName(ctx, statusName)
	if err != nil {
		return fmt.Errorf("resolving status: %w", err)
	}
	if status == nil {
		return &domain.NotFoundError{Entity: "status", Name: statusName}
	}

	if err := s.payments.UpdateStatus(ctx, paymentID, status.ID); err != nil {
		return fmt.Errorf("error updating payment status: %w", err)
	}

	s.audit.RecordStatusChange(payment, actor.ID, statusName)

	return nil
}

// Delete removes the payment. The DELETE audit entry is submitted before the
// row is removed because deletion destroys the data it references; the
// payment's history is retained after the row is gone.
func (s *PaymentService) Delete(ctx context.Context, paymentID int64, actor *models.User) error {
	if err := auth.Authorize(actor.Role, auth.OpDeletePayment); err != nil {
		return err
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("error loading payment: %w", err)
	}
	if payment == nil {
		return &domain.NotFoundError{Entity: "payment", ID: paymentID}
	}

	s.audit.RecordDelete(payment, actor.ID)

	if err := s.payments.DeleteByID(ctx, paymentID); err != nil {
		return fmt.Errorf("error deleting payment: %w", err)
	}

	s.logger.Info("payment deleted",
		zap.Int64("paymentId", paymentID),
		zap.Int64("deletedBy", actor.ID))

	return nil
}

// ListForUser returns the payments the actor may see: admins and finance
// managers see all payments, viewers only their own.
func (s *PaymentService) ListForUser(ctx context.Context, actor *models.User) ([]models.Payment, error) {
	switch actor.Role {
	case models.RoleAdmin, models.RoleFinanceManager:
		return s.payments.FindAll(ctx)
	case models.RoleViewer:
		return s.payments.FindByCreator(ctx, actor.ID)
	default:
		return nil, &domain.AuthorizationError{Role: string(actor.Role), Operation: "view payments"}
	}
}

// ListByStatus filters the actor's visible payments by status name. The
// filter runs over the fetched list rather than as an indexed query; row
// counts here are small.
func (s *PaymentService) ListByStatus(ctx context.Context, statusName string, actor *models.User) ([]models.Payment, error) {
	payments, err := s.ListForUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if strings.EqualFold(p.StatusName, statusName) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

// History returns the audit trail of a payment, newest first.
func (s *PaymentService) History(ctx context.Context, paymentID int64, actor *models.User) ([]models.AuditEntry, error) {
	if err := auth.Authorize(actor.Role, auth.OpViewAuditTrail); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, paymentID)
}

// Asynchronous variants: each operation runs as an independent unit of work
// on the bounded worker pool and the caller gets a future to wait on.

func (s *PaymentService) CreateAsync(ctx context.Context, req models.CreatePaymentRequest, actor *models.User) *Future[*models.Payment] {
	return submit(s.workers, func() (*models.Payment, error) {
		return s.Create(ctx, req, actor)
	})
}

func (s *PaymentService) ApproveAsync(ctx context.Context, paymentID int64, actor *models.User) *Future[struct{}] {
	return submit(s.workers, func() (struct{}, error) {
		return struct{}{}, s.Approve(ctx, paymentID, actor)
	})
}

func (s *PaymentService) RejectAsync(ctx context.Context, paymentID int64, actor *models.User) *Future[struct{}] {
	return submit(s.workers, func() (struct{}, error) {
		return struct{}{}, s.Reject(ctx, paymentID, actor)
	})
}

func (s *PaymentService) DeleteAsync(ctx context.Context, paymentID int64, actor *models.User) *Future[struct{}] {
	return submit(s.workers, func() (struct{}, error) {
		return struct{}{}, s.Delete(ctx, paymentID, actor)
	})
}
