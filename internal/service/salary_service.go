package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/audit"
	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/repository"
)

// SalaryCategoryName is the category synthesized for batch payments.
const SalaryCategoryName = "Salary"

// SalaryPaymentType marks batch-generated payments for the idempotency check.
const SalaryPaymentType = "SALARY"

// SalaryRunReport summarizes one batch invocation.
type SalaryRunReport struct {
	Month     models.YearMonth
	Generated int
	Skipped   int
	Failed    int
}

// SalaryService generates monthly salary payments for eligible users. A run
// is idempotent per month: rerunning it generates nothing new.
type SalaryService struct {
	users      repository.UserRepository
	payments   repository.PaymentRepository
	categories repository.CategoryRepository
	statuses   repository.StatusRepository
	audit      *audit.Service
	logger     *zap.Logger
}

// NewSalaryService creates the batch job service.
func NewSalaryService(
	users repository.UserRepository,
	payments repository.PaymentRepository,
	categories repository.CategoryRepository,
	statuses repository.StatusRepository,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *SalaryService {
	return &SalaryService{
		users:      users,
		payments:   payments,
		categories: categories,
		statuses:   statuses,
		audit:      auditSvc,
		logger:     logger,
	}
}

// GenerateForMonthAs runs the batch on behalf of a user, enforcing that only
// admins may trigger it.
func (s *SalaryService) GenerateForMonthAs(ctx context.Context, month models.YearMonth, actor *models.User) (*SalaryRunReport, error) {
	if err := auth.Authorize(actor.Role, auth.OpRunSalaryBatch); err != nil {
		return nil, err
	}
	return s.GenerateForMonth(ctx, month)
}

// GenerateForMonth creates one APPROVED salary payment per eligible user for
// the given month. Users are skipped when their salary is not yet effective
// or a salary payment for the month already exists. A per-user failure is
// logged and counted without aborting the rest of the run.
func (s *SalaryService) GenerateForMonth(ctx context.Context, month models.YearMonth) (*SalaryRunReport, error) {
	log := s.logger.With(
		zap.String("runId", uuid.New().String()),
		zap.String("month", month.String()))

	eligible, err := s.users.FindWithSalary(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading salaried users: %w", err)
	}

	category, err := s.categories.GetOrCreate(ctx, SalaryCategoryName)
	if err != nil {
		return nil, fmt.Errorf("resolving salary category: %w", err)
	}

	approved, err := s.statuses.FindByName(ctx, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("resolving approved status: %w", err)
	}
	if approved == nil {
		return nil, &domain.NotFoundError{Entity: "status", Name: models.StatusApproved}
	}

	report := &SalaryRunReport{Month: month}
	log.Info("salary generation started", zap.Int("eligibleUsers", len(eligible)))

	for i := range eligible {
		user := &eligible[i]

		if !user.SalaryEligible() {
			log.Info("skipping user, no salary or effective date on record", zap.Int64("userId", user.ID))
			report.Skipped++
			continue
		}

		if month.Before(models.YearMonthOf(*user.SalaryEffectiveDate)) {
			log.Info("skipping user, salary not effective yet", zap.Int64("userId", user.ID))
			report.Skipped++
			continue
		}

		exists, err := s.payments.ExistsSalaryForUserInPeriod(ctx, user.ID, month.Start(), month.End())
		if err != nil {
			log.Error("salary idempotency check failed", zap.Int64("userId", user.ID), zap.Error(err))
			report.Failed++
			continue
		}
		if exists {
			log.Info("skipping user, salary already paid for month", zap.Int64("userId", user.ID))
			report.Skipped++
			continue
		}

		// Auto-approved and dated inside the target month so a rerun for the
		// same month finds it. The paid user is recorded as the creator.
		payment := &models.Payment{
			Amount:       user.MonthlySalary,
			Type:         SalaryPaymentType,
			Date:         month.Start(),
			Description:  fmt.Sprintf("Monthly salary for %s - %s", month, user.Name),
			CategoryID:   category.ID,
			StatusID:     approved.ID,
			CreatedBy:    user.ID,
			TeamID:       user.TeamID,
			StatusName:   approved.Name,
			CategoryName: category.Name,
		}

		if err := s.payments.Save(ctx, payment); err != nil {
			log.Error("failed to create salary payment", zap.Int64("userId", user.ID), zap.Error(err))
			report.Failed++
			continue
		}

		s.audit.RecordCreate(payment, user.ID)
		report.Generated++
	}

	log.Info("salary generation complete",
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	return report, nil
}
