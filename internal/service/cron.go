package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/models"
)

const salarySchedule = "0 0 1 * *" // first day of every month, midnight

// CronService runs the salary batch on a monthly schedule.
type CronService struct {
	cron   *cron.Cron
	salary *SalaryService
	logger *zap.Logger
}

// NewCronService creates the scheduler; Start must be called to run it.
func NewCronService(salary *SalaryService, logger *zap.Logger) *CronService {
	return &CronService{
		cron:   cron.New(),
		salary: salary,
		logger: logger,
	}
}

// Start registers the monthly salary job and starts the scheduler.
func (s *CronService) Start() {
	_, err := s.cron.AddFunc(salarySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		month := models.YearMonthOf(time.Now().UTC())
		if _, err := s.salary.GenerateForMonth(ctx, month); err != nil {
			s.logger.Error("scheduled salary generation failed",
				zap.String("month", month.String()),
				zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("failed to schedule salary generation", zap.Error(err))
		return
	}

	s.cron.Start()
	s.logger.Info("salary schedule registered", zap.String("schedule", salarySchedule))
}

// Stop stops the scheduler; running jobs finish on their own.
func (s *CronService) Stop() {
	s.cron.Stop()
}
