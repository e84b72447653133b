package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/repository"
)

const writeTimeout = 5 * time.Second

// Service records payment state changes on a bounded queue consumed by a
// fixed set of workers. Recording never blocks on persistence and a failed
// audit write never fails the business operation that triggered it: the
// trail is best effort, not transactional with the payment mutation.
type Service struct {
	repo    repository.AuditTrailRepository
	tasks   chan models.AuditEntry
	workers int
	wg      sync.WaitGroup
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewService starts workers consuming the audit queue.
func NewService(repo repository.AuditTrailRepository, workers, queueSize int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = 3
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	s := &Service{
		repo:    repo,
		tasks:   make(chan models.AuditEntry, queueSize),
		workers: workers,
		logger:  logger,
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	return s
}

func (s *Service) worker() {
	defer s.wg.Done()

	for entry := range s.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.repo.Save(ctx, &entry)
		cancel()
		if err != nil {
			s.logger.Error("audit write failed",
				zap.Int64("paymentId", entry.PaymentID),
				zap.String("action", entry.Action),
				zap.Error(err))
		}
	}
}

func (s *Service) enqueue(entry models.AuditEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("audit entry dropped after service shutdown",
			zap.Int64("paymentId", entry.PaymentID),
			zap.String("action", entry.Action))
		return
	}

	s.tasks <- entry
}

// RecordCreate schedules a CREATE entry for a newly persisted payment.
func (s *Service) RecordCreate(payment *models.Payment, actorID int64) {
	newValue := fmt.Sprintf("Payment created with amount: %s", payment.Amount.String())
	s.enqueue(models.AuditEntry{
		PaymentID: payment.ID,
		UserID:    actorID,
		Action:    models.AuditActionCreate,
		Timestamp: time.Now().UTC(),
		NewValue:  &newValue,
	})
}

// RecordStatusChange schedules a STATUS_CHANGE entry carrying the old and
// new status names.
func (s *Service) RecordStatusChange(payment *models.Payment, actorID int64, newStatus string) {
	oldValue := payment.StatusName
	s.enqueue(models.AuditEntry{
		PaymentID: payment.ID,
		UserID:    actorID,
		Action:    models.AuditActionStatusChange,
		Timestamp: time.Now().UTC(),
		OldValue:  &oldValue,
		NewValue:  &newStatus,
	})
}

// RecordDelete schedules a DELETE entry. The pre-deletion amount is recorded
// as the old value because deletion destroys the payment row itself.
func (s *Service) RecordDelete(payment *models.Payment, actorID int64) {
	oldValue := fmt.Sprintf("Payment with amount: %s", payment.Amount.String())
	s.enqueue(models.AuditEntry{
		PaymentID: payment.ID,
		UserID:    actorID,
		Action:    models.AuditActionDelete,
		Timestamp: time.Now().UTC(),
		OldValue:  &oldValue,
	})
}

// History returns all entries for a payment, newest first.
func (s *Service) History(ctx context.Context, paymentID int64) ([]models.AuditEntry, error) {
	return s.repo.FindByPaymentID(ctx, paymentID)
}

// Close drains the queue, waits for in-flight writes, and stops the workers.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	s.wg.Wait()
}
