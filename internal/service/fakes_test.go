package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orgpay/payment-server/internal/models"
)

// In-memory repository fakes backing the service tests.

type fakeStatusRepo struct {
	statuses []models.Status
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{statuses: []models.Status{
		{ID: 1, Name: models.StatusPending},
		{ID: 2, Name: models.StatusApproved},
		{ID: 3, Name: models.StatusRejected},
	}}
}

func (f *fakeStatusRepo) FindByID(_ context.Context, id int64) (*models.Status, error) {
	for _, s := range f.statuses {
		if s.ID == id {
			status := s
			return &status, nil
		}
	}
	return nil, nil
}

func (f *fakeStatusRepo) FindByName(_ context.Context, name string) (*models.Status, error) {
	for _, s := range f.statuses {
		if s.Name == name {
			status := s
			return &status, nil
		}
	}
	return nil, nil
}

func (f *fakeStatusRepo) FindAll(_ context.Context) ([]models.Status, error) {
	return append([]models.Status(nil), f.statuses...), nil
}

func (f *fakeStatusRepo) nameOf(id int64) string {
	for _, s := range f.statuses {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	categories []models.Category
}

func newFakeCategoryRepo(names ...string) *fakeCategoryRepo {
	f := &fakeCategoryRepo{}
	for _, name := range names {
		f.nextID++
		f.categories = append(f.categories, models.Category{ID: f.nextID, Name: name})
	}
	return f
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			category := c
			return &category, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindByName(_ context.Context, name string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			category := c
			return &category, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindAll(_ context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Category(nil), f.categories...), nil
}

func (f *fakeCategoryRepo) GetOrCreate(_ context.Context, name string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			category := c
			return &category, nil
		}
	}
	f.nextID++
	category := models.Category{ID: f.nextID, Name: name}
	f.categories = append(f.categories, category)
	return &category, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]models.Payment
	statuses *fakeStatusRepo
	saveErr  error
}

func newFakePaymentRepo(statuses *fakeStatusRepo) *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[int64]models.Payment), statuses: statuses}
}

func (f *fakePaymentRepo) Save(_ context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	payment.ID = f.nextID
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}
	f.payments[payment.ID] = *payment
	return nil
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	payment.StatusName = f.statuses.nameOf(payment.StatusID)
	return &payment, nil
}

func (f *fakePaymentRepo) FindAll(_ context.Context) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		p.StatusName = f.statuses.nameOf(p.StatusID)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePaymentRepo) FindByCreator(_ context.Context, userID int64) ([]models.Payment, error) {
	all, _ := f.FindAll(context.Background())
	var out []models.Payment
	for _, p := range all {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) UpdateStatus(_ context.Context, paymentID, statusID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[paymentID]
	if !ok {
		return nil
	}
	payment.StatusID = statusID
	f.payments[paymentID] = payment
	return nil
}

func (f *fakePaymentRepo) DeleteByID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payments, id)
	return nil
}

func (f *fakePaymentRepo) ExistsSalaryForUserInPeriod(_ context.Context, userID int64, from, to time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.CreatedBy == userID && strings.EqualFold(p.Type, SalaryPaymentType) &&
			!p.Date.Before(from) && !p.Date.After(to) {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]models.User
	roleIDs map[models.Role]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[int64]models.User),
		roleIDs: map[models.Role]int64{
			models.RoleAdmin:          1,
			models.RoleFinanceManager: 2,
			models.RoleViewer:         3,
		},
	}
}

func (f *fakeUserRepo) add(user models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Save(_ context.Context, user *models.User) error {
	*user = f.add(*user)
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(_ context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) FindWithSalary(_ context.Context) ([]models.User, error) {
	all, _ := f.FindAll(context.Background())
	var out []models.User
	for _, u := range all {
		if u.MonthlySalary.IsPositive() && u.SalaryEffectiveDate != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateSalary(_ context.Context, userID int64, salary decimal.Decimal, effectiveDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil
	}
	user.MonthlySalary = salary
	user.SalaryEffectiveDate = &effectiveDate
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) RoleIDByName(_ context.Context, role models.Role) (int64, error) {
	return f.roleIDs[role], nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int64
	teams  map[int64]models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int64]models.Team)}
}

func (f *fakeTeamRepo) Save(_ context.Context, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	team.ID = f.nextID
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	f.teams[team.ID] = *team
	return nil
}

func (f *fakeTeamRepo) FindByID(_ context.Context, id int64) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return nil, nil
	}
	return &team, nil
}

func (f *fakeTeamRepo) FindAll(_ context.Context) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Team
	for _, t := range f.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []models.AuditEntry
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Save(_ context.Context, entry *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) FindByPaymentID(_ context.Context, paymentID int64) ([]models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range f.entries {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
