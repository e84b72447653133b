package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/audit"
	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/service"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func (r *stubUserRepo) add(user models.User) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user
}

func (r *stubUserRepo) Save(_ context.Context, user *models.User) error {
	*user = r.add(*user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubUserRepo) FindWithSalary(_ context.Context) ([]models.User, error) {
	all, _ := r.FindAll(context.Background())
	var out []models.User
	for _, u := range all {
		if u.SalaryEligible() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateSalary(_ context.Context, userID int64, salary decimal.Decimal, effectiveDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[userID]
	user.MonthlySalary = salary
	user.SalaryEffectiveDate = &effectiveDate
	r.users[userID] = user
	return nil
}

func (r *stubUserRepo) RoleIDByName(_ context.Context, role models.Role) (int64, error) {
	switch role {
	case models.RoleAdmin:
		return 1, nil
	case models.RoleFinanceManager:
		return 2, nil
	default:
		return 3, nil
	}
}

type stubTeamRepo struct{}

func (stubTeamRepo) Save(_ context.Context, team *models.Team) error {
	team.ID = 1
	return nil
}
func (stubTeamRepo) FindByID(_ context.Context, _ int64) (*models.Team, error) { return nil, nil }
func (stubTeamRepo) FindAll(_ context.Context) ([]models.Team, error)          { return nil, nil }

type stubStatusRepo struct{}

var statusTable = []models.Status{
	{ID: 1, Name: models.StatusPending},
	{ID: 2, Name: models.StatusApproved},
	{ID: 3, Name: models.StatusRejected},
}

func (stubStatusRepo) FindByID(_ context.Context, id int64) (*models.Status, error) {
	for _, s := range statusTable {
		if s.ID == id {
			status := s
			return &status, nil
		}
	}
	return nil, nil
}

func (stubStatusRepo) FindByName(_ context.Context, name string) (*models.Status, error) {
	for _, s := range statusTable {
		if s.Name == name {
			status := s
			return &status, nil
		}
	}
	return nil, nil
}

func (stubStatusRepo) FindAll(_ context.Context) ([]models.Status, error) {
	return statusTable, nil
}

type stubCategoryRepo struct{}

func (stubCategoryRepo) FindByID(_ context.Context, id int64) (*models.Category, error) {
	if id == 1 {
		return &models.Category{ID: 1, Name: "Travel"}, nil
	}
	return nil, nil
}

func (stubCategoryRepo) FindByName(_ context.Context, _ string) (*models.Category, error) {
	return nil, nil
}

func (stubCategoryRepo) FindAll(_ context.Context) ([]models.Category, error) { return nil, nil }

func (stubCategoryRepo) GetOrCreate(_ context.Context, name string) (*models.Category, error) {
	return &models.Category{ID: 2, Name: name}, nil
}

type stubPaymentRepo struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]models.Payment
}

func (r *stubPaymentRepo) Save(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	payment.ID = r.nextID
	r.payments[payment.ID] = *payment
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id int64) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment, ok := r.payments[id]; ok {
		for _, s := range statusTable {
			if s.ID == payment.StatusID {
				payment.StatusName = s.Name
			}
		}
		return &payment, nil
	}
	return nil, nil
}

func (r *stubPaymentRepo) FindAll(_ context.Context) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubPaymentRepo) FindByCreator(_ context.Context, userID int64) ([]models.Payment, error) {
	all, _ := r.FindAll(context.Background())
	var out []models.Payment
	for _, p := range all {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) UpdateStatus(_ context.Context, paymentID, statusID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment := r.payments[paymentID]
	payment.StatusID = statusID
	r.payments[paymentID] = payment
	return nil
}

func (r *stubPaymentRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

func (r *stubPaymentRepo) ExistsSalaryForUserInPeriod(_ context.Context, _ int64, _, _ time.Time) (bool, error) {
	return false, nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *stubAuditRepo) Save(_ context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *stubAuditRepo) FindByPaymentID(_ context.Context, paymentID int64) ([]models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range r.entries {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type apiFixture struct {
	router *gin.Engine
	users  *stubUserRepo
	tokens *auth.TokenManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &stubUserRepo{users: make(map[int64]models.User)}
	payments := &stubPaymentRepo{payments: make(map[int64]models.Payment)}
	auditSvc := audit.NewService(&stubAuditRepo{}, 1, 16, zap.NewNop())
	t.Cleanup(auditSvc.Close)

	tokens := auth.NewTokenManager("test-secret")
	authSvc := service.NewAuthService(users, tokens)
	paymentSvc := service.NewPaymentService(
		payments, stubStatusRepo{}, stubCategoryRepo{},
		auditSvc, service.NewWorkerPool(5), zap.NewNop())
	userSvc := service.NewUserService(users, stubTeamRepo{})
	salarySvc := service.NewSalaryService(
		users, payments, stubCategoryRepo{}, stubStatusRepo{},
		auditSvc, zap.NewNop())

	router := gin.New()
	NewHandler(authSvc, paymentSvc, userSvc, salarySvc).SetupRoutes(router)

	return &apiFixture{router: router, users: users, tokens: tokens}
}

func (f *apiFixture) addUser(t *testing.T, email, password string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return f.users.add(models.User{Name: "Test", Email: email, PasswordHash: hash, Role: role})
}

func (f *apiFixture) tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := f.tokens.Generate(&user)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.addUser(t, "alice@corp.example", "s3cretpass", models.RoleAdmin)

	w := f.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@corp.example", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.Role)

	w = f.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@corp.example", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "AUTHENTICATION_ERROR", errResp.Code)
}

func TestMissingTokenIsRejected(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodGet, "/api/payments", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Code)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndApprovePayment(t *testing.T) {
	f := newAPIFixture(t)
	manager := f.addUser(t, "fin@corp.example", "s3cretpass", models.RoleFinanceManager)
	token := f.tokenFor(t, manager)

	w := f.request(t, http.MethodPost, "/api/payments", token, gin.H{
		"amount": 120.50, "type": "EXPENSE", "categoryId": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Payment)
	assert.Equal(t, models.StatusPending, created.Payment.StatusName)

	path := fmt.Sprintf("/api/payments/%d/approve", created.Payment.ID)
	w = f.request(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestViewerCannotDeletePayment(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.addUser(t, "admin@corp.example", "s3cretpass", models.RoleAdmin)
	viewer := f.addUser(t, "viewer@corp.example", "s3cretpass", models.RoleViewer)

	w := f.request(t, http.MethodPost, "/api/payments", f.tokenFor(t, admin), gin.H{
		"amount": 10.00, "type": "EXPENSE", "categoryId": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/payments/%d", created.Payment.ID)
	w = f.request(t, http.MethodDelete, path, f.tokenFor(t, viewer), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "FORBIDDEN", errResp.Code)
}

func TestApproveUnknownPayment(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.addUser(t, "admin@corp.example", "s3cretpass", models.RoleAdmin)

	w := f.request(t, http.MethodPost, "/api/payments/404/approve", f.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.request(t, http.MethodPost, "/api/payments/abc/approve", f.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSalariesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.addUser(t, "admin@corp.example", "s3cretpass", models.RoleAdmin)

	effective := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	f.users.add(models.User{
		Name: "Paid", Email: "paid@corp.example", Role: models.RoleViewer,
		MonthlySalary: decimal.RequireFromString("50000.00"), SalaryEffectiveDate: &effective,
	})

	w := f.request(t, http.MethodPost, "/api/salaries/generate?month=2025-02", f.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SalaryRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-02", resp.Month)
	assert.Equal(t, 1, resp.Generated)

	w = f.request(t, http.MethodPost, "/api/salaries/generate?month=bad", f.tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
