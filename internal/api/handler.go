package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/service"
)

// Handler exposes the payment lifecycle, salary batch, and administrative
// operations over HTTP. Commands map 1:1 onto the service operations.
type Handler struct {
	auth     *service.AuthService
	payments *service.PaymentService
	users    *service.UserService
	salary   *service.SalaryService
}

// NewHandler creates an API handler.
func NewHandler(
	authSvc *service.AuthService,
	payments *service.PaymentService,
	users *service.UserService,
	salary *service.SalaryService,
) *Handler {
	return &Handler{
		auth:     authSvc,
		payments: payments,
		users:    users,
		salary:   salary,
	}
}

// SetupRoutes registers all routes on the router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", h.Login)

	authorized := router.Group("/api", AuthMiddleware(h.auth))
	{
		authorized.POST("/payments", h.CreatePayment)
		authorized.GET("/payments", h.ListPayments)
		authorized.POST("/payments/:id/approve", h.ApprovePayment)
		authorized.POST("/payments/:id/reject", h.RejectPayment)
		authorized.DELETE("/payments/:id", h.DeletePayment)
		authorized.GET("/payments/:id/history", h.PaymentHistory)

		authorized.POST("/users", h.CreateUser)
		authorized.GET("/users", h.ListUsers)
		authorized.PUT("/users/:id/salary", h.UpdateSalary)

		authorized.POST("/teams", h.CreateTeam)
		authorized.GET("/teams", h.ListTeams)

		authorized.POST("/salaries/generate", h.GenerateSalaries)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request", Reason: err.Error()})
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request", Reason: err.Error()})
		return
	}

	future := h.payments.CreateAsync(c.Request.Context(), req, Actor(c))
	payment, err := future.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.PaymentResponse{Status: "success", Payment: payment})
}

func (h *Handler) ListPayments(c *gin.Context) {
	var (
		payments []models.Payment
		err      error
	)

	if statusName := c.Query("status"); statusName != "" {
		payments, err = h.payments.ListByStatus(c.Request.Context(), statusName, Actor(c))
	} else {
		payments, err = h.payments.ListForUser(c.Request.Context(), Actor(c))
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, models.PaymentListResponse{Status: "success", Payments: payments})
}

func (h *Handler) ApprovePayment(c *gin.Context) {
	h.resolvePayment(c, h.payments.ApproveAsync, "Payment approved")
}

func (h *Handler) RejectPayment(c *gin.Context) {
	h.resolvePayment(c, h.payments.RejectAsync, "Payment rejected")
}

func (h *Handler) DeletePayment(c *gin.Context) {
	h.resolvePayment(c, h.payments.DeleteAsync, "Payment deleted")
}

type statusOp func(ctx context.Context, paymentID int64, actor *models.User) *service.Future[struct{}]

func (h *Handler) resolvePayment(c *gin.Context, op statusOp, message string) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
		return
	}

	future := op(c.Request.Context(), paymentID, Actor(c))
	if _, err := future.Wait(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: message})
}

func (h *Handler) PaymentHistory(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
		return
	}

	entries, err := h.payments.History(c.Request.Context(), paymentID, Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, models.AuditHistoryResponse{
		Status:    "success",
		PaymentID: paymentID,
		Entries:   entries,
	})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request", Reason: err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req, Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.UserResponse{Status: "success", User: user})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context(), Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserListResponse{Status: "success", Users: users})
}

func (h *Handler) UpdateSalary(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
		return
	}

	var req models.UpdateSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request", Reason: err.Error()})
		return
	}

	if err := h.users.UpdateSalary(c.Request.Context(), userID, req, Actor(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Salary updated"})
}

func (h *Handler) CreateTeam(c *gin.Context) {
	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request", Reason: err.Error()})
		return
	}

	team, err := h.users.CreateTeam(c.Request.Context(), req, Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.TeamResponse{Status: "success", Team: team})
}

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.users.ListTeams(c.Request.Context(), Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TeamListResponse{Status: "success", Teams: teams})
}

// GenerateSalaries triggers the salary batch for ?month=YYYY-MM, defaulting
// to the current month. Restricted to admins.
func (h *Handler) GenerateSalaries(c *gin.Context) {
	actor := Actor(c)

	month := models.YearMonthOf(time.Now().UTC())
	if raw := c.Query("month"); raw != "" {
		parsed, err := models.ParseYearMonth(raw)
		if err != nil {
			writeError(c, &domain.ValidationError{Field: "month", Reason: "must be YYYY-MM"})
			return
		}
		month = parsed
	}

	report, err := h.salary.GenerateForMonthAs(c.Request.Context(), month, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SalaryRunResponse{
		Status:    "success",
		Month:     report.Month.String(),
		Generated: report.Generated,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
	case domain.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "AUTHENTICATION_ERROR", Message: err.Error(),
		})
	case domain.IsAuthorization(err):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: err.Error(),
		})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL_ERROR", Message: "Internal server error",
		})
	}
}
