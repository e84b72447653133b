package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/repository"
)

const dateLayout = "2006-01-02"

// UserService covers the privileged administrative flows: creating users and
// teams and maintaining salaries.
type UserService struct {
	users repository.UserRepository
	teams repository.TeamRepository
}

// NewUserService creates the administrative service.
func NewUserService(users repository.UserRepository, teams repository.TeamRepository) *UserService {
	return &UserService{users: users, teams: teams}
}

// CreateUser registers a user. Only viewers may carry a salary; a salary
// without an effective date defaults to today.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest, actor *models.User) (*models.User, error) {
	if err := auth.Authorize(actor.Role, auth.OpManageUsers); err != nil {
		return nil, err
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, &domain.ValidationError{Field: "role", Reason: "must be admin, finance_manager or viewer"}
	}

	salary := decimal.Zero
	var effectiveDate *time.Time
	if req.MonthlySalary != nil && req.MonthlySalary.IsPositive() {
		if role != models.RoleViewer {
			return nil, &domain.ValidationError{Field: "monthlySalary", Reason: "only viewers may carry a salary"}
		}
		salary = *req.MonthlySalary

		when := time.Now().UTC().Truncate(24 * time.Hour)
		if req.SalaryEffectiveDate != "" {
			parsed, err := time.Parse(dateLayout, req.SalaryEffectiveDate)
			if err != nil {
				return nil, &domain.ValidationError{Field: "salaryEffectiveDate", Reason: "must be YYYY-MM-DD"}
			}
			when = parsed
		}
		effectiveDate = &when
	}

	if req.TeamID != nil {
		team, err := s.teams.FindByID(ctx, *req.TeamID)
		if err != nil {
			return nil, fmt.Errorf("resolving team: %w", err)
		}
		if team == nil {
			return nil, &domain.NotFoundError{Entity: "team", ID: *req.TeamID}
		}
	}

	roleID, err := s.users.RoleIDByName(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("resolving role: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:                req.Name,
		Email:               req.Email,
		PasswordHash:        hash,
		RoleID:              roleID,
		Role:                role,
		TeamID:              req.TeamID,
		MonthlySalary:       salary,
		SalaryEffectiveDate: effectiveDate,
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateSalary sets a viewer's monthly salary and its effective date.
func (s *UserService) UpdateSalary(ctx context.Context, userID int64, req models.UpdateSalaryRequest, actor *models.User) error {
	if err := auth.Authorize(actor.Role, auth.OpManageUsers); err != nil {
		return err
	}

	if !req.MonthlySalary.IsPositive() {
		return &domain.ValidationError{Field: "monthlySalary", Reason: "must be positive"}
	}

	effectiveDate, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		return &domain.ValidationError{Field: "effectiveDate", Reason: "must be YYYY-MM-DD"}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return &domain.NotFoundError{Entity: "user", ID: userID}
	}
	if user.Role != models.RoleViewer {
		return &domain.ValidationError{Field: "monthlySalary", Reason: "only viewers may carry a salary"}
	}

	return s.users.UpdateSalary(ctx, userID, req.MonthlySalary, effectiveDate)
}

// ListUsers returns all users; an administrative view.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := auth.Authorize(actor.Role, auth.OpManageUsers); err != nil {
		return nil, err
	}
	return s.users.FindAll(ctx)
}

// CreateTeam registers a team owned by the actor. Team names are unique.
func (s *UserService) CreateTeam(ctx context.Context, req models.CreateTeamRequest, actor *models.User) (*models.Team, error) {
	if err := auth.Authorize(actor.Role, auth.OpManageTeams); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:      req.Name,
		CreatedBy: actor.ID,
	}

	if err := s.teams.Save(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

// ListTeams returns all teams.
func (s *UserService) ListTeams(ctx context.Context, actor *models.User) ([]models.Team, error) {
	return s.teams.FindAll(ctx)
}
