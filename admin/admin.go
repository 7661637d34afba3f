// Package admin wraps the hub's administrative CRUD with the client-side
// validation the forms perform before any network call.
package admin

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/taxbase/metricshub/internal/errors"
	"github.com/taxbase/metricshub/hubapi"
)

// API is the slice of the hub client the service needs.
type API interface {
	ListSystems(ctx context.Context) ([]hubapi.System, error)
	CreateSystem(ctx context.Context, system hubapi.System) error
	UpdateSystemStatus(ctx context.Context, id, manualStatus string) error
	DeleteSystem(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]hubapi.Account, error)
	CreateUser(ctx context.Context, account hubapi.Account) error
	UpdateUserRole(ctx context.Context, email, roleID string) error
	DeleteUser(ctx context.Context, email string) error

	ListRoles(ctx context.Context) ([]hubapi.RoleDef, error)
	CreateRole(ctx context.Context, role hubapi.RoleDef) error
	UpdateRole(ctx context.Context, id, description, permission string) error
	DeleteRole(ctx context.Context, id string) error
}

// Service validates and forwards administrative operations.
type Service struct {
	api API
}

// NewService creates an admin Service.
func NewService(api API) (*Service, error) {
	if api == nil {
		return nil, errors.New("[NewService] api is required")
	}
	return &Service{api: api}, nil
}

// ValidateSystem checks the required registry fields.
func ValidateSystem(system hubapi.System) error {
	if isBlank(system.Name) || isBlank(system.ID) || isBlank(system.URL) {
		return apperrors.Wrapf(apperrors.ErrValidation, "system name, id and url are required")
	}
	return nil
}

// ValidateAccount checks the required account fields for creation.
func ValidateAccount(account hubapi.Account) error {
	if isBlank(account.Name) || isBlank(account.Email) || isBlank(account.Password) {
		return apperrors.Wrapf(apperrors.ErrValidation, "account name, email and password are required")
	}
	return nil
}

// ValidateRole checks the required role fields for creation.
func ValidateRole(role hubapi.RoleDef) error {
	if isBlank(role.ID) || isBlank(role.Name) {
		return apperrors.Wrapf(apperrors.ErrValidation, "role id and name are required")
	}
	return nil
}

// Systems returns the registry.
func (s *Service) Systems(ctx context.Context) ([]hubapi.System, error) {
	return s.api.ListSystems(ctx)
}

// CreateSystem validates and registers a system.
func (s *Service) CreateSystem(ctx context.Context, system hubapi.System) error {
	if err := ValidateSystem(system); err != nil {
		return err
	}
	return s.api.CreateSystem(ctx, system)
}

// SetSystemStatus overrides a system's manual status.
func (s *Service) SetSystemStatus(ctx context.Context, id, status string) error {
	if isBlank(id) {
		return apperrors.Wrapf(apperrors.ErrValidation, "system id is required")
	}
	return s.api.UpdateSystemStatus(ctx, id, status)
}

// DeleteSystem removes a system; ErrNotFound for a missing id.
func (s *Service) DeleteSystem(ctx context.Context, id string) error {
	return s.api.DeleteSystem(ctx, id)
}

// Users returns all accounts.
func (s *Service) Users(ctx context.Context) ([]hubapi.Account, error) {
	return s.api.ListUsers(ctx)
}

// CreateUser validates and registers an account.
func (s *Service) CreateUser(ctx context.Context, account hubapi.Account) error {
	if err := ValidateAccount(account); err != nil {
		return err
	}
	return s.api.CreateUser(ctx, account)
}

// SetUserRole reassigns an account's role.
func (s *Service) SetUserRole(ctx context.Context, email, roleID string) error {
	if isBlank(email) || isBlank(roleID) {
		return apperrors.Wrapf(apperrors.ErrValidation, "email and role id are required")
	}
	return s.api.UpdateUserRole(ctx, email, roleID)
}

// DeleteUser removes an account; ErrNotFound for a missing email.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	return s.api.DeleteUser(ctx, email)
}

// Roles returns all role definitions.
func (s *Service) Roles(ctx context.Context) ([]hubapi.RoleDef, error) {
	return s.api.ListRoles(ctx)
}

// CreateRole validates and registers a role definition.
func (s *Service) CreateRole(ctx context.Context, role hubapi.RoleDef) error {
	if err := ValidateRole(role); err != nil {
		return err
	}
	if len(role.Systems) == 0 {
		role.Systems = []string{"*"}
	}
	return s.api.CreateRole(ctx, role)
}

// SetRole updates a role's description and permission.
func (s *Service) SetRole(ctx context.Context, id, description, permission string) error {
	if isBlank(id) {
		return apperrors.Wrapf(apperrors.ErrValidation, "role id is required")
	}
	return s.api.UpdateRole(ctx, id, description, permission)
}

// DeleteRole removes a role definition; ErrNotFound for a missing id.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	return s.api.DeleteRole(ctx, id)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
