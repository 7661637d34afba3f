package hubapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// System is an entry of the hub's systems registry. JSON tags follow the
// hub's wire vocabulary.
type System struct {
	ID           string `json:"sistema_id"`
	Name         string `json:"nome"`
	URL          string `json:"url"`
	Category     string `json:"categoria,omitempty"`
	Description  string `json:"desc,omitempty"`
	ManualStatus string `json:"status_manual,omitempty"`
}

// Account is a hub user account.
type Account struct {
	Name          string `json:"nome"`
	Email         string `json:"email"`
	RoleID        string `json:"funcao_id"`
	Password      string `json:"senha,omitempty"`
	IsAdminMaster bool   `json:"is_admin_master,omitempty"`
}

// RoleDef is a hub role definition with its permission level.
type RoleDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"nome"`
	Description string   `json:"descricao,omitempty"`
	Permission  string   `json:"permissao"`
	Systems     []string `json:"sistemas,omitempty"`
}

// ListSystems returns the systems registry.
func (c *Client) ListSystems(ctx context.Context) ([]System, error) {
	var out []System
	if err := c.doJSON(ctx, http.MethodGet, "/api/sistemas", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.ListSystems]")
	}
	return out, nil
}

// CreateSystem registers a system.
func (c *Client) CreateSystem(ctx context.Context, system System) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/sistemas", system, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.CreateSystem]")
	}
	return nil
}

// UpdateSystemStatus overrides a system's manual status.
func (c *Client) UpdateSystemStatus(ctx context.Context, id, manualStatus string) error {
	body := map[string]string{"status_manual": manualStatus}
	path := "/api/sistemas/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.UpdateSystemStatus]")
	}
	return nil
}

// DeleteSystem removes a system. Deleting a missing system reports
// ErrNotFound; callers treat it as terminal, not fatal.
func (c *Client) DeleteSystem(ctx context.Context, id string) error {
	path := "/api/sistemas/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.DeleteSystem]")
	}
	return nil
}

// ListUsers returns all hub accounts.
func (c *Client) ListUsers(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/usuarios", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.ListUsers]")
	}
	return out, nil
}

// CreateUser registers an account.
func (c *Client) CreateUser(ctx context.Context, account Account) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/usuarios", account, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.CreateUser]")
	}
	return nil
}

// UpdateUserRole reassigns an account's role.
func (c *Client) UpdateUserRole(ctx context.Context, email, roleID string) error {
	body := map[string]string{"funcao_id": roleID}
	path := "/api/usuarios/" + url.PathEscape(email)
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.UpdateUserRole]")
	}
	return nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, email string) error {
	path := "/api/usuarios/" + url.PathEscape(email)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.DeleteUser]")
	}
	return nil
}

// ListRoles returns all role definitions.
func (c *Client) ListRoles(ctx context.Context) ([]RoleDef, error) {
	var out []RoleDef
	if err := c.doJSON(ctx, http.MethodGet, "/api/funcoes", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.ListRoles]")
	}
	return out, nil
}

// CreateRole registers a role definition.
func (c *Client) CreateRole(ctx context.Context, role RoleDef) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/funcoes", role, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.CreateRole]")
	}
	return nil
}

// UpdateRole changes a role's description and permission level.
func (c *Client) UpdateRole(ctx context.Context, id, description, permission string) error {
	body := map[string]string{"descricao": description, "permissao": permission}
	path := "/api/funcoes/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.UpdateRole]")
	}
	return nil
}

// DeleteRole removes a role definition.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	path := "/api/funcoes/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.DeleteRole]")
	}
	return nil
}
