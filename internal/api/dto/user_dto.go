package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the signed-in user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// SendCodeRequest asks for a password-change code.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest checks a code without consuming it.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ChangePasswordRequest sets a new password with a verification code.
type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	Email    string      `json:"email" validate:"required,email"`
	Role     domain.Role `json:"role" validate:"required,oneof=it employee"`
	Password string      `json:"password" validate:"required,min=6"`
}

// ImportUserRow is one entry of an import request.
type ImportUserRow struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"required"`
	Role  domain.Role `json:"role" validate:"required"`
}

// ImportUsersRequest payload.
type ImportUsersRequest struct {
	Users []ImportUserRow `json:"users" validate:"required,min=1,dive"`
}

// ImportRowResult reports one imported row.
type ImportRowResult struct {
	Email       string `json:"email"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	EmailQueued bool   `json:"email_queued"`
}

// ImportUsersResponse summarizes an import.
type ImportUsersResponse struct {
	Created int               `json:"created"`
	Errors  int               `json:"errors"`
	Details []ImportRowResult `json:"details"`
}

// NewImportUsersResponse maps the service report.
func NewImportUsersResponse(r *service.UserImportReport) ImportUsersResponse {
	details := make([]ImportRowResult, 0, len(r.Details))
	for _, d := range r.Details {
		details = append(details, ImportRowResult{Email: d.Email, Status: d.Status, Message: d.Message, EmailQueued: d.EmailQueued})
	}
	return ImportUsersResponse{Created: r.Created, Errors: r.Errors, Details: details}
}

// Rows converts the request for the service.
func (r ImportUsersRequest) Rows() []service.UserImportRow {
	rows := make([]service.UserImportRow, 0, len(r.Users))
	for _, u := range r.Users {
		rows = append(rows, service.UserImportRow{Name: u.Name, Email: u.Email, Role: u.Role})
	}
	return rows
}

// UpdateUserRequest payload. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Name   *string      `json:"name" validate:"omitempty,max=200"`
	Email  *string      `json:"email" validate:"omitempty,email"`
	Active *bool        `json:"active"`
	Role   *domain.Role `json:"role" validate:"omitempty,oneof=it employee"`
}

// Patch converts the request for the service.
func (r UpdateUserRequest) Patch() service.UserPatch {
	return service.UserPatch{Name: r.Name, Email: r.Email, Active: r.Active, Role: r.Role}
}
