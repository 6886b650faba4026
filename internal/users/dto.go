package users

import "github.com/helix-id/helix/internal/shared"

// CreateUserRequest is the inbound shape for provisioning a user.
type CreateUserRequest struct {
	AccountID           string            `json:"account_id" validate:"required"`
	UserTypeID          string            `json:"user_type_id" validate:"required"`
	Username            string            `json:"username" validate:"required"`
	FirstName           string            `json:"first_name" validate:"required"`
	LastName            string            `json:"last_name" validate:"required"`
	Email               string            `json:"email" validate:"required,email"`
	Provider            string            `json:"provider" validate:"required"`
	GroupIDs            []string          `json:"group_ids"`
	CustomProfileFields map[string]string `json:"custom_profile_fields"`
}

// UpdateUserRequest carries the mutable profile fields of an existing user.
type UpdateUserRequest struct {
	AccountID           string            `json:"account_id" validate:"required"`
	Username            string            `json:"username" validate:"required"`
	FirstName           string            `json:"first_name" validate:"required"`
	LastName            string            `json:"last_name" validate:"required"`
	Email               string            `json:"email" validate:"required,email"`
	CustomProfileFields map[string]string `json:"custom_profile_fields"`
}

// ListUsersRequest selects a filtered page of an account's users.
type ListUsersRequest struct {
	AccountID   string `json:"account_id" validate:"required"`
	Filter      string `json:"filter_by"`
	OrderBy     string `json:"order_by"`
	Descending  bool   `json:"sorting_desc"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
	ShowDeleted bool   `json:"show_deleted"`
}

// UserPage is a page of users plus paging metadata.
type UserPage struct {
	Items      []User            `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}
