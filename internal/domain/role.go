package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the caller's privilege level.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case RoleGuest, RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, v)
}

// RoleAssignment is a persisted role for a principal.
type RoleAssignment struct {
	Principal  string    `json:"principal"`
	Role       Role      `json:"role"`
	AssignedBy string    `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

// UserProfile is a registered buyer; its ID is the principal.
type UserProfile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Name            string    `json:"name,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	ShippingAddress string    `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CustomerInfo snapshots the profile for an order.
func (u UserProfile) CustomerInfo() CustomerInfo {
	return CustomerInfo{
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		ShippingAddress: u.ShippingAddress,
	}
}
