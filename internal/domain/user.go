package domain

import (
	"context"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

type AccountStatus string

const (
	StatusActive              AccountStatus = "active"
	StatusSuspended           AccountStatus = "suspended"
	StatusPendingVerification AccountStatus = "pending_verification"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusPendingVerification:
		return true
	}
	return false
}

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderOAuth    = "oauth"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// SellerProfile 仅 role=seller 时存在
type SellerProfile struct {
	BusinessName        string  `json:"businessName,omitempty"`
	BusinessType        string  `json:"businessType,omitempty"` // individual / business
	BusinessDescription string  `json:"businessDescription,omitempty"`
	BusinessVerified    bool    `json:"businessVerified"`
	Rating              float64 `json:"rating"`
	TotalSales          int64   `json:"totalSales"`
	TotalOrders         int64   `json:"totalOrders"`
}

// User is an identity record. Role and AccountStatus may be empty on rows
// written before those columns existed; Login backfills them.
type User struct {
	ID               string         `json:"id"`
	AuthSubject      string         `json:"authSubject,omitempty"`
	Username         string         `json:"username,omitempty"`
	Email            string         `json:"email"`
	PasswordHash     string         `json:"-"`
	FirstName        string         `json:"firstName,omitempty"`
	LastName         string         `json:"lastName,omitempty"`
	ProfilePicture   string         `json:"profilePicture,omitempty"`
	Provider         string         `json:"provider"`
	ProviderID       string         `json:"providerId,omitempty"`
	Role             Role           `json:"role"`
	AccountStatus    AccountStatus  `json:"accountStatus"`
	Phone            string         `json:"phone,omitempty"`
	Address          *Address       `json:"address,omitempty"`
	Seller           *SellerProfile `json:"seller,omitempty"`
	AdminPermissions []string       `json:"adminPermissions,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	LastLoginAt      *time.Time     `json:"lastLoginAt,omitempty"`
	VerifiedAt       *time.Time     `json:"verifiedAt,omitempty"`
}

// EffectiveRole 旧数据没有 role 时按 customer 处理
func (u *User) EffectiveRole() Role {
	if u.Role == "" {
		return RoleCustomer
	}
	return u.Role
}

// EffectiveStatus 旧数据没有 accountStatus 时按 active 处理
func (u *User) EffectiveStatus() AccountStatus {
	if u.AccountStatus == "" {
		return StatusActive
	}
	return u.AccountStatus
}

// SplitName splits a display name on the first space into first/last.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.Fields(name)
	return parts[0], strings.Join(parts[1:], " ")
}

// UserSummary is what login and token-issuing endpoints hand back.
type UserSummary struct {
	UserID         string        `json:"userId"`
	Username       string        `json:"username"`
	Email          string        `json:"email"`
	FirstName      string        `json:"firstName,omitempty"`
	LastName       string        `json:"lastName,omitempty"`
	Role           Role          `json:"role"`
	AccountStatus  AccountStatus `json:"accountStatus"`
	ProfilePicture string        `json:"profilePicture,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:         u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.EffectiveRole(),
		AccountStatus:  u.EffectiveStatus(),
		ProfilePicture: u.ProfilePicture,
	}
}

// UserQuery 空字段不参与过滤
type UserQuery struct {
	Role   Role
	Status AccountStatus
}

// UserRepository returns (nil, nil) from the Find methods when no row matches.
// Create and Update report unique-index violations as a conflict *Error.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*User, error)
	FindByAuthSubject(ctx context.Context, subject string) (*User, error)
	List(ctx context.Context, q UserQuery) ([]User, error)
}

// Transactor runs fn so that every repository call made with the ctx it
// receives belongs to one atomic unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
