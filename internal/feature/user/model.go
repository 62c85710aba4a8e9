package user

import (
	"time"

	"gorm.io/datatypes"

	"mongol-shop/internal/domain"
)

// UserModel 对应 users 表。可空唯一列用指针，NULL 不参与唯一约束
type UserModel struct {
	ID          string  `gorm:"primaryKey;type:varchar(32)"`
	AuthSubject *string `gorm:"uniqueIndex:idx_users_auth_subject;size:191"`
	Username    *string `gorm:"uniqueIndex:idx_users_username;size:64"`
	Email       string  `gorm:"index:idx_users_email;size:255;not null"`

	PasswordHash   string `gorm:"size:100"`
	FirstName      string `gorm:"size:64"`
	LastName       string `gorm:"size:64"`
	ProfilePicture string `gorm:"size:512"`

	Provider   string  `gorm:"uniqueIndex:idx_users_provider,priority:1;size:16;not null"`
	ProviderID *string `gorm:"uniqueIndex:idx_users_provider,priority:2;size:191"`

	// 旧数据可能为空串，登录时回填
	Role          string `gorm:"index:idx_users_role;size:16"`
	AccountStatus string `gorm:"index:idx_users_account_status;size:32"`

	Phone   string                              `gorm:"size:32"`
	Address datatypes.JSONType[*domain.Address] `gorm:"type:json"`

	BusinessName        string `gorm:"size:128"`
	BusinessType        string `gorm:"size:16"`
	BusinessDescription string `gorm:"type:text"`
	BusinessVerified    *bool  `gorm:"index:idx_users_business_verified"`
	SellerRating        float64
	TotalSales          int64
	TotalOrders         int64

	AdminPermissions datatypes.JSONSlice[string] `gorm:"type:json"`

	CreatedAt   time.Time `gorm:"autoCreateTime"`
	LastLoginAt *time.Time
	VerifiedAt  *time.Time
}

func (UserModel) TableName() string { return "users" }
