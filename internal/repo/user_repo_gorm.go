package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mongol-shop/internal/domain"
	"mongol-shop/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(conn(ctx, r.db).Create(toUserModel(u)).Error)
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return translate(conn(ctx, r.db).Save(toUserModel(u)).Error)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) FindByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return r.first(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (r *UserRepo) FindByAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.first(ctx, "auth_subject = ?", subject)
}

func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	tx := conn(ctx, r.db).Model(&user.UserModel{})
	if q.Role != "" {
		tx = tx.Where("role = ?", string(q.Role))
	}
	if q.Status != "" {
		tx = tx.Where("account_status = ?", string(q.Status))
	}
	var ms []user.UserModel
	if err := tx.Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, *toUser(&ms[i]))
	}
	return out, nil
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var m user.UserModel
	err := conn(ctx, r.db).Where(query, args...).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toUser(&m), nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toUserModel(u *domain.User) *user.UserModel {
	m := &user.UserModel{
		ID:               u.ID,
		AuthSubject:      optString(u.AuthSubject),
		Username:         optString(u.Username),
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		ProfilePicture:   u.ProfilePicture,
		Provider:         u.Provider,
		ProviderID:       optString(u.ProviderID),
		Role:             string(u.Role),
		AccountStatus:    string(u.AccountStatus),
		Phone:            u.Phone,
		Address:          datatypes.NewJSONType(u.Address),
		AdminPermissions: datatypes.JSONSlice[string](u.AdminPermissions),
		CreatedAt:        u.CreatedAt,
		LastLoginAt:      u.LastLoginAt,
		VerifiedAt:       u.VerifiedAt,
	}
	if s := u.Seller; s != nil {
		verified := s.BusinessVerified
		m.BusinessName = s.BusinessName
		m.BusinessType = s.BusinessType
		m.BusinessDescription = s.BusinessDescription
		m.BusinessVerified = &verified
		m.SellerRating = s.Rating
		m.TotalSales = s.TotalSales
		m.TotalOrders = s.TotalOrders
	}
	return m
}

func toUser(m *user.UserModel) *domain.User {
	u := &domain.User{
		ID:               m.ID,
		AuthSubject:      derefString(m.AuthSubject),
		Username:         derefString(m.Username),
		Email:            m.Email,
		PasswordHash:     m.PasswordHash,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		ProfilePicture:   m.ProfilePicture,
		Provider:         m.Provider,
		ProviderID:       derefString(m.ProviderID),
		Role:             domain.Role(m.Role),
		AccountStatus:    domain.AccountStatus(m.AccountStatus),
		Phone:            m.Phone,
		Address:          m.Address.Data(),
		AdminPermissions: []string(m.AdminPermissions),
		CreatedAt:        m.CreatedAt,
		LastLoginAt:      m.LastLoginAt,
		VerifiedAt:       m.VerifiedAt,
	}
	if m.BusinessVerified != nil {
		u.Seller = &domain.SellerProfile{
			BusinessName:        m.BusinessName,
			BusinessType:        m.BusinessType,
			BusinessDescription: m.BusinessDescription,
			BusinessVerified:    *m.BusinessVerified,
			Rating:              m.SellerRating,
			TotalSales:          m.TotalSales,
			TotalOrders:         m.TotalOrders,
		}
	}
	return u
}
