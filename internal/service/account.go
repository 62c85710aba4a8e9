package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mongol-shop/internal/domain"
	"mongol-shop/pkg/utils"
)

// maxUsernameAttempts bounds the base, base1, base2... candidates tried during OAuth sign-up.
const maxUsernameAttempts = 100

// username 列宽 64，给两位数字后缀留位置
const maxUsernameBase = 62

const msgBadCredentials = "invalid username or password"

type AccountService struct {
	users domain.UserRepository
	tx    domain.Transactor
	log   *zap.Logger
	now   func() time.Time
}

func NewAccountService(users domain.UserRepository, tx domain.Transactor, log *zap.Logger) *AccountService {
	return &AccountService{users: users, tx: tx, log: log, now: time.Now}
}

// WithClock 测试用
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

// ---------- register ----------

type RegisterInput struct {
	Username            string      `json:"username" validate:"required,min=3,max=32"`
	Email               string      `json:"email" validate:"required,email,max=255"`
	Password            string      `json:"password" validate:"required,min=6,bcryptmax"`
	Role                domain.Role `json:"role"`
	FirstName           string      `json:"firstName" validate:"max=64"`
	LastName            string      `json:"lastName" validate:"max=64"`
	Phone               string      `json:"phone" validate:"max=32"`
	BusinessName        string      `json:"businessName" validate:"max=128"`
	BusinessType        string      `json:"businessType" validate:"omitempty,oneof=individual business"`
	BusinessDescription string      `json:"businessDescription"`
}

type RegisterResult struct {
	UserID        string               `json:"userId"`
	Username      string               `json:"username"`
	Role          domain.Role          `json:"role"`
	AccountStatus domain.AccountStatus `json:"accountStatus"`
}

// Register creates a local account. Sellers start pending_verification and
// cannot list products until an admin verifies them.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleCustomer && role != domain.RoleSeller {
		return nil, domain.Validation("role", "invalid role, must be 'customer' or 'seller'")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:            utils.NewID(),
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hash,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		Provider:      domain.ProviderLocal,
		Role:          role,
		AccountStatus: domain.StatusActive,
		CreatedAt:     s.now(),
	}
	if role == domain.RoleSeller {
		u.AccountStatus = domain.StatusPendingVerification
		bt := in.BusinessType
		if bt == "" {
			bt = "individual"
		}
		u.Seller = &domain.SellerProfile{
			BusinessName:        in.BusinessName,
			BusinessType:        bt,
			BusinessDescription: in.BusinessDescription,
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, u.Username, u.Email); err != nil {
			return err
		}
		return s.users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
	)
	return &RegisterResult{UserID: u.ID, Username: u.Username, Role: u.Role, AccountStatus: u.AccountStatus}, nil
}

func (s *AccountService) ensureUnique(ctx context.Context, username, email string) error {
	byName, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if byName != nil {
		return domain.Conflict("username", "username already exists")
	}
	byEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil {
		return domain.Conflict("email", "email already exists")
	}
	return nil
}

// ---------- OAuth ----------

type OAuthInput struct {
	Email          string      `json:"email" validate:"required,email,max=255"`
	FirstName      string      `json:"firstName" validate:"max=64"`
	LastName       string      `json:"lastName" validate:"max=64"`
	ProfilePicture string      `json:"profilePicture" validate:"max=512"`
	Provider       string      `json:"provider" validate:"required,oneof=google facebook oauth"`
	ProviderID     string      `json:"providerId" validate:"required,max=191"`
	Role           domain.Role `json:"role"`
}

type OAuthResult struct {
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Created  bool        `json:"created"`
}

// RegisterOAuthUser signs in an existing provider identity or creates a new
// active account for it. An email already used by another account is a
// conflict; accounts are never linked across providers.
//
// The username is claimed by inserting base, base1, base2... and letting the
// unique index reject taken names, so two concurrent sign-ups cannot end up
// with the same username.
func (s *AccountService) RegisterOAuthUser(ctx context.Context, in OAuthInput) (*OAuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleCustomer && role != domain.RoleSeller {
		return nil, domain.Validation("role", "invalid role, must be 'customer' or 'seller'")
	}

	existing, err := s.users.FindByProvider(ctx, in.Provider, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.oauthSignIn(ctx, existing)
	}
	byEmail, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if byEmail != nil {
		return nil, domain.Conflict("email", "an account with this email already exists")
	}

	now := s.now()
	u := &domain.User{
		ID:             utils.NewID(),
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		ProfilePicture: in.ProfilePicture,
		Provider:       in.Provider,
		ProviderID:     in.ProviderID,
		Role:           role,
		AccountStatus:  domain.StatusActive,
		CreatedAt:      now,
		LastLoginAt:    &now,
	}
	base := usernameBase(in.FirstName, in.Email)
	for i := 0; i < maxUsernameAttempts; i++ {
		u.Username = base
		if i > 0 {
			u.Username = base + strconv.Itoa(i)
		}
		err := s.users.Create(ctx, u)
		if err == nil {
			s.log.Info("oauth user created",
				zap.String("user_id", u.ID),
				zap.String("provider", u.Provider),
				zap.String("username", u.Username),
			)
			return &OAuthResult{UserID: u.ID, Username: u.Username, Role: u.Role, Created: true}, nil
		}
		var de *domain.Error
		if !errors.As(err, &de) || de.Kind != domain.KindConflict {
			return nil, err
		}
		switch de.Field {
		case "username":
			continue
		case "provider":
			// 并发注册了同一身份：以先写入者为准
			winner, ferr := s.users.FindByProvider(ctx, in.Provider, in.ProviderID)
			if ferr != nil {
				return nil, ferr
			}
			if winner != nil {
				return s.oauthSignIn(ctx, winner)
			}
		}
		return nil, err
	}
	return nil, domain.Conflict("username", "could not allocate a unique username")
}

func (s *AccountService) oauthSignIn(ctx context.Context, u *domain.User) (*OAuthResult, error) {
	if u.EffectiveStatus() == domain.StatusSuspended {
		return nil, domain.Suspended("your account has been suspended, please contact support")
	}
	now := s.now()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return &OAuthResult{UserID: u.ID, Username: u.Username, Role: u.EffectiveRole()}, nil
}

// usernameBase 优先用名字，否则用邮箱 @ 前的部分；去掉空白，按字符截到 maxUsernameBase
func usernameBase(firstName, email string) string {
	base := strings.TrimSpace(firstName)
	if base == "" {
		base = email
		if at := strings.IndexByte(email, '@'); at >= 0 {
			base = email[:at]
		}
	}
	base = strings.Join(strings.Fields(base), "")
	if base == "" {
		base = "user"
	}
	if r := []rune(base); len(r) > maxUsernameBase {
		base = string(r[:maxUsernameBase])
	}
	return base
}

// ---------- admin accounts ----------

type AdminInput struct {
	Username         string   `json:"username" validate:"required,min=3,max=32"`
	Email            string   `json:"email" validate:"required,email,max=255"`
	Password         string   `json:"password" validate:"required,min=6,bcryptmax"`
	FirstName        string   `json:"firstName" validate:"required,max=64"`
	LastName         string   `json:"lastName" validate:"required,max=64"`
	AdminPermissions []string `json:"adminPermissions" validate:"dive,required"`
}

// CreateAdmin inserts an admin account on behalf of an existing active admin.
func (s *AccountService) CreateAdmin(ctx context.Context, callerID string, in AdminInput) (*RegisterResult, error) {
	var out *RegisterResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		caller, err := requireAdmin(ctx, s.users, callerID)
		if err != nil {
			return err
		}
		out, err = s.insertAdmin(ctx, in)
		if err == nil {
			s.log.Info("admin created", zap.String("user_id", out.UserID), zap.String("by", caller.ID))
		}
		return err
	})
	return out, err
}

// BootstrapAdmin seeds the first admin when the store has none. It reports
// whether an account was created.
func (s *AccountService) BootstrapAdmin(ctx context.Context, in AdminInput) (bool, error) {
	created := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		admins, err := s.users.List(ctx, domain.UserQuery{Role: domain.RoleAdmin})
		if err != nil {
			return err
		}
		if len(admins) > 0 {
			return nil
		}
		if _, err := s.insertAdmin(ctx, in); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *AccountService) insertAdmin(ctx context.Context, in AdminInput) (*RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:               utils.NewID(),
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     hash,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Provider:         domain.ProviderLocal,
		Role:             domain.RoleAdmin,
		AccountStatus:    domain.StatusActive,
		AdminPermissions: append([]string{}, in.AdminPermissions...),
		CreatedAt:        s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: u.ID, Username: u.Username, Role: u.Role, AccountStatus: u.AccountStatus}, nil
}

// ---------- login ----------

// Login checks a username/password pair. Unknown usernames, accounts without
// a password and wrong passwords all fail with the same message.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.UserSummary, error) {
	var out domain.UserSummary
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			return err
		}
		if u == nil || u.PasswordHash == "" {
			return domain.AuthFailed(msgBadCredentials)
		}
		ok, rehash := utils.CheckPassword(password, u.PasswordHash)
		if !ok {
			return domain.AuthFailed(msgBadCredentials)
		}
		if u.EffectiveStatus() == domain.StatusSuspended {
			return domain.Suspended("your account has been suspended, please contact support")
		}

		now := s.now()
		u.LastLoginAt = &now
		if u.AccountStatus == "" {
			u.AccountStatus = domain.StatusActive
		}
		if u.Role == "" {
			u.Role = domain.RoleCustomer
		}
		if rehash {
			if h, herr := utils.HashPassword(password); herr == nil {
				u.PasswordHash = h
			} else {
				s.log.Warn("rehash legacy digest failed", zap.String("user_id", u.ID), zap.Error(herr))
			}
		}
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		out = u.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------- profile ----------

type ProfileInput struct {
	Name  string      `json:"name" validate:"max=128"`
	Email string      `json:"email" validate:"omitempty,email,max=255"`
	Image string      `json:"image" validate:"max=512"`
	Role  domain.Role `json:"role"`
}

// UpsertProfile keeps the profile row linked to an external auth subject in
// sync and returns its id. Empty input fields leave stored values alone.
func (s *AccountService) UpsertProfile(ctx context.Context, subject string, in ProfileInput) (string, error) {
	if subject == "" {
		return "", domain.AuthFailed("not authenticated")
	}
	if err := validateInput(in); err != nil {
		return "", err
	}
	if in.Role != "" && in.Role != domain.RoleCustomer && in.Role != domain.RoleSeller {
		return "", domain.Validation("role", "invalid role, must be 'customer' or 'seller'")
	}
	first, last := domain.SplitName(in.Name)

	var id string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		u, err := s.users.FindByAuthSubject(ctx, subject)
		if err != nil {
			return err
		}
		if u != nil {
			if in.Email != "" {
				u.Email = in.Email
			}
			if first != "" {
				u.FirstName = first
			}
			if last != "" {
				u.LastName = last
			}
			if in.Image != "" {
				u.ProfilePicture = in.Image
			}
			u.LastLoginAt = &now
			id = u.ID
			return s.users.Update(ctx, u)
		}

		role := in.Role
		if role == "" {
			role = domain.RoleCustomer
		}
		u = &domain.User{
			ID:             utils.NewID(),
			AuthSubject:    subject,
			Email:          in.Email,
			FirstName:      first,
			LastName:       last,
			ProfilePicture: in.Image,
			Provider:       domain.ProviderOAuth,
			Role:           role,
			AccountStatus:  domain.StatusActive,
			CreatedAt:      now,
			LastLoginAt:    &now,
		}
		id = u.ID
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		s.log.Info("profile created", zap.String("user_id", u.ID), zap.String("subject", subject))
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ---------- reads ----------

// Principal 当前请求的身份：外部认证主体优先，否则按用户 id
type Principal struct {
	UserID  string
	Subject string
}

func (s *AccountService) GetCurrentUser(ctx context.Context, p Principal) (*domain.User, error) {
	var (
		u   *domain.User
		err error
	)
	switch {
	case p.Subject != "":
		u, err = s.users.FindByAuthSubject(ctx, p.Subject)
	case p.UserID != "":
		u, err = s.users.FindByID(ctx, p.UserID)
	default:
		return nil, domain.AuthFailed("not authenticated")
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *AccountService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *AccountService) GetUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	switch role {
	case domain.RoleCustomer, domain.RoleSeller, domain.RoleAdmin:
	default:
		return nil, domain.Validation("role", "must be one of: customer seller admin")
	}
	return s.users.List(ctx, domain.UserQuery{Role: role})
}

func (s *AccountService) GetPendingSellers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx, domain.UserQuery{Role: domain.RoleSeller, Status: domain.StatusPendingVerification})
}

// ---------- back office ----------

// VerifySeller moves a seller from pending_verification to active.
func (s *AccountService) VerifySeller(ctx context.Context, callerID, userID string) (*domain.User, error) {
	var out *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		caller, err := requireAdmin(ctx, s.users, callerID)
		if err != nil {
			return err
		}
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("user not found")
		}
		if u.Role != domain.RoleSeller {
			return domain.RoleDenied("user is not a seller")
		}
		if u.AccountStatus != domain.StatusPendingVerification {
			return domain.Validation("accountStatus", "seller is not pending verification")
		}
		now := s.now()
		u.AccountStatus = domain.StatusActive
		u.VerifiedAt = &now
		if u.Seller == nil {
			u.Seller = &domain.SellerProfile{BusinessType: "individual"}
		}
		u.Seller.BusinessVerified = true
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		s.log.Info("seller verified", zap.String("user_id", u.ID), zap.String("by", caller.ID))
		out = u
		return nil
	})
	return out, err
}

// SetAccountStatus lets an admin suspend or reactivate an account.
func (s *AccountService) SetAccountStatus(ctx context.Context, callerID, userID string, status domain.AccountStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.Validation("accountStatus", "must be one of: active suspended pending_verification")
	}
	var out *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		caller, err := requireAdmin(ctx, s.users, callerID)
		if err != nil {
			return err
		}
		if caller.ID == userID && status != domain.StatusActive {
			return domain.Validation("userId", "admins cannot deactivate themselves")
		}
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("user not found")
		}
		u.AccountStatus = status
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		s.log.Info("account status changed",
			zap.String("user_id", u.ID),
			zap.String("status", string(status)),
			zap.String("by", caller.ID),
		)
		out = u
		return nil
	})
	return out, err
}
