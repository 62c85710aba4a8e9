package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mongol-shop/internal/domain"
	"mongol-shop/internal/repo"
	"mongol-shop/pkg/utils"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

// stepClock 每次调用前进一秒，保证 createdAt 排序稳定
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store   *repo.MemoryStore
	clock   *stepClock
	account *AccountService
	catalog *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := repo.NewMemoryStore()
	clk := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	return &fixture{
		store:   st,
		clock:   clk,
		account: NewAccountService(st.Users(), st, log).WithClock(clk.Now),
		catalog: NewCatalogService(st.Products(), st.Users(), st, log).WithClock(clk.Now),
	}
}

// seedUser writes u straight into the store, bypassing the service rules.
func (f *fixture) seedUser(t *testing.T, u domain.User) *domain.User {
	t.Helper()
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	if u.Provider == "" {
		u.Provider = domain.ProviderLocal
	}
	u.CreatedAt = f.clock.Now()
	if err := f.store.Users().Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func (f *fixture) activeSeller(t *testing.T, name string) *domain.User {
	return f.seedUser(t, domain.User{
		Username:      name,
		Email:         name + "@example.mn",
		Role:          domain.RoleSeller,
		AccountStatus: domain.StatusActive,
		Seller:        &domain.SellerProfile{BusinessType: "individual", BusinessVerified: true},
	})
}

func (f *fixture) admin(t *testing.T) *domain.User {
	return f.seedUser(t, domain.User{
		Username:      "root",
		Email:         "root@example.mn",
		Role:          domain.RoleAdmin,
		AccountStatus: domain.StatusActive,
	})
}

func wantKind(t *testing.T, err error, kind domain.Kind) *domain.Error {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want domain error of kind %s", err, kind)
	}
	if de.Kind != kind {
		t.Fatalf("kind = %s (%v), want %s", de.Kind, err, kind)
	}
	return de
}
