package repo

import (
	"context"
	"sort"
	"sync"

	"mongol-shop/internal/domain"
)

// MemoryStore 内存版仓储（db.driver=memory）。唯一约束与 gorm 表一致：
// username、(provider, provider_id)、auth_subject
type MemoryStore struct {
	txMu sync.Mutex // 串行化 WithinTx

	mu       sync.RWMutex
	users    map[string]*domain.User
	products map[string]*domain.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*domain.User),
		products: make(map[string]*domain.Product),
	}
}

type memTxKey struct{}

// WithinTx serialises units of work. There is no rollback: services only
// write after every check has passed.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

func (s *MemoryStore) Users() *MemoryUserRepo       { return &MemoryUserRepo{s: s} }
func (s *MemoryStore) Products() *MemoryProductRepo { return &MemoryProductRepo{s: s} }

type MemoryUserRepo struct{ s *MemoryStore }

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	if u.Address != nil {
		a := *u.Address
		cp.Address = &a
	}
	if u.Seller != nil {
		sp := *u.Seller
		cp.Seller = &sp
	}
	if u.AdminPermissions != nil {
		cp.AdminPermissions = append([]string(nil), u.AdminPermissions...)
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	if u.VerifiedAt != nil {
		t := *u.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

// uniqueViolation 调用方需持有 s.mu
func (r *MemoryUserRepo) uniqueViolation(u *domain.User) error {
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if u.Username != "" && other.Username == u.Username {
			return domain.Conflict("username", "username already exists")
		}
		if u.ProviderID != "" && other.Provider == u.Provider && other.ProviderID == u.ProviderID {
			return domain.Conflict("provider", "provider already exists")
		}
		if u.AuthSubject != "" && other.AuthSubject == u.AuthSubject {
			return domain.Conflict("authSubject", "authSubject already exists")
		}
	}
	return nil
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return domain.Conflict("id", "id already exists")
	}
	if err := r.uniqueViolation(u); err != nil {
		return err
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *MemoryUserRepo) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.uniqueViolation(u); err != nil {
		return err
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *MemoryUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, nil
	}
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *MemoryUserRepo) FindByProvider(_ context.Context, provider, providerID string) (*domain.User, error) {
	if providerID == "" {
		return nil, nil
	}
	return r.find(func(u *domain.User) bool { return u.Provider == provider && u.ProviderID == providerID })
}

func (r *MemoryUserRepo) FindByAuthSubject(_ context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, nil
	}
	return r.find(func(u *domain.User) bool { return u.AuthSubject == subject })
}

func (r *MemoryUserRepo) List(_ context.Context, q domain.UserQuery) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0)
	for _, u := range r.s.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Status != "" && u.AccountStatus != q.Status {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type MemoryProductRepo struct{ s *MemoryStore }

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Images = append([]string{}, p.Images...)
	if p.Tags != nil {
		cp.Tags = append([]string(nil), p.Tags...)
	}
	if p.CompareAtPrice != nil {
		v := *p.CompareAtPrice
		cp.CompareAtPrice = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		cp.Weight = &v
	}
	if p.Dimensions != nil {
		d := *p.Dimensions
		cp.Dimensions = &d
	}
	if p.Attributes != nil {
		a := *p.Attributes
		cp.Attributes = &a
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

func (r *MemoryProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return domain.Conflict("id", "id already exists")
	}
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *MemoryProductRepo) Update(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *MemoryProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.NotFound("product not found")
	}
	delete(r.s.products, id)
	return nil
}

func (r *MemoryProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, nil
}

func (r *MemoryProductRepo) List(_ context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range r.s.products {
		if q.Match(p) {
			out = append(out, *cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
