package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mongol-shop/internal/core/auth"
	"mongol-shop/internal/core/server"
	"mongol-shop/internal/domain"
	"mongol-shop/internal/repo"
	"mongol-shop/internal/service"
	"mongol-shop/internal/transport/http/handler"
	mdw "mongol-shop/internal/transport/http/middleware"
	"mongol-shop/pkg/utils"
)

const internalKey = "k-123"

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type harness struct {
	api, admin *gin.Engine
	accounts   *service.AccountService
	store      *repo.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	utils.BcryptCost = bcrypt.MinCost
	log := zap.NewNop()
	st := repo.NewMemoryStore()
	accounts := service.NewAccountService(st.Users(), st, log)
	catalog := service.NewCatalogService(st.Products(), st.Users(), st, log)
	jwter := &auth.JWTer{Secret: []byte("test"), Issuer: "mongol-shop", TTL: time.Hour}
	opt := server.Options{Name: "test", Mode: gin.TestMode}
	authMW := mdw.AuthJWT(jwter, "")

	api := NewAPIEngine(log, opt, Limits{}, NewRegistry(
		handler.NewAccountHandler(handler.AccountDeps{
			Service: accounts, JWT: jwter, Auth: authMW,
			Trusted: mdw.InternalKey(internalKey), Log: log,
		}),
		handler.NewCatalogHandler(catalog, authMW, log),
	))
	admin := NewAdminEngine(log, opt, Limits{}, mdw.AuthJWT(jwter, "admin"),
		NewRegistry(handler.NewAdminHandler(accounts, catalog, log)))
	return &harness{api: api, admin: admin, accounts: accounts, store: st}
}

func call(t *testing.T, e *gin.Engine, method, path string, body any, token string, hdr ...string) envelope {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return env
}

func mustOK(t *testing.T, env envelope, out any) {
	t.Helper()
	if env.Code != 0 {
		t.Fatalf("code = %d msg = %q", env.Code, env.Msg)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func login(t *testing.T, e *gin.Engine, username, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	mustOK(t, call(t, e, http.MethodPost, "/api/v1/auth/login", gin.H{"username": username, "password": password}, ""), &out)
	return out.Token
}

func TestSellerLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.accounts.BootstrapAdmin(ctx, service.AdminInput{
		Username: "root", Email: "root@example.mn", Password: "rootpass", FirstName: "Root", LastName: "Admin",
	}); err != nil {
		t.Fatal(err)
	}
	adminTok := login(t, h.api, "root", "rootpass")

	var reg struct {
		UserID        string `json:"userId"`
		AccountStatus string `json:"accountStatus"`
	}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "gobi", "email": "gobi@example.mn", "password": "secret1", "role": "seller",
	}, ""), &reg)
	if reg.AccountStatus != "pending_verification" {
		t.Fatalf("status = %s", reg.AccountStatus)
	}
	sellerTok := login(t, h.api, "gobi", "secret1")

	product := gin.H{"title": "Silk scarf", "category": "clothing", "price": 40000, "currency": "MNT"}
	if env := call(t, h.api, http.MethodPost, "/api/v1/products", product, sellerTok); env.Code != 403 {
		t.Fatalf("pending seller create: code = %d", env.Code)
	}

	var pending struct {
		Total int `json:"total"`
	}
	mustOK(t, call(t, h.admin, http.MethodGet, "/admin/v1/sellers/pending", nil, adminTok), &pending)
	if pending.Total != 1 {
		t.Fatalf("pending = %d", pending.Total)
	}
	mustOK(t, call(t, h.admin, http.MethodPost, "/admin/v1/sellers/"+reg.UserID+"/verify", nil, adminTok), nil)

	var created struct {
		ProductID string `json:"productId"`
	}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/products", product, sellerTok), &created)

	var list struct {
		Total int `json:"total"`
	}
	mustOK(t, call(t, h.api, http.MethodGet, "/api/v1/products", nil, ""), &list)
	if list.Total != 0 {
		t.Fatalf("draft must not be listed, total = %d", list.Total)
	}
	if env := call(t, h.api, http.MethodGet, "/api/v1/products/"+created.ProductID, nil, ""); env.Code != 404 {
		t.Fatalf("draft detail code = %d", env.Code)
	}

	mustOK(t, call(t, h.api, http.MethodPut, "/api/v1/products/"+created.ProductID, gin.H{"status": "active"}, sellerTok), nil)
	mustOK(t, call(t, h.api, http.MethodGet, "/api/v1/products/search?q=SILK&maxPrice=40000", nil, ""), &list)
	if list.Total != 1 {
		t.Fatalf("search total = %d", list.Total)
	}
	mustOK(t, call(t, h.api, http.MethodGet, "/api/v1/products/category/clothing", nil, ""), &list)
	if list.Total != 1 {
		t.Fatalf("category total = %d", list.Total)
	}

	if env := call(t, h.admin, http.MethodPost, "/admin/v1/products/"+created.ProductID+"/featured", gin.H{"featured": true}, sellerTok); env.Code != 403 {
		t.Fatalf("seller on admin api: code = %d", env.Code)
	}
	mustOK(t, call(t, h.admin, http.MethodPost, "/admin/v1/products/"+created.ProductID+"/featured", gin.H{"featured": true}, adminTok), nil)
	mustOK(t, call(t, h.api, http.MethodGet, "/api/v1/products/featured", nil, ""), &list)
	if list.Total != 1 {
		t.Fatalf("featured total = %d", list.Total)
	}

	// 别人的 token 不能删
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "buyer", "email": "buyer@example.mn", "password": "secret1",
	}, ""), nil)
	buyerTok := login(t, h.api, "buyer", "secret1")
	if env := call(t, h.api, http.MethodDelete, "/api/v1/products/"+created.ProductID, nil, buyerTok); env.Code != 403 {
		t.Fatalf("foreign delete code = %d", env.Code)
	}
	mustOK(t, call(t, h.api, http.MethodDelete, "/api/v1/products/"+created.ProductID, nil, sellerTok), nil)
}

func TestRegisterConflictCarriesField(t *testing.T) {
	h := newHarness(t)
	body := gin.H{"username": "amra", "email": "amra@example.mn", "password": "secret1"}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/register", body, ""), nil)

	body["email"] = "other@example.mn"
	env := call(t, h.api, http.MethodPost, "/api/v1/auth/register", body, "")
	if env.Code != 409 {
		t.Fatalf("code = %d", env.Code)
	}
	var data struct {
		Field string `json:"field"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Field != "username" {
		t.Fatalf("field = %q", data.Field)
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	h := newHarness(t)
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "nara", "email": "nara@example.mn", "password": "secret1",
	}, ""), nil)

	a := call(t, h.api, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "nara", "password": "nope"}, "")
	b := call(t, h.api, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "ghost", "password": "nope"}, "")
	if a.Code != 401 || b.Code != 401 || a.Msg != b.Msg {
		t.Fatalf("a = %+v b = %+v", a, b)
	}
}

func TestMeRequiresToken(t *testing.T) {
	h := newHarness(t)
	if env := call(t, h.api, http.MethodGet, "/api/v1/me", nil, ""); env.Code != 401 {
		t.Fatalf("code = %d", env.Code)
	}
	if env := call(t, h.api, http.MethodGet, "/api/v1/me", nil, "garbage"); env.Code != 401 {
		t.Fatalf("code = %d", env.Code)
	}
}

func TestOAuthAndSessionNeedInternalKey(t *testing.T) {
	h := newHarness(t)
	body := gin.H{"email": "saraa@gmail.com", "firstName": "Saraa", "provider": "google", "providerId": "g-1"}
	if env := call(t, h.api, http.MethodPost, "/api/v1/auth/oauth", body, ""); env.Code != 403 {
		t.Fatalf("without key: code = %d", env.Code)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/oauth", body, "", mdw.HeaderInternalKey, internalKey), &out)
	if out.Token == "" || out.User.Username != "Saraa" {
		t.Fatalf("oauth = %+v", out)
	}

	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/session",
		gin.H{"subject": "sub-9", "name": "Bold Bat", "email": "bold@example.mn"}, "",
		mdw.HeaderInternalKey, internalKey), &out)

	var me struct {
		FirstName   string `json:"firstName"`
		AuthSubject string `json:"authSubject"`
	}
	mustOK(t, call(t, h.api, http.MethodGet, "/api/v1/me", nil, out.Token), &me)
	if me.FirstName != "Bold" || me.AuthSubject != "sub-9" {
		t.Fatalf("me = %+v", me)
	}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/profile", gin.H{"image": "https://cdn/p.png"}, out.Token), nil)
}

func TestOAuthRefusesSuspendedAccount(t *testing.T) {
	h := newHarness(t)
	body := gin.H{"email": "saraa@gmail.com", "firstName": "Saraa", "provider": "google", "providerId": "g-1"}
	var out struct {
		User struct {
			UserID string `json:"userId"`
		} `json:"user"`
	}
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/oauth", body, "", mdw.HeaderInternalKey, internalKey), &out)

	ctx := context.Background()
	u, err := h.store.Users().FindByID(ctx, out.User.UserID)
	if err != nil || u == nil {
		t.Fatalf("FindByID = %v, %v", u, err)
	}
	u.AccountStatus = domain.StatusSuspended
	if err := h.store.Users().Update(ctx, u); err != nil {
		t.Fatal(err)
	}

	env := call(t, h.api, http.MethodPost, "/api/v1/auth/oauth", body, "", mdw.HeaderInternalKey, internalKey)
	if env.Code != 403 || bytes.Contains(env.Data, []byte("token")) {
		t.Fatalf("suspended oauth = %d %s", env.Code, env.Data)
	}
}

func TestPublicUserHidesPrivateFields(t *testing.T) {
	h := newHarness(t)
	mustOK(t, call(t, h.api, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "tuya", "email": "tuya@example.mn", "password": "secret1",
	}, ""), nil)

	env := call(t, h.api, http.MethodGet, "/api/v1/users/tuya", nil, "")
	mustOK(t, env, nil)
	if bytes.Contains(env.Data, []byte("tuya@example.mn")) || bytes.Contains(env.Data, []byte("password")) {
		t.Fatalf("public profile leaks private fields: %s", env.Data)
	}
	if env := call(t, h.api, http.MethodGet, "/api/v1/users/nobody", nil, ""); env.Code != 404 {
		t.Fatalf("code = %d", env.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	for _, e := range []*gin.Engine{h.api, h.admin} {
		for _, p := range []string{"/health", "/metrics"} {
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("%s = %d", p, w.Code)
			}
		}
	}
}
