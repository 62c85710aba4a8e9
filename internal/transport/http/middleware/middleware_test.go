package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mongol-shop/internal/core/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func envCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var env struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env.Code
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func okHandler(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) }

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, time.Minute))
	r.GET("/x", okHandler)

	req := func(ip string) *http.Request {
		q := httptest.NewRequest(http.MethodGet, "/x", nil)
		q.RemoteAddr = ip + ":1234"
		return q
	}
	for i := 0; i < 2; i++ {
		if c := envCode(t, serve(r, req("10.0.0.1"))); c != 0 {
			t.Fatalf("request %d: code = %d", i, c)
		}
	}
	if c := envCode(t, serve(r, req("10.0.0.1"))); c != 429 {
		t.Fatalf("third request: code = %d, want 429", c)
	}
	if c := envCode(t, serve(r, req("10.0.0.2"))); c != 0 {
		t.Fatalf("other ip: code = %d", c)
	}
}

func TestInternalKey(t *testing.T) {
	r := gin.New()
	r.POST("/x", InternalKey("k"), okHandler)

	if c := envCode(t, serve(r, httptest.NewRequest(http.MethodPost, "/x", nil))); c != 403 {
		t.Fatalf("missing key: code = %d", c)
	}
	q := httptest.NewRequest(http.MethodPost, "/x", nil)
	q.Header.Set(HeaderInternalKey, "k")
	if c := envCode(t, serve(r, q)); c != 0 {
		t.Fatalf("right key: code = %d", c)
	}

	open := gin.New()
	open.POST("/x", InternalKey(""), okHandler)
	if c := envCode(t, serve(open, httptest.NewRequest(http.MethodPost, "/x", nil))); c != 0 {
		t.Fatalf("empty key config: code = %d", c)
	}
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("s"), Issuer: "i", TTL: time.Hour}
	r := gin.New()
	r.GET("/admin", AuthJWT(j, "admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "uid": c.GetString(KeyUserID), "sub": c.GetString(KeySubject)})
	})

	call := func(tok string) *httptest.ResponseRecorder {
		q := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tok != "" {
			q.Header.Set("Authorization", "Bearer "+tok)
		}
		return serve(r, q)
	}
	if c := envCode(t, call("")); c != 401 {
		t.Fatalf("no token: code = %d", c)
	}
	seller, _ := j.Issue("u1", "seller", "")
	if c := envCode(t, call(seller)); c != 403 {
		t.Fatalf("wrong role: code = %d", c)
	}
	admin, _ := j.Issue("u2", "admin", "sub-2")
	w := call(admin)
	var out struct {
		Code int    `json:"code"`
		UID  string `json:"uid"`
		Sub  string `json:"sub"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Code != 0 || out.UID != "u2" || out.Sub != "sub-2" {
		t.Fatalf("out = %+v", out)
	}
}

func TestRequestIDEchoes(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", okHandler)

	q := httptest.NewRequest(http.MethodGet, "/x", nil)
	q.Header.Set(KeyRequestID, "abc")
	if got := serve(r, q).Header().Get(KeyRequestID); got != "abc" {
		t.Fatalf("rid = %q", got)
	}
	if got := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Header().Get(KeyRequestID); got == "" {
		t.Fatal("rid not generated")
	}
}
