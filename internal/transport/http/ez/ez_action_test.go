package ez

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mongol-shop/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func TestCodeOf(t *testing.T) {
	cases := map[domain.Kind]int{
		domain.KindValidation:      400,
		domain.KindAuth:            401,
		domain.KindRole:            403,
		domain.KindOwnership:       403,
		domain.KindInactiveAccount: 403,
		domain.KindSuspended:       403,
		domain.KindNotFound:        404,
		domain.KindConflict:        409,
		"":                         500,
	}
	for k, want := range cases {
		if got := CodeOf(k); got != want {
			t.Errorf("CodeOf(%q) = %d, want %d", k, got, want)
		}
	}
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func TestRegisterAction(t *testing.T) {
	r := gin.New()
	e := New(r.Group(""), nil)
	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Handler: func(c *gin.Context, in *echoIn) (gin.H, error) {
			switch in.Name {
			case "dup":
				return nil, domain.Conflict("name", "name already exists")
			case "boom":
				return nil, errors.New("pq: connection refused")
			}
			return gin.H{"hello": in.Name}, nil
		},
	})
	RegisterAction(e, Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/private",
		Binder:  BindNone,
		Auth:    true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) { return gin.H{}, nil },
	})

	do := func(method, path, body string) (int, string, string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		var env struct {
			Code int             `json:"code"`
			Msg  string          `json:"msg"`
			Data json.RawMessage `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		return env.Code, env.Msg, string(env.Data)
	}

	if code, _, data := do(http.MethodPost, "/echo", `{"name":"bat"}`); code != 0 || !strings.Contains(data, "bat") {
		t.Fatalf("ok: %d %s", code, data)
	}
	if code, _, _ := do(http.MethodPost, "/echo", `{}`); code != 400 {
		t.Fatalf("bind: %d", code)
	}
	if code, _, data := do(http.MethodPost, "/echo", `{"name":"dup"}`); code != 409 || !strings.Contains(data, `"field":"name"`) {
		t.Fatalf("conflict: %d %s", code, data)
	}
	code, msg, _ := do(http.MethodPost, "/echo", `{"name":"boom"}`)
	if code != 500 || strings.Contains(msg, "pq") {
		t.Fatalf("internal: %d %q", code, msg)
	}
	if code, _, _ := do(http.MethodGet, "/private", ""); code != 401 {
		t.Fatalf("auth: %d", code)
	}
}

func TestRegisterActionRoles(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "u1")
		c.Set("role", c.GetHeader("X-Role"))
	})
	RegisterAction(New(r.Group(""), nil), Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/staff",
		Binder:  BindNone,
		Auth:    true,
		Roles:   []string{"admin"},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) { return gin.H{"uid": UserID(c)}, nil },
	})
	for role, want := range map[string]int{"admin": 0, "seller": 403} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/staff", nil)
		req.Header.Set("X-Role", role)
		r.ServeHTTP(w, req)
		var env struct {
			Code int `json:"code"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		if env.Code != want {
			t.Errorf("role %s: code = %d, want %d", role, env.Code, want)
		}
	}
}
