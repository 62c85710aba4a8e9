package ez

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mongol-shop/internal/domain"
	mdw "mongol-shop/internal/transport/http/middleware"
	resp "mongol-shop/internal/transport/http/response"
)

var actionErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{Namespace: "shop", Name: "action_errors_total", Help: "Business errors returned by actions"},
	[]string{"route", "code"},
)

func init() { prometheus.MustRegister(actionErrors) }

// EZ 包一层 RouterGroup，动作都挂在它上面
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 传输层自己的错误（参数缺失、未登录等），直接带 code
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func Forbidden(msg string) error { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/auth/login"、"/products/:id"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			if UserID(c) == "" {
				resp.Write(c, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(mdw.KeyRole)) {
				resp.Write(c, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			msg := bindErr.Error()
			var tooBig *http.MaxBytesError
			if errors.As(bindErr, &tooBig) {
				msg = "request body too large"
			}
			resp.Write(c, resp.Error(resp.CodeBadRequest, msg))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			r := e.toResp(c, err)
			actionErrors.WithLabelValues(c.FullPath(), strconv.Itoa(r.Code)).Inc()
			resp.Write(c, r)
			return
		}
		resp.Write(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// CodeOf maps a domain error kind to an envelope code.
func CodeOf(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return resp.CodeBadRequest
	case domain.KindAuth:
		return resp.CodeUnauthorized
	case domain.KindRole, domain.KindOwnership, domain.KindInactiveAccount, domain.KindSuspended:
		return resp.CodeForbidden
	case domain.KindNotFound:
		return resp.CodeNotFound
	case domain.KindConflict:
		return resp.CodeConflict
	}
	return resp.CodeServerError
}

func (e EZ) toResp(c *gin.Context, err error) resp.Resp {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= resp.CodeServerError {
			e.log.Error("action failed", zap.String("path", c.FullPath()), zap.String("rid", c.GetString(mdw.KeyRequestID)), zap.Error(err))
		}
		return resp.Error(ae.Code, ae.Error())
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return resp.FieldError(CodeOf(de.Kind), de.Msg, de.Field)
	}
	// 存储等未知错误不把细节暴露给调用方
	e.log.Error("action failed", zap.String("path", c.FullPath()), zap.String("rid", c.GetString(mdw.KeyRequestID)), zap.Error(err))
	return resp.Error(resp.CodeServerError, "internal error")
}

// UserID 当前登录用户 id（AuthJWT 写入）
func UserID(c *gin.Context) string { return c.GetString(mdw.KeyUserID) }

func Subject(c *gin.Context) string { return c.GetString(mdw.KeySubject) }
