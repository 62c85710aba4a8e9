package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// KeyCode 写入 gin.Context 的业务码，metrics / accesslog 读取
const KeyCode = "bizCode"

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// FieldError 校验/冲突类错误带上出错字段，便于前端定位
func FieldError(code int, msg, field string) Resp {
	r := Error(code, msg)
	if field != "" {
		r.Data = map[string]string{"field": field}
	}
	return r
}

// Write HTTP 状态恒为 200，业务结果看 body.code
func Write(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.JSON(http.StatusOK, r)
}

// Abort 中间件拦截时用，后续 handler 不再执行
func Abort(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.AbortWithStatusJSON(http.StatusOK, r)
}
