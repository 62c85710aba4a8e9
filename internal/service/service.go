package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mongol-shop/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里用 json 字段名，和请求体对得上
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// bcrypt 只看前 72 字节，按字节而不是字符限制
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})
	return v
}

const bcryptMaxBytes = 72

// validateInput reports the first failing field as a validation *domain.Error.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return domain.Validation(fe.Field(), describe(fe))
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "bcryptmax":
		return "must be at most 72 bytes"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// requireAdmin 后台操作的调用方必须是 active 的 admin
func requireAdmin(ctx context.Context, users domain.UserRepository, callerID string) (*domain.User, error) {
	if callerID == "" {
		return nil, domain.RoleDenied("admin privileges required")
	}
	caller, err := users.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if caller == nil || caller.Role != domain.RoleAdmin {
		return nil, domain.RoleDenied("admin privileges required")
	}
	if caller.EffectiveStatus() != domain.StatusActive {
		return nil, domain.Inactive("admin account is not active")
	}
	return caller, nil
}
