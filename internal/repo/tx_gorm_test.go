package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"mongol-shop/internal/domain"
)

func TestTranslateDuplicateKey(t *testing.T) {
	cases := []struct {
		err   error
		field string
	}{
		{&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"}, "username"},
		{&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_auth_subject"}, "authSubject"},
		{&pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}, "id"},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'google-1' for key 'users.idx_users_provider'"}, "provider"},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'bat' for key 'idx_users_username'"}, "username"},
		// gorm 包一层后仍能识别
		{fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_provider"}), "provider"},
	}
	for _, tc := range cases {
		err := translate(tc.err)
		var de *domain.Error
		if !errors.As(err, &de) || de.Kind != domain.KindConflict || de.Field != tc.field {
			t.Errorf("translate(%v) = %v, want conflict on %s", tc.err, err, tc.field)
		}
	}
}

func TestTranslateLeavesOtherErrors(t *testing.T) {
	for _, err := range []error{
		errors.New("duplicate key value violates unique constraint \"idx_users_username\""),
		&pgconn.PgError{Code: "23503", ConstraintName: "fk_products_seller"},
		&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"},
	} {
		if got := translate(err); got != err {
			t.Errorf("translate(%v) rewritten to %v", err, got)
		}
	}
	if translate(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
