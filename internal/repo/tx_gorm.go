package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"mongol-shop/internal/domain"
)

type txKey struct{}

// TxManager 把 gorm 事务放进 context，仓储通过 conn 取出
type TxManager struct{ db *gorm.DB }

func NewTxManager(db *gorm.DB) *TxManager { return &TxManager{db: db} }

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// 唯一索引名 → 冲突字段
var uniqueIndexField = map[string]string{
	"idx_users_username":     "username",
	"idx_users_provider":     "provider",
	"idx_users_auth_subject": "authSubject",
}

// dupField 把唯一约束冲突翻译成字段名；不是冲突返回 ""。
// postgres 直接带约束名；mysql 1062 只在消息里给出 key 名（可能带表名前缀）。
func dupField(err error) string {
	var index string
	var pgErr *pgconn.PgError
	var myErr *mysql.MySQLError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		index = pgErr.ConstraintName
	case errors.As(err, &myErr) && myErr.Number == mysqlDupEntry:
		index = mysqlKeyName(myErr.Message)
	default:
		return ""
	}
	if f, ok := uniqueIndexField[index]; ok {
		return f
	}
	return "id"
}

const (
	pgUniqueViolation = "23505"
	mysqlDupEntry     = 1062
)

// mysqlKeyName 从 "Duplicate entry 'x' for key 'users.idx_users_username'" 中取出索引名
func mysqlKeyName(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndexByte(key, '.'); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if f := dupField(err); f != "" {
		return domain.Conflict(f, f+" already exists")
	}
	return err
}
