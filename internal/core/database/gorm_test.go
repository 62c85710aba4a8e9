package database

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm/logger"
)

func TestMySQLConfig(t *testing.T) {
	cases := []struct {
		in, user, pass string
		want           []string
	}{
		{
			in:   "jdbc:mysql://127.0.0.1:3306/shop?useSSL=false&serverTimezone=UTC&characterEncoding=utf8",
			user: "root", pass: "pw",
			want: []string{"root:pw@tcp(127.0.0.1:3306)/shop?", "charset=utf8", "parseTime=true"},
		},
		{
			in:   "mysql://app:secret@db:3306/shop",
			want: []string{"app:secret@tcp(db:3306)/shop?", "charset=utf8mb4", "parseTime=true"},
		},
		{
			in:   "app:secret@tcp(db:3306)/shop",
			user: "ops",
			want: []string{"ops:secret@tcp(db:3306)/shop?", "parseTime=true"},
		},
	}
	for _, tc := range cases {
		cfg, err := mysqlConfig(tc.in, tc.user, tc.pass)
		if err != nil {
			t.Fatalf("mysqlConfig(%q): %v", tc.in, err)
		}
		got := cfg.FormatDSN()
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Errorf("mysqlConfig(%q) = %q, missing %q", tc.in, got, w)
			}
		}
	}
}

func TestMySQLConfigBadTimezone(t *testing.T) {
	if _, err := mysqlConfig("mysql://a@db/shop?serverTimezone=Nowhere/Land", "", ""); err == nil {
		t.Fatal("want error for unknown timezone")
	}
}

func TestMaskedDSN(t *testing.T) {
	cfg, err := mysqlConfig("mysql://app:secret@db:3306/shop", "", "")
	if err != nil {
		t.Fatal(err)
	}
	got := maskedDSN(cfg)
	if strings.Contains(got, "secret") || !strings.Contains(got, "app:****@") {
		t.Fatalf("masked = %q", got)
	}
	if cfg.Passwd != "secret" {
		t.Fatal("masking must not touch the original config")
	}
}

func TestGormLevel(t *testing.T) {
	if gormLevel("INFO") != logger.Info || gormLevel("") != logger.Warn || gormLevel("silent") != logger.Silent {
		t.Fatal("unexpected level mapping")
	}
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "sqlite"})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("err = %v", err)
	}
}
