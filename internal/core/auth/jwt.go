package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"
)

var (
	ErrEmptyUID     = errors.New("auth: empty uid")
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Claims.Subject 放外部认证主体（经 /auth/session 同步的账号才有）
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"` // customer / seller / admin
	jwt.RegisteredClaims
}

// JWTer HS256 签发/校验；两个进程共用同一 Secret 和 Issuer
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

const leeway = time.Minute

func (j *JWTer) Issue(uid, role, subject string) (string, error) {
	if uid == "" {
		return "", ErrEmptyUID
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ksuid.New().String(),
			Subject:   subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}).SignedString(j.Secret)
}

// Parse 过期返回 ErrTokenExpired，其它失败一律 ErrTokenInvalid
func (j *JWTer) Parse(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return j.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	case c.UID == "":
		return nil, ErrTokenInvalid
	}
	return &c, nil
}
