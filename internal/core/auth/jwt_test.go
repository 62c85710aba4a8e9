package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "mongol-shop", TTL: time.Hour}
	tok, err := j.Issue("u1", "seller", "sub-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := j.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.UID != "u1" || c.Role != "seller" || c.Subject != "sub-1" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParseRejects(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "mongol-shop", TTL: time.Hour}
	tok, _ := j.Issue("u1", "customer", "")

	other := &JWTer{Secret: []byte("other"), Issuer: "mongol-shop", TTL: time.Hour}
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
	wrongIss := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Hour}
	if _, err := wrongIss.Parse(tok); err == nil {
		t.Fatal("issuer mismatch must be rejected")
	}
	expired := &JWTer{Secret: []byte("test-secret"), Issuer: "mongol-shop", TTL: -time.Hour}
	old, _ := expired.Issue("u1", "customer", "")
	if _, err := j.Parse(old); err == nil {
		t.Fatal("expired token must be rejected")
	}
	if _, err := j.Issue("", "customer", ""); err == nil {
		t.Fatal("empty uid must not be issued")
	}
}

func TestParseDistinguishesExpiry(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "mongol-shop", TTL: -time.Hour}
	old, _ := j.Issue("u1", "customer", "")
	if _, err := j.Parse(old); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
	if _, err := j.Parse("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestIssueSetsUniqueID(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "mongol-shop", TTL: time.Hour}
	a, _ := j.Issue("u1", "customer", "")
	b, _ := j.Issue("u1", "customer", "")
	ca, _ := j.Parse(a)
	cb, _ := j.Parse(b)
	if ca.ID == "" || ca.ID == cb.ID {
		t.Fatalf("ids = %q %q", ca.ID, cb.ID)
	}
}
