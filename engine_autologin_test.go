package goAdmin

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goAdmin/session"
)

func TestAutoLoginWithoutRememberedCredential(t *testing.T) {
	engine, _ := newMemoryEngine(t, nil)

	_, err := engine.AutoLogin(context.Background())
	if !errors.Is(err, ErrNoRememberedSession) {
		t.Fatalf("expected ErrNoRememberedSession, got %v", err)
	}
}

func TestAutoLoginReplaysCredential(t *testing.T) {
	engine, store := newMemoryEngine(t, nil)
	ctx := context.Background()

	if _, err := engine.Login(ctx, LoginForm{Username: "a", Password: "x", Remember: true}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := store.Remove(ctx, session.KeyToken, session.KeyUserInfo); err != nil {
		t.Fatalf("drop session: %v", err)
	}

	sess, err := engine.AutoLogin(ctx)
	if err != nil {
		t.Fatalf("AutoLogin failed: %v", err)
	}
	if sess.UserInfo.Username != "a" {
		t.Fatalf("expected user a, got %+v", sess.UserInfo)
	}
	if !engine.CheckLogin(ctx) {
		t.Fatal("expected session restored")
	}
	if raw := mustGet(t, store, session.KeyRememberedUser); raw != `{"username":"a","password":"x"}` {
		t.Fatalf("expected remembered credential kept, got %s", raw)
	}
	if got := engine.MetricsSnapshot().Counters[MetricAutoLoginSuccess]; got != 1 {
		t.Fatalf("expected auto-login success counter 1, got %d", got)
	}
}

func TestAutoLoginFailureForgetsCredential(t *testing.T) {
	engine, store := newMemoryEngine(t, func(cfg *Config) {
		cfg.Login.VerifyCredentials = true
	})
	ctx := context.Background()

	if err := engine.Register(ctx, RegisterForm{Username: "a", Password: "right-pass"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := store.Set(ctx, session.KeyRememberedUser, `{"username":"a","password":"stale-pass"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := engine.AutoLogin(ctx)
	if !errors.Is(err, ErrAutoLoginFailed) {
		t.Fatalf("expected ErrAutoLoginFailed, got %v", err)
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
	assertAbsent(t, store, session.KeyRememberedUser)
	if got := engine.MetricsSnapshot().Counters[MetricAutoLoginFailure]; got != 1 {
		t.Fatalf("expected auto-login failure counter 1, got %d", got)
	}
}

func TestAutoLoginCorruptCredential(t *testing.T) {
	engine, store := newMemoryEngine(t, nil)
	ctx := context.Background()

	if err := store.Set(ctx, session.KeyRememberedUser, "{oops"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := engine.AutoLogin(ctx)
	if !errors.Is(err, ErrAutoLoginFailed) || !errors.Is(err, session.ErrRememberedCorrupt) {
		t.Fatalf("expected ErrAutoLoginFailed wrapping ErrRememberedCorrupt, got %v", err)
	}
	assertAbsent(t, store, session.KeyRememberedUser)
}
