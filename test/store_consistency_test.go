//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
)

func TestStoreConsistencyLoginLifecycle(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			store := b.open(t)
			engine := newEngine(t, store)

			mustRegister(t, engine, "alice", "secret1")
			sess, err := engine.Login(ctx, goAdmin.LoginForm{Username: "alice", Password: "secret1", Remember: true})
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if !sess.IsAuthenticated() {
				t.Fatal("expected authenticated session")
			}
			if !engine.CheckLogin(ctx) {
				t.Fatal("expected CheckLogin true after login")
			}

			token, err := store.Get(ctx, session.KeyToken)
			if err != nil || token != sess.Token {
				t.Fatalf("stored token mismatch: %q err=%v", token, err)
			}

			if err := engine.Logout(ctx); err != nil {
				t.Fatalf("Logout failed: %v", err)
			}
			for _, key := range []string{session.KeyToken, session.KeyUserInfo, session.KeyRememberedUser} {
				if _, err := store.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
					t.Fatalf("expected %s removed, got err=%v", key, err)
				}
			}
			if engine.CheckLogin(ctx) {
				t.Fatal("expected CheckLogin false after logout")
			}
		})
	}
}

func TestStoreConsistencySessionSurvivesRestart(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			store := b.open(t)

			first := newEngine(t, store)
			mustRegister(t, first, "bob", "secret1")
			if _, err := first.Login(ctx, goAdmin.LoginForm{Username: "bob", Password: "secret1"}); err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			first.Close()

			second := newEngine(t, store)
			if err := second.Hydrate(ctx); err != nil {
				t.Fatalf("Hydrate failed: %v", err)
			}
			if got := second.Session().UserInfo.Username; got != "bob" {
				t.Fatalf("expected hydrated username bob, got %q", got)
			}
			if !second.CheckLogin(ctx) {
				t.Fatal("expected restored session to pass CheckLogin")
			}
		})
	}
}

func TestStoreConsistencyCorruptProfileClears(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			store := b.open(t)
			engine := newEngine(t, store)

			if err := store.Set(ctx, session.KeyToken, "tok"); err != nil {
				t.Fatalf("seed token: %v", err)
			}
			if err := store.Set(ctx, session.KeyUserInfo, "{not json"); err != nil {
				t.Fatalf("seed profile: %v", err)
			}

			ok, err := engine.CheckLoginWithReason(ctx)
			if ok || !errors.Is(err, goAdmin.ErrProfileParseFailure) {
				t.Fatalf("expected ErrProfileParseFailure, got ok=%v err=%v", ok, err)
			}
			if _, err := store.Get(ctx, session.KeyToken); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("expected token cleared, got err=%v", err)
			}
		})
	}
}

func TestStoreConsistencyConcurrentRegister(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			engine := newEngine(t, b.open(t))

			const workers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
				dupes     int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := engine.Register(ctx, goAdmin.RegisterForm{Username: "carol", Password: "secret1"})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, goAdmin.ErrUsernameExists):
						dupes++
					default:
						t.Errorf("unexpected Register error: %v", err)
					}
				}()
			}
			wg.Wait()

			if succeeded != 1 || dupes != workers-1 {
				t.Fatalf("expected 1 success and %d duplicates, got %d/%d", workers-1, succeeded, dupes)
			}
			users, err := engine.Users(ctx)
			if err != nil {
				t.Fatalf("Users failed: %v", err)
			}
			if len(users) != 1 {
				t.Fatalf("expected one user record, got %d", len(users))
			}
		})
	}
}

func TestStoreConsistencyPasswordChange(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			engine := newEngine(t, b.open(t))

			mustRegister(t, engine, "dave", "secret1")
			if _, err := engine.Login(ctx, goAdmin.LoginForm{Username: "dave", Password: "secret1"}); err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			err := engine.UpdatePassword(ctx, goAdmin.PasswordForm{OldPassword: "nope-nope", NewPassword: "secret2"})
			if !errors.Is(err, goAdmin.ErrWrongOldPassword) {
				t.Fatalf("expected ErrWrongOldPassword, got %v", err)
			}
			if err := engine.UpdatePassword(ctx, goAdmin.PasswordForm{OldPassword: "secret1", NewPassword: "secret2"}); err != nil {
				t.Fatalf("UpdatePassword failed: %v", err)
			}

			if _, err := engine.Login(ctx, goAdmin.LoginForm{Username: "dave", Password: "secret1"}); !errors.Is(err, goAdmin.ErrInvalidCredentials) {
				t.Fatalf("expected old password rejected, got %v", err)
			}
			if _, err := engine.Login(ctx, goAdmin.LoginForm{Username: "dave", Password: "secret2"}); err != nil {
				t.Fatalf("Login with new password failed: %v", err)
			}
		})
	}
}
