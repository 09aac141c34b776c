package service

import (
	"context"
	"errors"
	"testing"

	"invoicedesk/internal/auth"
)

func TestSignUpAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.users.SignUp(ctx, SignUpRequest{Email: " Owner@Example.com ", Password: "another"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate sign up: %v", err)
	}

	res, err := env.users.Login(ctx, LoginUserRequest{Email: "OWNER@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.User.ID != env.owner || res.Token == "" || res.RefreshToken == "" || res.ExpiresIn != 3600 {
		t.Errorf("login = %+v", res)
	}

	if _, err := env.users.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := env.users.Login(ctx, LoginUserRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: %v", err)
	}

	me, err := env.users.GetUserByID(ctx, env.owner)
	if err != nil || me.Email != "owner@example.com" {
		t.Errorf("me = %+v, %v", me, err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	login, err := env.users.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := env.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh token not rotated")
	}
	if _, err := env.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken}); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("reused token: %v", err)
	}

	if err := env.users.Logout(ctx, refreshed.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, err := env.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: refreshed.RefreshToken}); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("token after logout: %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.users.RequestPasswordReset(ctx, PasswordResetRequest{Email: "nobody@example.com"}); err != nil {
		t.Fatalf("unknown email must succeed silently: %v", err)
	}
	if err := env.users.RequestPasswordReset(ctx, PasswordResetRequest{Email: "owner@example.com"}); err != nil {
		t.Fatal(err)
	}

	entries := env.logs.FilterMessage("Password reset requested").All()
	if len(entries) != 1 {
		t.Fatalf("reset log entries = %d", len(entries))
	}
	token, _ := entries[0].ContextMap()["reset_token"].(string)
	if token == "" {
		t.Fatal("reset token not logged")
	}

	if err := env.users.ResetPassword(ctx, ConfirmPasswordResetRequest{Token: "bogus", Password: "newpass"}); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("bogus token: %v", err)
	}
	if err := env.users.ResetPassword(ctx, ConfirmPasswordResetRequest{Token: token, Password: "newpass"}); err != nil {
		t.Fatal(err)
	}
	if err := env.users.ResetPassword(ctx, ConfirmPasswordResetRequest{Token: token, Password: "again1"}); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("token reused: %v", err)
	}

	if _, err := env.users.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := env.users.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "newpass"}); err != nil {
		t.Errorf("new password: %v", err)
	}
}
