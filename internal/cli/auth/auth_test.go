package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/drivewise/internal/cli/clitest"
	"github.com/julianstephens/drivewise/internal/models"
)

func TestLoginCmd(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Handle("/user/auth/email/login", models.AuthData{Token: "tok-login"})
	backend.Handle("/service/trip/stats/daily", []models.TripStats{{Date: "2026-10-18", TotalTrips: 4}})
	backend.Handle("/service/trip/stats/monthly", nil)
	backend.Handle("/service/trip/stats/yearly", nil)
	ctx := clitest.NewContext(t, backend, "")

	cmd := &LoginCmd{Email: "driver@example.com", Password: "secret"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("LoginCmd.Run() failed: %v", err)
	}

	token, err := ctx.Tokens().Get()
	if err != nil || token != "tok-login" {
		t.Errorf("stored token = %q, %v", token, err)
	}
	state := ctx.Layer().State()
	if !state.DataCheckCompleted {
		t.Error("login returned before the availability check completed")
	}
	if state.HasEmptyData {
		t.Error("daily trips should count as available data")
	}
	if backend.Hits("/service/trip/stats/daily") != 1 {
		t.Errorf("availability probe hit daily stats %d times, want 1", backend.Hits("/service/trip/stats/daily"))
	}
}

func TestLoginCmdRejected(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Reject("/user/auth/email/login", "Invalid credentials")
	ctx := clitest.NewContext(t, backend, "")

	cmd := &LoginCmd{Email: "driver@example.com", Password: "wrong"}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected login to fail")
	}
	if ctx.Layer().IsAuthenticated() {
		t.Error("rejected login must not authenticate")
	}
	if got := ctx.Layer().State().Error; got != "Invalid credentials" {
		t.Errorf("state error = %q, want backend message", got)
	}
}

func TestRegisterAndVerifyCmd(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Handle("/user/auth/email/verify", nil)
	backend.Handle("/user/auth/email/register", models.AuthData{Token: "tok-new"})
	ctx := clitest.NewContext(t, backend, "")

	if err := (&VerifyCmd{Email: "new@example.com"}).Run(ctx); err != nil {
		t.Fatalf("VerifyCmd.Run() failed: %v", err)
	}
	reg := &RegisterCmd{Name: "Budi", Email: "new@example.com", Password: "secret", Code: "123456"}
	if err := reg.Run(ctx); err != nil {
		t.Fatalf("RegisterCmd.Run() failed: %v", err)
	}
	if token, _ := ctx.Tokens().Get(); token != "tok-new" {
		t.Errorf("stored token = %q, want tok-new", token)
	}
}

func TestLogoutCmd(t *testing.T) {
	ctx := clitest.NewContext(t, clitest.NewBackend(), "tok-old")

	if err := (&LogoutCmd{}).Run(ctx); err != nil {
		t.Fatalf("LogoutCmd.Run() failed: %v", err)
	}
	if token, _ := ctx.Tokens().Get(); token != "" {
		t.Errorf("token after logout = %q", token)
	}
	if ctx.Layer().IsAuthenticated() {
		t.Error("layer still authenticated after logout")
	}
}

func TestRefreshCmd(t *testing.T) {
	t.Run("replaces token", func(t *testing.T) {
		backend := clitest.NewBackend()
		backend.Handle("/user/auth/refresh-token", models.AuthData{Token: "tok-fresh"})
		ctx := clitest.NewContext(t, backend, "tok-stale")

		if err := (&RefreshCmd{}).Run(ctx); err != nil {
			t.Fatalf("RefreshCmd.Run() failed: %v", err)
		}
		if token, _ := ctx.Tokens().Get(); token != "tok-fresh" {
			t.Errorf("stored token = %q, want tok-fresh", token)
		}
	})

	t.Run("requires login", func(t *testing.T) {
		backend := clitest.NewBackend()
		ctx := clitest.NewContext(t, backend, "")
		if err := (&RefreshCmd{}).Run(ctx); err == nil {
			t.Error("expected refresh without a token to fail")
		}
		if backend.Hits("/user/auth/refresh-token") != 0 {
			t.Error("refresh without a token must not reach the backend")
		}
	})
}

func TestStatusCmd(t *testing.T) {
	for _, token := range []string{"", "opaque-token", signed(t, jwt.MapClaims{"sub": "driver-1"})} {
		ctx := clitest.NewContext(t, clitest.NewBackend(), token)
		if err := (&StatusCmd{}).Run(ctx); err != nil {
			t.Errorf("StatusCmd.Run() with token %q failed: %v", token, err)
		}
	}
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		subject string
		expires time.Time
		wantErr bool
	}{
		{
			name:    "subject and expiry",
			token:   signed(t, jwt.MapClaims{"sub": "driver-42", "exp": exp.Unix()}),
			subject: "driver-42",
			expires: exp,
		},
		{
			name:    "email fallback",
			token:   signed(t, jwt.MapClaims{"email": "driver@example.com"}),
			subject: "driver@example.com",
		},
		{
			name:    "no claims",
			token:   signed(t, jwt.MapClaims{"role": "driver"}),
			wantErr: true,
		},
		{
			name:    "not a jwt",
			token:   "plain-token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := InspectToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InspectToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", info.Subject, tt.subject)
			}
			if !info.ExpiresAt.Equal(tt.expires) {
				t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, tt.expires)
			}
		})
	}
}

func TestTokenInfoExpired(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	if (TokenInfo{}).Expired(now) {
		t.Error("a token without expiry never expires")
	}
	if !(TokenInfo{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (TokenInfo{ExpiresAt: now.Add(time.Hour)}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}
