package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/drivewise/internal/cli"
)

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := ctx.Layer().Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("✓ Logged out")
	return nil
}

type RefreshCmd struct{}

func (c *RefreshCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	if err := ctx.Layer().RefreshToken(context.Background()); err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	fmt.Println("✓ Token refreshed")
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	fmt.Printf("Backend:     %s\n", ctx.APIBaseURL())
	fmt.Printf("Token store: %s\n", ctx.TokenStore)

	token, err := ctx.Tokens().Get()
	if err != nil || token == "" {
		fmt.Println("Status:      logged out")
		return nil
	}
	fmt.Println("Status:      logged in")

	info, err := InspectToken(token)
	if err != nil {
		fmt.Println("Token:       opaque")
		return nil
	}
	if info.Subject != "" {
		fmt.Printf("Subject:     %s\n", info.Subject)
	}
	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired, run 'refresh' or 'login'"
		}
		fmt.Printf("Expires:     %s (%s)\n", info.ExpiresAt.Local().Format(time.RFC1123), state)
	}
	return nil
}

// TokenInfo is the display subset of a token's claims.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InspectToken reads the claims of a JWT without verifying its signature.
// The backend remains the only authority on validity.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a JWT: %w", err)
	}

	var info TokenInfo
	sub, err := claims.GetSubject()
	if err != nil {
		return TokenInfo{}, err
	}
	info.Subject = sub
	if info.Subject == "" {
		if email, ok := claims["email"].(string); ok {
			info.Subject = email
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, err
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	if info.Subject == "" && info.ExpiresAt.IsZero() {
		return TokenInfo{}, errors.New("token carries no displayable claims")
	}
	return info, nil
}
