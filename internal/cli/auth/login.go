package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/tui/forms"
)

// availabilityWait bounds how long login waits for the data check.
const availabilityWait = 10 * time.Second

type LoginCmd struct {
	Email    string `help:"Account email. Prompted when omitted."`
	Password string `help:"Account password. Prompted when omitted." env:"DRIVEWISE_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if c.Email == "" || c.Password == "" {
		fm := &forms.LoginFormModel{Email: c.Email}
		if err := forms.NewLoginForm(fm).Run(); err != nil {
			return err
		}
		c.Email, c.Password = strings.TrimSpace(fm.Email), fm.Password
	}

	layer := ctx.Layer()
	if err := layer.Login(context.Background(), c.Email, c.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("✓ Logged in as %s\n", c.Email)

	waitCtx, cancel := context.WithTimeout(context.Background(), availabilityWait)
	defer cancel()
	state, err := layer.AwaitDataCheck(waitCtx)
	if err != nil {
		return nil
	}
	printAvailability(state.HasEmptyData)
	return nil
}

type RegisterCmd struct {
	Name     string `help:"Display name." required:""`
	Email    string `help:"Account email." required:""`
	Password string `help:"Account password." env:"DRIVEWISE_PASSWORD" required:""`
	Code     string `help:"Verification code sent by 'verify'."`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	req := models.RegisterRequest{
		Name:     c.Name,
		Email:    c.Email,
		Password: c.Password,
		Code:     c.Code,
	}
	if err := ctx.Layer().Register(context.Background(), req); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("✓ Registered and logged in as %s\n", c.Email)
	return nil
}

type VerifyCmd struct {
	Email string `arg:"" help:"Email address to verify."`
}

func (c *VerifyCmd) Run(ctx *cli.Context) error {
	if err := ctx.Layer().VerifyEmail(context.Background(), c.Email); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	fmt.Printf("✓ Verification code sent to %s\n", c.Email)
	fmt.Printf("  Finish with '%s register --email %s --code <code>'\n", constants.AppName, c.Email)
	return nil
}

func printAvailability(empty bool) {
	if empty {
		fmt.Println("ℹ No trips or wellness logs yet.")
		fmt.Printf("  Record a wellness check with '%s wellness log' or complete a trip to see statistics.\n", constants.AppName)
		return
	}
	fmt.Printf("✓ Your data is ready. Try '%s stats daily'.\n", constants.AppName)
}
