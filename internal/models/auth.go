package models

import "fmt"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"` // verification code sent to the email
}

// AuthData is the payload of login, register and refresh responses.
type AuthData struct {
	Token string `json:"token"`
}

func (a AuthData) Validate() error {
	if a.Token == "" {
		return fmt.Errorf("response did not include a token")
	}
	return nil
}
