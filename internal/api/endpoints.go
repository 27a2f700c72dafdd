package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/models"
)

const (
	pathVerifyEmail  = "/user/auth/email/verify"
	pathRegister     = "/user/auth/email/register"
	pathLogin        = "/user/auth/email/login"
	pathRefreshToken = "/user/auth/refresh-token"
	pathTripStats    = "/service/trip/stats/"
	pathFinTips      = "/service/llm/fin_tips"
	pathWellness     = "/service/llm/wellness"
	pathInvest       = "/service/llm/invest"
	pathChatCreate   = "/service/chat/create"
	pathChatList     = "/service/chat/list"
	pathChatReply    = "/service/chat/reply"
)

// VerifyEmail asks the backend to send a verification code.
func (c *Client) VerifyEmail(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, pathVerifyEmail, false, models.VerifyEmailRequest{Email: email}, nil)
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.AuthData, error) {
	var out models.AuthData
	err := c.call(ctx, http.MethodPost, pathRegister, false, req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (models.AuthData, error) {
	var out models.AuthData
	err := c.call(ctx, http.MethodPost, pathLogin, false, models.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (c *Client) RefreshToken(ctx context.Context) (models.AuthData, error) {
	var out models.AuthData
	err := c.call(ctx, http.MethodGet, pathRefreshToken, true, nil, &out)
	return out, err
}

// TripStats fetches the statistics rows for one period. A null payload is an
// empty result.
func (c *Client) TripStats(ctx context.Context, period models.Period) ([]models.TripStats, error) {
	if _, err := models.ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	path := pathTripStats + string(period)

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, true, nil, &raw); err != nil {
		return nil, err
	}
	stats := []models.TripStats{}
	if len(raw) == 0 || string(raw) == "null" {
		return stats, nil
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("GET %s: %w: %v", path, apperrors.ErrMalformedResponse, err)
	}
	for _, row := range stats {
		if err := row.Validate(period); err != nil {
			return nil, fmt.Errorf("GET %s: %w: %v", path, apperrors.ErrMalformedResponse, err)
		}
	}
	return stats, nil
}

func (c *Client) FinancialTips(ctx context.Context, req models.AdviceRequest) (models.FinancialAdvice, error) {
	var out models.FinancialAdvice
	err := c.call(ctx, http.MethodPost, pathFinTips, true, req, &out)
	return out, err
}

func (c *Client) WellnessAdvice(ctx context.Context, req models.WellnessRequest) (models.WellnessAdvice, error) {
	var out models.WellnessAdvice
	err := c.call(ctx, http.MethodPost, pathWellness, true, req, &out)
	return out, err
}

func (c *Client) InvestmentAdvice(ctx context.Context, req models.AdviceRequest) (models.InvestmentAdvice, error) {
	var out models.InvestmentAdvice
	err := c.call(ctx, http.MethodPost, pathInvest, true, req, &out)
	return out, err
}

// CreateChat opens a chat with its first message. The response field may be
// empty; callers decide how to answer in that case.
func (c *Client) CreateChat(ctx context.Context, message string) (models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.call(ctx, http.MethodPost, pathChatCreate, true, models.CreateChatRequest{Message: message}, &out)
	return out, err
}

func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, pathChatList, true, nil, &raw); err != nil {
		return nil, err
	}
	chats := []models.Chat{}
	if len(raw) == 0 || string(raw) == "null" {
		return chats, nil
	}
	if err := json.Unmarshal(raw, &chats); err != nil {
		return nil, fmt.Errorf("GET %s: %w: %v", pathChatList, apperrors.ErrMalformedResponse, err)
	}
	for _, chat := range chats {
		if err := chat.Validate(); err != nil {
			return nil, fmt.Errorf("GET %s: %w: %v", pathChatList, apperrors.ErrMalformedResponse, err)
		}
	}
	return chats, nil
}

func (c *Client) ReplyChat(ctx context.Context, chatID, message string) (models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.call(ctx, http.MethodPut, pathChatReply, true, models.ReplyChatRequest{ChatID: chatID, Message: message}, &out)
	return out, err
}
