package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
)

type CreateAccountRequest struct {
	Email    string       `json:"email"`
	Name     string       `json:"name"`
	BaseTier catalog.Tier `json:"base_tier"`
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	Get(ctx context.Context, id snowflake.ID) (Account, error)
}

var (
	ErrAccountNotFound = errors.New("account_not_found")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidTier     = errors.New("invalid_tier")
	ErrEmailTaken      = errors.New("email_taken")
)
