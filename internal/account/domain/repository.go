package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)
	ListCreatedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]Account, error)
	Update(ctx context.Context, db *gorm.DB, account *Account) error
}
