package bootstrap

import (
	"context"

	"anoa.com/campusfeedback/internal/entity"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.RatingCategory{},
		&entity.Feedback{},
		&entity.Rating{},
		&entity.Flag{},
		&entity.Like{},
		&entity.Comment{},
		&entity.Notification{},
	)
}

// AdminSeeder creates the first admin account when none exists.
type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, email, password, name string) (bool, error)
}

func SeedAdminUser(ctx context.Context, seeder AdminSeeder, email, password, name string) error {
	created, err := seeder.EnsureAdmin(ctx, email, password, name)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", email).Msg("bootstrap admin account created")
	}
	return nil
}
