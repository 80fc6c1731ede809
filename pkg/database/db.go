package database

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB   *gorm.DB
	once sync.Once
)

// Options holds the Postgres connection settings.
type Options struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	Debug    bool
}

func (o Options) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		o.Host, o.User, o.Password, o.Name, o.Port, sslMode,
	)
}

// Connect opens the shared connection once. Unique-constraint violations are
// left untranslated so repositories can read the constraint name.
func Connect(opts Options) *gorm.DB {
	once.Do(func() {
		logLevel := logger.Warn
		if opts.Debug {
			logLevel = logger.Info
		}

		db, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}

		DB = db
	})

	return DB
}
