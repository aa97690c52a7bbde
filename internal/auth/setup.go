package auth

import (
	"log"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/db"
)

// Init creates the auth schema and migrates the users table. Sessions are
// process-held and need no table.
func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
