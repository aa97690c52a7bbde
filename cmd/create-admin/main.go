// Command create-admin creates the initial admin account directly against
// the database, for deployments where the web bootstrap flow is disabled.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/auth"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/db"
	"github.com/joho/godotenv"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	flag.Parse()

	password := os.Getenv("ADMIN_PASSWORD")
	if *username == "" || *email == "" || password == "" {
		log.Fatal("usage: create-admin -username NAME -email ADDR (password via ADMIN_PASSWORD)")
	}

	_ = godotenv.Load(".env.local")
	db.Connect(os.Getenv("DATABASE_URL"), false)
	auth.Init()

	sessions := auth.NewSessionStore(time.Hour, 24*time.Hour)
	service := auth.NewService(auth.NewGormUserStore(db.DB), sessions)

	user, err := service.CreateBootstrapAdmin(*username, *email, password)
	if err != nil {
		log.Fatal("Failed to create admin: ", err)
	}

	fmt.Printf("Admin account created: %s (id=%d)\n", user.Username, user.ID)
}
