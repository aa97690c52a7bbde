package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/auth"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/config"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/db"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/gateway"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/middleware"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/proxy"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db.Connect(cfg.DatabaseURL, cfg.Debug)
	auth.Init()

	sessions := auth.NewSessionStore(cfg.Session.IdleTimeout, cfg.Session.AbsoluteTimeout)
	service := auth.NewService(auth.NewGormUserStore(db.DB), sessions)
	handlers := auth.NewHandlers(service, cfg.Backend.PublicScheme == "https")
	limiter := middleware.NewRateLimiter(cfg.Session.LoginRatePerMinute)

	endpoints, err := gateway.LoadEndpoints(cfg.Backend.EndpointsFile)
	if err != nil {
		log.Fatal("Failed to load endpoint table: ", err)
	}

	var resolver gateway.BaseURLResolver
	if cfg.Backend.BaseURL != "" {
		resolver = gateway.StaticResolver(cfg.Backend.BaseURL)
	} else {
		resolver = gateway.NewProber(cfg.Backend, endpoints)
	}
	gw := gateway.NewClient(resolver, endpoints, cfg.Backend.Timeout)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(handlers, sessions, limiter))
	r.Mount("/api_proxy", proxy.SetupRoutes(proxy.NewHandler(gw, sessions, service)))

	fmt.Printf("Server listening on port :%s...\n", cfg.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
