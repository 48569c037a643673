package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"itbuddy-api/internal"
	"itbuddy-api/internal/config"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	srv := internal.NewServer(cfg)

	log.Println("Starting IT Buddy API server...")
	log.Printf("AI backend: %s", cfg.BackendURL)
	log.Printf("JWT Issuer: %s", cfg.JWTIssuer)
	log.Printf("JWT Expiry: %v", cfg.JWTExpiry)
	log.Printf("Listening on %s", cfg.ListenAddr)

	log.Fatal(http.ListenAndServe(cfg.ListenAddr, srv.Router))
}
