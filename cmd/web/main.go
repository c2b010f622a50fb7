package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"purrchase-storefront/internal/adapters/api/purrchase"
	"purrchase-storefront/internal/adapters/payments/razorpay"
	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/router"
)

func main() {
	// .env es opcional (dev); en deploy las vars vienen del entorno.
	_ = godotenv.Load()

	lg := logger.NewFromEnv()

	apiBase := os.Getenv("API_BASE_URL")
	if apiBase == "" {
		apiBase = "http://localhost:5000"
	}

	apiClient, err := purrchase.NewClient(purrchase.Config{BaseURL: apiBase})
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	provider := razorpay.New(razorpay.Config{
		ScriptURL: os.Getenv("RAZORPAY_SCRIPT_URL"), // vacío => default
	})

	r := router.NewRouter(router.Options{
		API:      apiClient,
		Provider: provider,
		Logger:   lg,
	})

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lg.Info("starting storefront", map[string]any{"addr": addr, "api": apiBase})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
