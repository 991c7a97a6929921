package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/app"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@latest init -g internal/auth/http/router.go -d ../../ -o ../../api/auth --outputTypes go

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck())
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

// healthcheck probes the local readiness endpoint for the container
// HEALTHCHECK and returns the process exit code.
func healthcheck() int {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := authsdk.NewSDKClient("http://127.0.0.1:" + port).GetReadiness(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		return 1
	}
	return 0
}
