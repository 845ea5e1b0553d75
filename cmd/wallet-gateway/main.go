package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/zurikai/wallet-gateway/pkg/api"
	"github.com/zurikai/wallet-gateway/pkg/config"
	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
	"github.com/zurikai/wallet-gateway/pkg/prettylog"
	"github.com/zurikai/wallet-gateway/pkg/session"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

func main() {
	godotenv.Load()

	if os.Getenv("PRETTY_LOGS") != "false" {
		logger := slog.New(prettylog.NewHandler(slog.LevelDebug))
		slog.SetDefault(logger)
	}

	var cfg *config.Config
	var err error
	if configPath := os.Getenv("WALLET_GATEWAY_CONFIG_PATH"); configPath != "" {
		slog.Info("Loading config file", "config_path", configPath)
		cfg, err = config.LoadConfigFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Dynamic.BearerToken == "" {
		slog.Warn("DYNAMIC_BEARER_TOKEN is not configured, proxy endpoints will answer 500")
	}
	if cfg.Dynamic.EnvironmentID == "" {
		slog.Warn("DYNAMIC_ENVIRONMENT_ID is not configured, proxy endpoints will answer 500")
	}

	vendor := dynamicapi.NewClient(dynamicapi.Config{
		EnvironmentID:    cfg.Dynamic.EnvironmentID,
		BearerToken:      cfg.Dynamic.BearerToken,
		AuthAPIBaseURL:   cfg.Dynamic.AuthAPIBaseURL,
		WalletAPIBaseURL: cfg.Dynamic.WalletAPIBaseURL,
	})

	verifier, err := tokens.NewVerifier(context.Background(), tokens.VerifierConfig{
		JwksURL:   cfg.Dynamic.ResolveJwksURL(),
		Issuers:   cfg.Dynamic.Issuers,
		Audiences: cfg.Dynamic.Audiences,
	})
	if err != nil {
		log.Fatal(err)
	}

	cookies := session.NewIssuer(session.Config{
		Name:        cfg.Cookie.Name,
		Production:  cfg.Production(),
		Domain:      cfg.Cookie.Domain,
		FallbackTTL: cfg.Cookie.FallbackTTL.Std(),
	})

	e := echo.New()
	e.HideBanner = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	gatewayAPI := api.New(cfg, vendor, verifier, cookies)
	gatewayAPI.MountRoutes(e.Group("/api"))

	slog.Info("Starting wallet gateway", "address", cfg.Address, "environment", cfg.Environment)
	log.Fatal(e.Start(cfg.Address))
}
