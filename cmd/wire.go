package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	steamadapter "github.com/shelfbot/shelfbot/internal/adapters/catalog/steam"
	"github.com/shelfbot/shelfbot/internal/adapters/chat/telegram"
	webappadapter "github.com/shelfbot/shelfbot/internal/adapters/ledger/webapp"
	freetpadapter "github.com/shelfbot/shelfbot/internal/adapters/mirror/freetp"
	tomlrepo "github.com/shelfbot/shelfbot/internal/adapters/repo/toml"
	"github.com/shelfbot/shelfbot/internal/application"
	"github.com/shelfbot/shelfbot/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultRequestTimeout = 15 * time.Second

type app struct {
	bot     *telegram.Bot
	library *application.LibraryService
	log     *zap.Logger
}

func wireApp() (*app, error) {
	logger, err := newLogger(envOrDefault("SHELFBOT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	token := os.Getenv("SHELFBOT_TELEGRAM_TOKEN")
	if token == "" {
		return nil, errors.New("SHELFBOT_TELEGRAM_TOKEN is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("wire bot api: %w", err)
	}

	repoConfig := viper.New()
	if path := os.Getenv("SHELFBOT_SETTINGS_PATH"); path != "" {
		repoConfig.Set("settings.path", path)
	}
	settings, err := tomlrepo.NewRepository(repoConfig)
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}

	httpClient := &http.Client{Timeout: defaultRequestTimeout}

	ledger := webappadapter.NewClient(httpClient, defaultRequestTimeout)
	catalog := steamadapter.NewClient(steamadapter.Config{
		APIKey:         os.Getenv("SHELFBOT_STEAM_API_KEY"),
		Country:        envOrDefault("SHELFBOT_STEAM_COUNTRY", "us"),
		Language:       envOrDefault("SHELFBOT_STEAM_LANGUAGE", "english"),
		HTTPClient:     httpClient,
		RequestTimeout: defaultRequestTimeout,
	})
	mirror := freetpadapter.NewProber(freetpadapter.Config{
		HTTPClient:     httpClient,
		RequestTimeout: defaultRequestTimeout,
	})

	transport := telegram.NewTransport(api)
	clock := ports.SystemClock{}

	sessions := application.NewSessionStore()
	dashboard := application.NewDashboard(transport, settings, logger)
	library := application.NewLibraryService(ledger, catalog, dashboard, settings, logger)
	deletion := application.NewDeletionService(ledger, dashboard, settings, library, logger)
	acquisition := application.NewAcquisitionService(ledger, catalog, mirror, dashboard, sessions, settings, clock, logger)
	prices := application.NewPriceService(ledger, catalog, dashboard, settings, clock, logger)

	core := application.NewApp(sessions, dashboard, library, deletion, acquisition, prices, settings, ledger, transport, logger)

	pollTimeout, err := strconv.Atoi(envOrDefault("SHELFBOT_POLL_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("parse poll timeout: %w", err)
	}
	blockedUsers, err := parseBlockedUsers(os.Getenv("SHELFBOT_BLOCKED_USERS"))
	if err != nil {
		return nil, fmt.Errorf("parse blocked users: %w", err)
	}
	bot := telegram.NewBot(api, core, pollTimeout, blockedUsers, logger)

	return &app{bot: bot, library: library, log: logger}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	return config.Build()
}

// parseBlockedUsers reads the comma-separated user id list whose updates
// the bot drops outright.
func parseBlockedUsers(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
