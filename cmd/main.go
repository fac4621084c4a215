package main

import (
	"anonchat/domain"
	"anonchat/infrastructure/telegram"
	"anonchat/internal"
	"anonchat/runtime"
	"anonchat/runtime/workers"
	"anonchat/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bot terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the bot lifecycle, and centralizes
// error reporting, so every defer executes before the process exits and
// shutdown stays graceful for the dispatcher and the sweep loop.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Transport
	client, err := telegram.NewClient(config.BotToken, config.DeliveryTimeout, log)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Session state & services
	registry := runtime.NewRegistry()
	matchMaker := services.NewMatchMaker(log, registry, client, config.DeliveryTimeout)
	relay := services.NewRelay(log, registry, client, matchMaker, config.DeliveryTimeout)
	reveal := services.NewReveal(log, registry, client, config.DeliveryTimeout)
	broadcast := services.NewBroadcast(log, registry, client, domain.UserHandle(config.AdminHandle), config.DeliveryTimeout)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Update stream: webhook when a public URL is configured, else polling
	var updates tgbotapi.UpdatesChannel
	errChan := make(chan error, 1)
	if config.WebhookURL != "" {
		updates, err = client.ListenWebhook(config.WebhookURL, "/webhook")
		if err != nil {
			return exitRuntime, err
		}
		server := &http.Server{Addr: config.ListenAddr}
		go func() {
			log.Info("Starting webhook server", "address", config.ListenAddr, "at", time.Now().UTC())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("webhook server error: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	} else {
		log.Info("Running in polling mode")
		updates, err = client.Poll(config.UpdateTimeout)
		if err != nil {
			return exitRuntime, err
		}
		defer client.StopPolling()
	}

	// 6. Supervised workers: dispatcher, sweeper, telemetry
	dispatcher := telegram.NewDispatcher(log, client, updates, registry, matchMaker, relay, reveal, broadcast, config.CommunityChatID)
	sweeper := workers.NewSweeper(log, registry, client, reveal, config.SweepInterval, config.ConnectionTimeout, config.RevealTTL, config.DeliveryTimeout)
	telemetry := workers.NewTelemetry(log, registry, config.TelemetryInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(dispatcher, sweeper, telemetry)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	log.Info("Bot started successfully")

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-done
		return exitRuntime, err
	}

	// 8. Final Cleanup
	sup.Stop()
	<-done
	log.Info("Program stopped cleanly")

	return exitOK, nil
}
