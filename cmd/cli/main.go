package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/vk/tensorgridgo/internal/app"
	"github.com/vk/tensorgridgo/internal/backend/soft"
	"github.com/vk/tensorgridgo/internal/cli"
	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// main is the entrypoint for the tensorgridgo application.
func main() {
	// Minimal logger until the configured one takes over.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// A local .env can pre-seed flags through the environment; absence is fine.
	_ = godotenv.Load()

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a, err := app.New(outW, appConfig, soft.Default())
	if err != nil {
		return err
	}

	// The profile loads through the configured logger, so -log-level and
	// -log-format apply to its diagnostics too.
	ctx := context.Background()
	if appConfig.ProfilePath != "" {
		profile, err := config.Load(ctxlog.WithLogger(ctx, a.Logger()), appConfig.ProfilePath)
		if err != nil {
			return fmt.Errorf("loading build profile: %w", err)
		}
		appConfig.ApplyProfile(profile)
	}
	return a.Run(ctx, appConfig)
}
