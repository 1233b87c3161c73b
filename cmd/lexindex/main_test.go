package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	run := func(level string) error {
		app := &cli.App{
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		return app.Run([]string{"lexindex", "--log-level", level})
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Error"} {
			require.NoError(t, run(level), level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := run("verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("debug enables debug logging", func(t *testing.T) {
		require.NoError(t, run("debug"))
		assert.True(t, slog.Default().Enabled(nil, slog.LevelDebug))
	})
}

func TestSearchCommandValidation(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 5},
					&cli.Float64Flag{Name: "threshold", Value: 0.6},
				},
			},
		},
	}

	t.Run("query required", func(t *testing.T) {
		err := app.Run([]string{"lexindex", "search"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("threshold bounds", func(t *testing.T) {
		err := app.Run([]string{"lexindex", "search", "--threshold", "1.5", "direitos"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "threshold")
	})
}
