package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/db"
	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/ops"
	"github.com/hpungsan/storydrop/internal/sweep"
	"github.com/hpungsan/storydrop/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "storydrop",
		Usage:   "Ephemeral store for published map stories",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(store, cfg),
			publishCmd(store, cfg),
			resolveCmd(store),
			sweepCmd(store),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the story API server with the background expiry sweeper",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8537, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			// Force the lazy open now: a store that cannot initialize
			// is the one failure the server should not start over.
			if _, err := store.Conn(); err != nil {
				return cli.Exit(fmt.Sprintf("failed to initialize store: %v", err), 1)
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			sweeper := sweep.New(store, sweepInterval(cfg))
			go sweeper.Run(ctx)

			srv := web.NewServer(store, cfg, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// publishCmd creates the publish command.
func publishCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish a story document (reads JSON from stdin)",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("document JSON must be piped via stdin"))
			}

			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			// Local publishes skip admission limiting
			out, opErr := ops.Publish(c.Context, store, cfg, nil, ops.PublishInput{
				Raw:    raw,
				Origin: "local",
			})
			if opErr != nil {
				return outputError(opErr)
			}

			return outputJSON(out)
		},
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Fetch and decode a published story by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("usage: storydrop resolve <id>"))
			}

			out, err := ops.Resolve(c.Context, store, ops.ResolveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(out)
		},
	}
}

// sweepCmd creates the sweep command.
func sweepCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete expired stories now",
		Action: func(c *cli.Context) error {
			out, err := ops.Sweep(c.Context, store)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(out)
		},
	}
}

// sweepInterval converts the configured sweep period.
func sweepInterval(cfg *config.Config) time.Duration {
	return time.Duration(cfg.SweepIntervalHours) * time.Hour
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := err.(*errors.StoryError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
