package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/recently/internal"
	pkgconfig "github.com/starford/recently/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}
	if root := cmd.String("root"); root != "" {
		cfg.Site.Root = root
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		cfg.Site.OutputDir = out
	}
	opts := []internal.Option{internal.WithConfig(cfg)}
	if cmd.Bool("no-index") {
		opts = append(opts, internal.WithoutIndex())
	}
	if err := internal.RunBuild(ctx, opts...); err != nil {
		return fmt.Errorf("build error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "recently",
		Usage: "Recent-updates listing for Markdown documentation sites",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Site directory (overrides site.root)",
				Sources: cli.EnvVars("RECENTLY_SITE_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Scan the site and write the recent-updates fragment and JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output directory (overrides site.output_dir)",
					},
					&cli.BoolFlag{
						Name:  "no-index",
						Usage: "Scan files directly without the SQLite index",
					},
				},
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Watch the site and serve the listing, REST API and SSE",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
