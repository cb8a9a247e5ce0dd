package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/merely/internal"
	pkgconfig "github.com/starford/merely/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func rebuild(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	stats, err := internal.RunRebuild(ctx, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("added %d, removed %d\n", stats.Added, stats.Removed)
	return nil
}

func importFile(ctx context.Context, cmd *cli.Command) error {
	src := cmd.Args().First()
	if src == "" {
		return errors.New("usage: import <file.md>")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	path, err := internal.RunImport(ctx, src, opts...)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "merely",
		Usage:   "Local Markdown notes board with an index, editor helpers and an MCP server",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "rebuild",
				Usage:  "Reconcile the index with the vault and exit",
				Action: rebuild,
			},
			{
				Name:      "import",
				Usage:     "Copy an external Markdown file into the vault",
				ArgsUsage: "<file.md>",
				Action:    importFile,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
