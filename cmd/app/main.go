package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/orbit/internal"
	pkgconfig "github.com/starford/orbit/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func importFiles(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Args().Present() {
		return fmt.Errorf("import: at least one file is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ImportFiles(ctx, os.Stdout, cmd.Args().Slice(),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func show(_ context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("show: a session file is required")
	}
	vault := internal.VaultConfig{Timezone: cmd.String("timezone")}
	loc, err := vault.Location()
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return internal.Show(os.Stdout, file, int(cmd.Int("width")), cmd.String("style"), loc)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:    "orbit",
		Usage:   "Capture sessions stored as plain Markdown, with search and a live editor API",
		Version: version,
		Action:  serve,
		Flags:   []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "import",
				Usage:     "Copy session files into the vault in canonical form",
				ArgsUsage: "<file>...",
				Action:    importFiles,
			},
			{
				Name:      "show",
				Usage:     "Render a session file in the terminal",
				ArgsUsage: "<file>",
				Action:    show,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Usage: "Wrap width", Value: 100},
					&cli.StringFlag{Name: "style", Usage: "Glamour style (dark, light, notty); empty detects"},
					&cli.StringFlag{Name: "timezone", Usage: "IANA zone for session times", Sources: cli.EnvVars("ORBIT_TIMEZONE")},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
