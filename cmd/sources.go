package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/urfave/cli/v3"
)

// SourcesCommand creates the sources command with subcommands
func SourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "Manage grocery sources",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configured sources in merge order",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listSources(c.String("config"))
				},
			},
			{
				Name:  "types",
				Usage: "List available source types",
				Action: func(ctx context.Context, c *cli.Command) error {
					for _, t := range core.GetGlobalRegistry().ListPrototypes() {
						fmt.Println(t)
					}
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Add a source with default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Source name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "type",
						Usage:    "Source type",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return addSource(c.String("config"), c.String("name"), c.String("type"))
				},
			},
			{
				Name:  "remove",
				Usage: "Remove a source",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Source name",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return removeSource(c.String("config"), c.String("name"))
				},
			},
		},
	}
}

// listSources lists all configured sources
func listSources(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	names := cfg.ListSources()
	if len(names) == 0 {
		fmt.Println("No sources configured")
		return nil
	}

	registry := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(registry, cfg); err != nil {
		return err
	}

	fmt.Println("Configured sources:")
	for _, src := range registry.Sources() {
		needs := ""
		if src.RequiresLocation() {
			needs = ", needs location"
		}
		fmt.Printf("  %s (%s) - %s, timeout: %v%s\n", src.Name(), src.Type(), src.Platform(), src.Timeout(), needs)
	}

	return nil
}

// addSource adds a source to the configuration
func addSource(configPath, name, sourceType string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, exists := cfg.Sources[name]; exists {
		return fmt.Errorf("source %s already exists", name)
	}
	if _, ok := core.GetGlobalRegistry().Prototype(sourceType); !ok {
		return fmt.Errorf("unknown source type %s", sourceType)
	}

	cfg.AddSource(name, sourceType, map[string]any{})

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Added source %s (%s)\n", name, sourceType)
	return nil
}

// removeSource removes a source from the configuration
func removeSource(configPath, name string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, exists := cfg.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	cfg.RemoveSource(name)

	// Drop the name from the merge order too, or the file won't validate
	order := cfg.Aggregator.Order[:0]
	for _, n := range cfg.Aggregator.Order {
		if n != name {
			order = append(order, n)
		}
	}
	cfg.Aggregator.Order = order

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Removed source %s\n", name)
	return nil
}
