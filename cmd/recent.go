package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/urfave/cli/v3"
)

// RecentCommand creates the recent command
func RecentCommand() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Show products from the most recent searches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of searches to include (defaults to cache.recent_limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of a table",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showRecent(ctx, c.String("config"), c.Bool("debug"), c.Int("limit"), c.Bool("json"))
		},
	}
}

func showRecent(ctx context.Context, configPath string, debug bool, limit int, asJSON bool) error {
	cfg, err := loadConfig(configPath, debug)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	products, err := rt.service.Recent(ctx, limit)
	if errors.Is(err, core.ErrNoResults) {
		fmt.Println(noDataStyle.Render("No past searches yet"))
		return nil
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(core.Results{Matches: products})
	}

	renderProducts(os.Stdout, "Recent searches", products, true)
	return nil
}
