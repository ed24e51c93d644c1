package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rubiojr/basket/pkg/aggregator"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search every configured grocery source",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "location",
				Aliases: []string{"l"},
				Usage:   "Delivery location, required by quick commerce sources",
			},
			&cli.StringFlag{
				Name:    "pincode",
				Aliases: []string{"p"},
				Usage:   "Delivery pincode",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the matches to this JSON file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of a table",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("missing search query")
			}
			q := core.NewQuery(strings.Join(c.Args().Slice(), " "), c.String("location"), c.String("pincode"))
			return runSearch(ctx, c.String("config"), c.Bool("debug"), q, c.String("output"), c.Bool("json"))
		},
	}
}

func runSearch(ctx context.Context, configPath string, debug bool, q core.Query, output string, asJSON bool) error {
	cfg, err := loadConfig(configPath, debug)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	onOutcome := func(o aggregator.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		renderOutcome(os.Stderr, o)
	}

	rt, err := newRuntime(ctx, cfg, withOutcomeCallback(onOutcome))
	if err != nil {
		return err
	}
	defer rt.close()

	if len(rt.registry.Sources()) == 0 {
		fmt.Fprintln(os.Stderr, "No sources configured, run 'basket init' first")
	}

	resp, err := rt.service.Search(ctx, q)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeResultsFile(output, resp.Results); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Results)
	}

	title := fmt.Sprintf("%q (%d matches, %s)", resp.Query.Text, len(resp.Results.Matches), sourceLabel(resp.Source))
	renderProducts(os.Stdout, title, resp.Results.Matches, false)
	return nil
}

func writeResultsFile(path string, results core.Results) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func sourceLabel(source string) string {
	if source == search.SourceCache {
		return "cached"
	}
	return "live"
}
