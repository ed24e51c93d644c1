package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/basket/cmd"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "basket",
		Usage: "Compare grocery prices across Indian delivery platforms",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.SearchCommand(),
			cmd.RecentCommand(),
			cmd.ServeCommand(),
			cmd.SourcesCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.ForService("basket").Errorf("failed to get default config path: %v", err)
		os.Exit(1)
	}
	return path
}
