package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "turnover",
		Usage: "Estimate how quickly freshly created outputs are spent, at several window sizes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Load environment variables from this file before resolving flags",
				EnvVars: []string{"TURNOVER_ENV_FILE"},
			},
		},
		Before: loadEnvFile,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Compute turnover ratios over an event stream",
				Flags:  runFlags(),
				Action: run,
			},
			{
				Name:   "publish",
				Usage:  "Publish an event file to a Kafka topic",
				Flags:  publishFlags(),
				Action: publish,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile loads --env-file before subcommand flags read their EnvVars.
// Variables already set in the environment win.
func loadEnvFile(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
