package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/volleyhq/volley"
)

func actionVolley(c *cli.Context) error {
	if c.String("url") == "" && c.String("input") == "" {
		return cli.Exit("either --url or --input is required", 1)
	}
	if c.String("input") == "" && !c.IsSet("num") {
		return cli.Exit("--num is required without --input", 1)
	}
	connections := c.Int("connections")
	if connections < 1 {
		return cli.Exit("--connections must be at least 1", 1)
	}
	if c.Int("timeout") < 1 {
		return cli.Exit("--timeout must be at least 1 second", 1)
	}

	header, err := volley.ParseHeaders(c.String("headers"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid --headers: %v", err), 1)
	}

	method := strings.ToUpper(c.String("method"))
	var source volley.RequestSource
	if input := c.String("input"); input != "" {
		source, err = volley.OpenFileSource(input, method, c.String("url"), header, c.Int("skip"), c.Int("num"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
	} else {
		source = volley.NewSyntheticSource(method, c.String("url"), header, c.Int("skip"), c.Int("num"))
	}
	defer source.Close()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}

	client := volley.NewClient(volley.ClientOptions{
		Connections:     connections,
		FollowRedirects: c.Bool("follow-redirects"),
		SkipCertVerify:  c.Bool("skip-cert-verify"),
	})

	config := &volley.Config{
		Source:      source,
		Client:      client,
		Connections: connections,
		Timeout:     time.Duration(c.Int("timeout")) * time.Second,
		Report:      c.Bool("report"),
		Out:         os.Stdout,
		Logger:      logger,
	}

	scheduler := &volley.Scheduler{Config: config}
	if err := scheduler.Run(context.Background()); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:   "volley",
		Usage:  "benchmark an HTTP endpoint with bounded concurrency",
		Action: actionVolley,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "request a single url",
			},
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"m"},
				Value:   "GET",
				Usage:   "HTTP method, defaults to GET",
			},
			&cli.StringFlag{
				Name:  "headers",
				Usage: "headers written as query string, ie. name=value&name2=value2",
			},
			&cli.IntFlag{
				Name:    "num",
				Aliases: []string{"n"},
				Usage:   "end of the request index range; the run issues indices skip through num-1",
			},
			&cli.IntFlag{
				Name:    "skip",
				Aliases: []string{"s"},
				Usage:   "number of requests or input rows to skip before starting",
			},
			&cli.IntFlag{
				Name:    "connections",
				Aliases: []string{"c"},
				Value:   10,
				Usage:   "max simultaneous connections, defaults to 10",
			},
			&cli.IntFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   30,
				Usage:   "single request timeout in seconds, defaults to 30",
			},
			&cli.BoolFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "print per-batch and final statistics",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "read requests from input CSV file with url, method, headers and body columns",
			},
			&cli.BoolFlag{
				Name:  "follow-redirects",
				Usage: "follow HTTP redirects instead of reporting their status",
			},
			&cli.BoolFlag{
				Name:  "skip-cert-verify",
				Usage: "skip verifying SSL certificate when making requests",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log per-request failures and batch timings",
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
