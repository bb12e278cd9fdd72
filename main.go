package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/news-clipper/internal/crawl"
	"github.com/dtnitsch/news-clipper/internal/dbcmd"
	"github.com/dtnitsch/news-clipper/internal/extractcmd"
	"github.com/dtnitsch/news-clipper/internal/filter"
	"github.com/dtnitsch/news-clipper/internal/notify"
	"github.com/dtnitsch/news-clipper/internal/pipeline"
	"github.com/dtnitsch/news-clipper/internal/reportcmd"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "nclip",
		Usage: "aggregate news sources and mail subscribers their keyword matches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the run configuration file",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "scrape source listings and fetch new article bodies",
				Flags:  append(phaseFlags(), modeFlag(), workersFlag()),
				Action: crawl.Action,
			},
			{
				Name:   "extract",
				Usage:  "extract title and body text from cached pages",
				Action: extractcmd.Action,
			},
			{
				Name:   "filter",
				Usage:  "classify articles against subscriber keyword lists",
				Action: filter.Action,
			},
			{
				Name:   "report",
				Usage:  "write the JSON export and HTML report for a day",
				Flags:  phaseFlags(),
				Action: reportcmd.Action,
			},
			{
				Name:  "notify",
				Usage: "email subscribers their matches for a day",
				Flags: append(phaseFlags(), &cli.StringFlag{
					Name:  "test",
					Usage: "send a test email to this address and exit",
				}),
				Action: notify.Action,
			},
			{
				Name:   "run",
				Usage:  "full pipeline: crawl, extract, filter, report, notify",
				Flags:  append(phaseFlags(), modeFlag(), workersFlag()),
				Action: pipeline.Action,
			},
			{
				Name:  "db",
				Usage: "inspect the article store",
				Subcommands: []*cli.Command{
					{
						Name:  "articles",
						Usage: "list known articles",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 50, Usage: "max rows to show"},
							&cli.StringFlag{Name: "source", Usage: "only show this source"},
						},
						Action: dbcmd.ArticlesAction,
					},
					{
						Name:  "matches",
						Usage: "list recorded match state",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "subscriber", Usage: "only show this subscriber"},
							&cli.BoolFlag{Name: "all", Usage: "include non-matches"},
						},
						Action: dbcmd.MatchesAction,
					},
					{
						Name:   "sources",
						Usage:  "per-source store summary",
						Action: dbcmd.SourcesAction,
					},
					{
						Name:   "export",
						Usage:  "write the matched-news JSON export for a day",
						Flags:  phaseFlags(),
						Action: dbcmd.ExportAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func phaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "date",
			Usage: "run date as YYYY-MM-DD (default: today)",
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "override crawl_mode from the config (full or incremental)",
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "workers",
		Usage: "override the body-fetch worker count",
	}
}
