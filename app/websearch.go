package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fluxcapacitor2/websearch/app/config"
	"github.com/fluxcapacitor2/websearch/app/crawler"
	"github.com/fluxcapacitor2/websearch/app/database"
	"github.com/fluxcapacitor2/websearch/app/export"
	"github.com/fluxcapacitor2/websearch/app/server"
	slogctx "github.com/veqryn/slog-context"
)

func main() {

	// Propagate context attributes (crawl run id, seed) into every log line
	slog.SetDefault(slog.New(slogctx.NewHandler(slog.NewTextHandler(os.Stderr, nil), nil)))

	// Load configuration
	config, err := config.Read()

	if err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Set up a database connection using the specified driver
	var db database.Database

	switch config.Db.Driver {
	case "sqlite":
		sqlite, err := database.SQLiteFromFile(config.Db.ConnectionString)
		if err != nil {
			panic(fmt.Sprintf("Error opening SQLite database: %v", err))
		}
		db = sqlite
	default:
		panic(fmt.Sprintf("Unknown database driver: %v. Valid drivers include: sqlite.", config.Db.Driver))
	}

	{
		// Create DB tables if they don't exist (and set SQLite to WAL mode)
		err := db.Setup()

		if err != nil {
			panic(fmt.Sprintf("Failed to set up database: %v", err))
		}
	}

	{
		report, err := crawler.Run(context.Background(), db, crawler.Config{
			Seed:             config.Crawl.Seed,
			PageLimit:        config.Crawl.PageLimit,
			FetchConcurrency: config.Crawl.FetchConcurrency,
			IndexConcurrency: config.Crawl.IndexConcurrency,
		})

		if err != nil {
			panic(fmt.Sprintf("Crawl failed: %v", err))
		}

		fmt.Printf("Crawl %v finished: %v pages indexed, %v fetch failures\n", report.RunID, report.PagesIndexed, report.FetchFailures)
	}

	if config.Summary.Path != "" {
		file, err := os.Create(config.Summary.Path)
		if err != nil {
			panic(fmt.Sprintf("Failed to create summary file: %v", err))
		}

		err = export.Summary(db, file, config.Summary.KeywordCount, config.Summary.LinkCount)
		file.Close()
		if err != nil {
			panic(fmt.Sprintf("Failed to write summary: %v", err))
		}

		fmt.Printf("Wrote index summary to %v\n", config.Summary.Path)
	}

	// Create an API server
	server.Start(db, config)
}
