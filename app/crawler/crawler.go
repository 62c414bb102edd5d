// Package crawler walks the link graph breadth-first from a seed URL,
// fetching with a bounded concurrency budget and writing every indexed page
// through a single serialized path.
package crawler

import (
	"context"
	"errors"
	"runtime"

	"github.com/fluxcapacitor2/websearch/app/database"
	"github.com/fluxcapacitor2/websearch/app/indexer"
	"github.com/google/uuid"
	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// The URL the breadth-first traversal starts from.
	Seed string
	// Maximum number of successfully indexed pages. Failed fetches do not count.
	PageLimit int
	// Maximum concurrent in-flight fetches (I/O-bound pool).
	FetchConcurrency int
	// Maximum concurrent page-indexing jobs (CPU-bound pool).
	IndexConcurrency int
}

// Report summarizes one crawl run.
type Report struct {
	RunID         string
	PagesIndexed  int
	FetchFailures int
}

// outcome is the per-URL result of the fetch+index pipeline for one layer.
type outcome struct {
	page *indexer.IndexedPage
	err  error
}

// Run performs a breadth-first crawl rooted at the configured seed. Within a
// layer, fetches and indexing run concurrently under their own budgets, but
// index store writes happen sequentially in dequeue order. The run ends when
// the frontier drains or the page limit is reached; in-flight fetches of the
// final layer finish and are discarded once the limit is hit. A storage
// integrity failure aborts the run.
func Run(ctx context.Context, db database.Database, config Config) (*Report, error) {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = 6
	}
	if config.IndexConcurrency <= 0 {
		config.IndexConcurrency = runtime.GOMAXPROCS(0)
	}

	report := &Report{RunID: uuid.New().String()}
	ctx = slogctx.Append(ctx, "crawlRun", report.RunID, "seed", config.Seed)

	seedID, err := db.InternURL(config.Seed)
	if err != nil {
		return report, err
	}

	frontier := NewFrontier()
	frontier.Enqueue(seedID)

	for frontier.Len() > 0 && report.PagesIndexed < config.PageLimit {
		layer := frontier.DequeueLayer()

		// URL texts are resolved before the workers start so the store sees
		// no reads concurrent with anything else.
		urls := make([]string, len(layer))
		for i, id := range layer {
			if urls[i], err = db.URLText(id); err != nil {
				return report, err
			}
		}

		outcomes := make([]outcome, len(layer))

		fetched := make([]*indexer.RawPage, len(layer))
		fetchers := new(errgroup.Group)
		fetchers.SetLimit(config.FetchConcurrency)
		for i := range layer {
			i := i
			fetchers.Go(func() error {
				fetched[i], outcomes[i].err = fetch(urls[i])
				return nil
			})
		}
		fetchers.Wait()

		indexers := new(errgroup.Group)
		indexers.SetLimit(config.IndexConcurrency)
		for i := range layer {
			if outcomes[i].err != nil {
				continue
			}
			i := i
			indexers.Go(func() error {
				outcomes[i].page, outcomes[i].err = indexer.Index(fetched[i])
				return nil
			})
		}
		indexers.Wait()

		// Single-writer discipline: all store writes for this layer happen
		// here, in dequeue order.
		for i := range layer {
			if outcomes[i].err != nil {
				report.FetchFailures++
				slogctx.Info(ctx, "Skipping page", "url", urls[i], "error", outcomes[i].err)
				continue
			}
			if report.PagesIndexed >= config.PageLimit {
				// First-reached-limit wins; completed fetches past it are discarded.
				continue
			}

			pageID, links, err := indexer.Store(db, outcomes[i].page)
			if err != nil {
				if errors.Is(err, database.ErrIntegrity) {
					slogctx.Error(ctx, "Aborting crawl", "url", urls[i], "error", err)
					return report, err
				}
				return report, err
			}
			report.PagesIndexed++
			slogctx.Info(ctx, "Indexed page", "url", urls[i], "pageId", pageID, "indexed", report.PagesIndexed)

			for _, link := range links {
				frontier.Enqueue(link)
			}
		}
	}

	return report, nil
}
