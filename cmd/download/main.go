// Command download walks a range of AW reach identifiers and caches each
// detail document under the data directory as aw_<id>.json. Identifiers are
// sparse, so the walk tolerates gaps and stops only after a run of
// consecutive failures long enough to suggest the end of the ID space.
//
// Usage:
//
//	go run ./cmd/download -out-dir data -start-id 1 -end-id 12000 -max-fail 200
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/reach-data-etl/internal/adapter/aw"
	"github.com/couchcryptid/reach-data-etl/internal/observability"
)

func main() {
	outDir := flag.String("out-dir", "data", "directory to write aw_*.json documents into")
	startID := flag.Int64("start-id", 1, "first reach identifier to fetch")
	endID := flag.Int64("end-id", 0, "last reach identifier to fetch (0 = unbounded)")
	maxFail := flag.Int("max-fail", 100, "stop after this many consecutive fetch failures")
	baseURL := flag.String("base-url", aw.DefaultBaseURL, "AW site root")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	flag.Parse()

	if *startID < 1 || (*endID != 0 && *endID < *startID) {
		flag.Usage()
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Getenv("LOG_LEVEL"), "text")
	metrics := observability.NewMetrics()

	client := aw.NewClient(*baseURL, *timeout, logger, metrics)
	fetcher, err := aw.NewCachedFetcher(client, *outDir, metrics)
	if err != nil {
		logger.Error("cache setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetched, skipped := 0, 0
	consecutiveFailures := 0

	for id := *startID; *endID == 0 || id <= *endID; id++ {
		if ctx.Err() != nil {
			logger.Info("interrupted", "last_id", id-1)
			break
		}

		if _, err := fetcher.Fetch(ctx, id); err != nil {
			skipped++
			consecutiveFailures++
			logger.Debug("no document", "reach_id", id, "error", err)
			if consecutiveFailures >= *maxFail {
				logger.Info("stopping after consecutive failures", "count", consecutiveFailures, "last_id", id)
				break
			}
			continue
		}

		fetched++
		consecutiveFailures = 0
		if fetched%100 == 0 {
			logger.Info("progress", "fetched", fetched, "skipped", skipped, "current_id", id)
		}
	}

	fmt.Printf("fetched %d documents, skipped %d identifiers\n", fetched, skipped)
}
