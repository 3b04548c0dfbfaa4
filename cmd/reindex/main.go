package main

import (
	"context"
	"flag"
	"log/slog"

	"yatra/internal/config"
	"yatra/internal/database"
	"yatra/internal/logger"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/search"
)

// TripPager reads trips page by page
type TripPager interface {
	List(ctx context.Context, f repository.TripFilter) ([]models.Trip, int64, error)
}

// TripIndexer writes a trip into the search index
type TripIndexer interface {
	IndexTrip(ctx context.Context, trip *models.Trip) error
}

func main() {
	var batchSize int
	var status string
	flag.IntVar(&batchSize, "batch", 200, "Trips read from PostgreSQL per page")
	flag.StringVar(&status, "status", "", "Reindex only trips with this status")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting trip reindex", "batch", batchSize, "status", status)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	esClient, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	repos := repository.NewRepositories(db.DB)
	indexed, failed, err := reindex(ctx, repos.Trips, esClient, models.TripStatus(status), batchSize)
	if err != nil {
		logger.Fatal("Reindex aborted", "error", err, "indexed", indexed)
	}

	slog.Info("Reindex completed", "indexed", indexed, "failed", failed)
}

// reindex copies every matching trip into the index. Single trip failures are
// counted and skipped.
func reindex(ctx context.Context, trips TripPager, index TripIndexer, status models.TripStatus, batchSize int) (int, int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	indexed, failed := 0, 0
	for offset := 0; ; offset += batchSize {
		page, total, err := trips.List(ctx, repository.TripFilter{Status: status, Limit: batchSize, Offset: offset})
		if err != nil {
			return indexed, failed, err
		}

		for i := range page {
			if err := index.IndexTrip(ctx, &page[i]); err != nil {
				slog.Error("Failed to index trip", "trip_id", page[i].ID, "error", err)
				failed++
				continue
			}
			indexed++
		}

		slog.Info("Reindex progress", "processed", offset+len(page), "total", total)
		if len(page) < batchSize || int64(offset+len(page)) >= total {
			return indexed, failed, nil
		}
	}
}
