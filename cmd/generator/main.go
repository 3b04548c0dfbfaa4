package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"yatra/internal/config"
	"yatra/internal/database"
	"yatra/internal/logger"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/search"
	"yatra/internal/service"
)

var (
	count  = flag.Int("count", 12, "Number of trips to generate")
	seed   = flag.Int64("seed", 0, "Random seed (0 = current time)")
	dryRun = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

// route is a pilgrimage circuit with typical fare and bus size
type route struct {
	Title       string
	Origin      string
	Destination string
	Description string
	Nights      int
	Fare        int64
	Seats       []int
}

var routes = []route{
	{"Tirupati Balaji Darshan", "Chennai", "Tirupati", "Special entry darshan, Padmavathi temple and Kapila Theertham.", 1, 1800_00, []int{40, 45}},
	{"Shirdi Sai Weekend", "Mumbai", "Shirdi", "Kakad aarti, Samadhi Mandir and Shani Shingnapur.", 1, 1500_00, []int{35, 40}},
	{"Kashi Vishwanath Yatra", "Prayagraj", "Varanasi", "Ganga aarti at Dashashwamedh Ghat and temple darshan.", 2, 2400_00, []int{30, 40}},
	{"Vaishno Devi Trek", "Jammu", "Katra", "Bhawan darshan with Bhairon temple, pony on request.", 2, 3200_00, []int{25, 30}},
	{"Guruvayur and Kodungallur", "Kochi", "Guruvayur", "Guruvayur temple, Mammiyur and Kodungallur Bhagavathy.", 1, 1200_00, []int{40, 49}},
	{"Rameswaram Dhanushkodi", "Madurai", "Rameswaram", "Ramanathaswamy temple, 22 theertham snan and Dhanushkodi.", 1, 1700_00, []int{35, 45}},
	{"Dwarka Somnath Darshan", "Ahmedabad", "Dwarka", "Dwarkadhish, Nageshwar Jyotirlinga and Bet Dwarka.", 2, 2800_00, []int{40, 45}},
	{"Haridwar Rishikesh Weekend", "Delhi", "Rishikesh", "Har Ki Pauri aarti, Lakshman Jhula and Neelkanth.", 1, 1600_00, []int{30, 40}},
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting trip generator...", "count", *count, "dry_run", *dryRun)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	requests := generateTrips(rand.New(rand.NewSource(rngSeed)), *count, time.Now())

	if *dryRun {
		for _, req := range requests {
			slog.Info("[DRY RUN] Would create trip",
				"title", req.Title,
				"departure_at", req.DepartureAt.Format(time.RFC3339),
				"total_seats", req.TotalSeats,
				"price_per_seat", req.PricePerSeat)
		}
		return
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	deps := service.Deps{Repos: repository.NewRepositories(db.DB)}
	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, generated trips will not be indexed", "error", err)
		} else {
			deps.Indexer = esClient
		}
	}
	trips := service.NewServices(deps).Trips

	created := 0
	for _, req := range requests {
		trip, err := trips.Create(ctx, &req)
		if err != nil {
			slog.Error("Failed to create trip", "title", req.Title, "error", err)
			continue
		}
		created++
		slog.Info("Generated trip", "trip_id", trip.ID, "title", trip.Title, "total_seats", trip.TotalSeats)
	}

	slog.Info("Trip generation completed", "created", created, "requested", len(requests))
}

// generateTrips spreads trips over the coming weekends. Buses leave on Friday
// night and return after the route's nights away.
func generateTrips(rng *rand.Rand, n int, from time.Time) []models.CreateTripRequest {
	friday := nextFriday(from)

	requests := make([]models.CreateTripRequest, 0, n)
	for i := 0; i < n; i++ {
		r := routes[rng.Intn(len(routes))]
		weekend := friday.AddDate(0, 0, 7*(i/len(routes)+rng.Intn(4)))
		departure := weekend.Add(time.Duration(20+rng.Intn(3)) * time.Hour)

		// fares vary by up to 10% and are rounded to whole rupees
		fare := r.Fare + r.Fare*int64(rng.Intn(21)-10)/100
		fare -= fare % 100

		requests = append(requests, models.CreateTripRequest{
			Title:          fmt.Sprintf("%s (%s)", r.Title, weekend.Format("2 Jan")),
			Origin:         r.Origin,
			Destination:    r.Destination,
			Description:    r.Description,
			DepartureAt:    departure,
			ReturnAt:       departure.AddDate(0, 0, r.Nights).Add(18 * time.Hour),
			PricePerSeat:   fare,
			AdvancePerSeat: (fare / 4) - (fare/4)%100,
			TotalSeats:     r.Seats[rng.Intn(len(r.Seats))],
		})
	}
	return requests
}

func nextFriday(from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
