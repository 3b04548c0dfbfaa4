package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"yatra/internal/cache"
	"yatra/internal/inventory"
	"yatra/internal/logger"
	"yatra/internal/metrics"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/search"
	"yatra/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type TripService struct {
	repos    *repository.Repositories
	sync     *tripSync
	searcher TripSearcher
	metrics  *metrics.Metrics
}

func NewTripService(repos *repository.Repositories, sync *tripSync, searcher TripSearcher, m *metrics.Metrics) *TripService {
	return &TripService{
		repos:    repos,
		sync:     sync,
		searcher: searcher,
		metrics:  m,
	}
}

// Create validates and stores a new trip with all seats available
func (s *TripService) Create(ctx context.Context, req *models.CreateTripRequest) (*models.Trip, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	trip, err := inventory.Create(models.Trip{
		Title:          req.Title,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Description:    req.Description,
		DepartureAt:    req.DepartureAt,
		ReturnAt:       req.ReturnAt,
		PricePerSeat:   req.PricePerSeat,
		AdvancePerSeat: req.AdvancePerSeat,
		TotalSeats:     req.TotalSeats,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repos.Trips.Create(ctx, &trip); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Trip created", "trip_id", trip.ID, "total_seats", trip.TotalSeats)
	s.sync.changed(ctx, &trip, models.EventTripCreated, "created")
	return &trip, nil
}

func (s *TripService) Get(ctx context.Context, id int64) (*models.Trip, error) {
	return s.repos.Trips.GetByID(ctx, id)
}

// List returns one page of trips, from the search index when configured and
// from Postgres otherwise. Pages are cached until the next trip change.
func (s *TripService) List(ctx context.Context, params models.ListTripsParams) (*models.ListTripsResponse, error) {
	if params.Page == 0 {
		params.Page = 1
	}
	if params.PageSize == 0 {
		params.PageSize = defaultPageSize
	}
	if err := validation.Struct(&params); err != nil {
		return nil, err
	}

	key := cacheKey(params)
	var (
		version  int64
		cacheErr error = cache.ErrCacheMiss
	)
	if s.sync.cache != nil {
		var raw []byte
		raw, version, cacheErr = s.sync.cache.GetTripsList(ctx, key)
		if cacheErr == nil {
			var cached models.ListTripsResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			logger.WithContext(ctx).Warn("Failed to read trips cache", "error", cacheErr)
		}
	}

	resp, err := s.list(ctx, params)
	if err != nil {
		return nil, err
	}

	// Only a clean miss or an unreadable entry yields a version worth writing under.
	if s.sync.cache != nil && (cacheErr == nil || errors.Is(cacheErr, cache.ErrCacheMiss)) {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.sync.cache.SetTripsList(ctx, key, version, raw); err != nil {
				logger.WithContext(ctx).Warn("Failed to write trips cache", "error", err)
			}
		}
	}
	return resp, nil
}

func (s *TripService) list(ctx context.Context, params models.ListTripsParams) (*models.ListTripsResponse, error) {
	resp := &models.ListTripsResponse{Page: params.Page, PageSize: params.PageSize}

	if s.searcher != nil {
		trips, total, err := s.searcher.Search(ctx, search.TripQuery{
			Query:    params.Query,
			Date:     params.Date,
			Status:   params.Status,
			Page:     params.Page,
			PageSize: params.PageSize,
		})
		if err == nil {
			resp.Trips, resp.Total = trips, total
			return resp, nil
		}
		logger.WithContext(ctx).Warn("Trip search failed, falling back to Postgres", "error", err)
	}

	trips, total, err := s.repos.Trips.List(ctx, repository.TripFilter{
		Query:  params.Query,
		Date:   params.Date,
		Status: params.Status,
		Limit:  params.PageSize,
		Offset: (params.Page - 1) * params.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	resp.Trips, resp.Total = trips, total
	return resp, nil
}

func cacheKey(p models.ListTripsParams) string {
	v := url.Values{}
	v.Set("q", p.Query)
	v.Set("date", p.Date)
	v.Set("status", string(p.Status))
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("size", strconv.Itoa(p.PageSize))
	return v.Encode()
}

// EditCapacity changes the total seats of a trip. Seats already booked are
// never revoked: a request below the booked count is raised to it and the
// response carries a warning.
func (s *TripService) EditCapacity(ctx context.Context, id int64, req *models.UpdateCapacityRequest) (*models.CapacityChangeResponse, error) {
	var change inventory.CapacityChange
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		trip, err := tx.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		change, err = inventory.EditCapacity(*trip, req.TotalSeats)
		if err != nil {
			return err
		}
		return tx.Trips.SaveInventory(ctx, &change.Trip)
	})
	if err != nil {
		return nil, err
	}

	resp := &models.CapacityChangeResponse{
		Trip:           change.Trip,
		RequestedSeats: change.Requested,
		BookedSeats:    change.Booked,
		Clamped:        change.Clamped,
	}
	if change.Clamped {
		resp.Warning = fmt.Sprintf("%d seats are already booked; capacity set to %d instead of %d",
			change.Booked, change.Trip.TotalSeats, change.Requested)
		logger.WithContext(ctx).Warn("Capacity edit clamped to booked seats",
			"trip_id", id,
			"requested", change.Requested,
			"booked", change.Booked)
		s.metrics.ObserveCapacityClamp()
	}

	s.sync.changed(ctx, &change.Trip, models.EventTripUpdated, "capacity")
	return resp, nil
}

// UpdateStatus moves a trip along its lifecycle on an admin's request
func (s *TripService) UpdateStatus(ctx context.Context, id int64, req *models.UpdateTripStatusRequest) (*models.Trip, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, req.Status, "admin")
}

// AdvanceLifecycle starts departed trips and completes returned ones. It
// returns the number of trips moved.
func (s *TripService) AdvanceLifecycle(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repos.Trips.DueForTransition(ctx, now)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, trip := range due {
		to := models.TripCompleted
		if inventory.Bookable(trip.Status) {
			to = models.TripOngoing
		}

		if _, err := s.transition(ctx, trip.ID, to, "schedule"); err != nil {
			logger.WithContext(ctx).Error("Failed to advance trip", "error", err, "trip_id", trip.ID, "to", to)
			continue
		}
		moved++
	}
	return moved, nil
}

func (s *TripService) transition(ctx context.Context, id int64, to models.TripStatus, reason string) (*models.Trip, error) {
	var next models.Trip
	var completed int64
	moved := false
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		trip, err := tx.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if trip.Status == to {
			next = *trip
			return nil
		}

		next, err = inventory.Transition(*trip, to)
		if err != nil {
			return err
		}
		if err := tx.Trips.SaveInventory(ctx, &next); err != nil {
			return err
		}
		moved = true

		if to == models.TripCompleted {
			completed, err = tx.Bookings.CompleteForTrip(ctx, id)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return &next, nil
	}

	logger.WithContext(ctx).Info("Trip status changed",
		"trip_id", id,
		"status", next.Status,
		"reason", reason,
		"bookings_completed", completed)
	s.sync.changed(ctx, &next, models.EventTripUpdated, "status:"+reason)
	return &next, nil
}
