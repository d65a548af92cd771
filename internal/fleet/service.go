package fleet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// RepositoryInterface abstracts fleet persistence for testing
type RepositoryInterface interface {
	CreateBus(ctx context.Context, bus *Bus) error
	GetBus(ctx context.Context, busID uuid.UUID) (*Bus, error)
	ListBuses(ctx context.Context, status *BusStatus, limit, offset int) ([]*Bus, int64, error)
	UpdateBusStatus(ctx context.Context, busID uuid.UUID, status BusStatus) error
	CreateRoute(ctx context.Context, route *Route) error
	GetRoute(ctx context.Context, routeID uuid.UUID) (*Route, error)
	ListRoutes(ctx context.Context, day *time.Weekday, limit, offset int) ([]*Route, int64, error)
	UpdateRouteFare(ctx context.Context, routeID uuid.UUID, baseFare float64) error
	DeactivateRoute(ctx context.Context, routeID uuid.UUID) error
}

// Service handles fleet business logic
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new fleet service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// RegisterBus registers a new bus in the fleet
func (s *Service) RegisterBus(ctx context.Context, req *CreateBusRequest) (*Bus, error) {
	if req.Capacity <= 0 {
		return nil, common.NewBadRequestError("capacity must be a positive integer", nil)
	}

	bus := &Bus{
		ID:          uuid.New(),
		PlateNumber: strings.ToUpper(strings.TrimSpace(req.PlateNumber)),
		Model:       req.Model,
		Capacity:    req.Capacity,
		Status:      BusStatusActive,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateBus(ctx, bus); err != nil {
		return nil, common.NewInternalError("failed to register bus", err)
	}

	logger.WithContext(ctx).Info("Bus registered",
		zap.String("bus_id", bus.ID.String()),
		zap.String("plate_number", bus.PlateNumber),
		zap.Int("capacity", bus.Capacity))

	return bus, nil
}

// GetBus fetches a bus by id
func (s *Service) GetBus(ctx context.Context, busID uuid.UUID) (*Bus, error) {
	bus, err := s.repo.GetBus(ctx, busID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, common.NewNotFoundError("bus not found", err)
		}
		return nil, common.NewInternalError("failed to get bus", err)
	}
	return bus, nil
}

// ListBuses lists buses with optional status filter
func (s *Service) ListBuses(ctx context.Context, status *BusStatus, limit, offset int) ([]*Bus, int64, error) {
	buses, total, err := s.repo.ListBuses(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list buses", err)
	}
	return buses, total, nil
}

// ChangeBusStatus transitions a bus to a new operational status. A retired
// bus stays retired.
func (s *Service) ChangeBusStatus(ctx context.Context, busID uuid.UUID, status BusStatus) (*Bus, error) {
	bus, err := s.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}

	if bus.Status == BusStatusRetired {
		return nil, common.NewUnprocessableError(common.CodeInvalidTransition, "a retired bus cannot change status")
	}

	if err := s.repo.UpdateBusStatus(ctx, busID, status); err != nil {
		return nil, common.NewInternalError("failed to update bus status", err)
	}

	logger.WithContext(ctx).Info("Bus status changed",
		zap.String("bus_id", busID.String()),
		zap.String("from", string(bus.Status)),
		zap.String("to", string(status)))

	bus.Status = status
	return bus, nil
}

// CreateRoute creates a scheduled route served by an active bus
func (s *Service) CreateRoute(ctx context.Context, req *CreateRouteRequest) (*Route, error) {
	if strings.EqualFold(strings.TrimSpace(req.Source), strings.TrimSpace(req.Destination)) {
		return nil, common.NewBadRequestError("destination must differ from source", nil)
	}
	if req.BaseFare < 0 {
		return nil, common.NewBadRequestError("base fare cannot be negative", nil)
	}
	if _, err := time.Parse("15:04", req.DepartureTime); err != nil {
		return nil, common.NewBadRequestError("invalid departure_time format, expected HH:MM", err)
	}
	if _, err := time.Parse("15:04", req.ArrivalTime); err != nil {
		return nil, common.NewBadRequestError("invalid arrival_time format, expected HH:MM", err)
	}

	bus, err := s.GetBus(ctx, req.BusID)
	if err != nil {
		return nil, err
	}
	if !bus.Status.Assignable() {
		return nil, common.NewConflictError(common.CodeBusUnavailable,
			"only active buses may be assigned to routes",
			map[string]string{"bus_id": bus.ID.String(), "status": string(bus.Status)})
	}

	days := make([]time.Weekday, 0, len(req.OperatingDays))
	for _, d := range req.OperatingDays {
		if d < 0 || d > 6 {
			return nil, common.NewBadRequestError("operating_days must be weekday numbers 0-6", nil)
		}
		days = append(days, time.Weekday(d))
	}

	route := &Route{
		ID:            uuid.New(),
		Source:        strings.TrimSpace(req.Source),
		Destination:   strings.TrimSpace(req.Destination),
		BaseFare:      req.BaseFare,
		OperatingDays: days,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		DistanceKM:    req.DistanceKM,
		BusID:         req.BusID,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return nil, common.NewInternalError("failed to create route", err)
	}

	logger.WithContext(ctx).Info("Route created",
		zap.String("route_id", route.ID.String()),
		zap.String("source", route.Source),
		zap.String("destination", route.Destination),
		zap.Float64("base_fare", route.BaseFare))

	return route, nil
}

// GetRoute fetches a route by id
func (s *Service) GetRoute(ctx context.Context, routeID uuid.UUID) (*Route, error) {
	route, err := s.repo.GetRoute(ctx, routeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, common.NewNotFoundError("route not found", err)
		}
		return nil, common.NewInternalError("failed to get route", err)
	}
	return route, nil
}

// ListRoutes lists active routes, optionally filtered by operating weekday
func (s *Service) ListRoutes(ctx context.Context, day *time.Weekday, limit, offset int) ([]*Route, int64, error) {
	routes, total, err := s.repo.ListRoutes(ctx, day, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list routes", err)
	}
	return routes, total, nil
}

// UpdateRouteFare adjusts the base fare of a route (admin operation)
func (s *Service) UpdateRouteFare(ctx context.Context, routeID uuid.UUID, baseFare float64) (*Route, error) {
	if baseFare < 0 {
		return nil, common.NewBadRequestError("base fare cannot be negative", nil)
	}

	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRouteFare(ctx, routeID, baseFare); err != nil {
		return nil, common.NewInternalError("failed to update route fare", err)
	}

	logger.WithContext(ctx).Info("Route fare updated",
		zap.String("route_id", routeID.String()),
		zap.Float64("old_fare", route.BaseFare),
		zap.Float64("new_fare", baseFare))

	route.BaseFare = baseFare
	return route, nil
}

// DeactivateRoute retires a route from sale
func (s *Service) DeactivateRoute(ctx context.Context, routeID uuid.UUID) error {
	if _, err := s.GetRoute(ctx, routeID); err != nil {
		return err
	}
	if err := s.repo.DeactivateRoute(ctx, routeID); err != nil {
		return common.NewInternalError("failed to deactivate route", err)
	}
	return nil
}

// DepartureAt combines a route's departure time-of-day with a calendar date.
// All schedule arithmetic is done in UTC.
func (r *Route) DepartureAt(date time.Time) time.Time {
	t, err := time.Parse("15:04", r.DepartureTime)
	if err != nil {
		return date.UTC().Truncate(24 * time.Hour)
	}
	d := date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
