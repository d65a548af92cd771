package fleet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles fleet database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new fleet repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateBus inserts a bus
func (r *Repository) CreateBus(ctx context.Context, bus *Bus) error {
	query := `
		INSERT INTO buses (id, plate_number, model, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		bus.ID, bus.PlateNumber, bus.Model, bus.Capacity, bus.Status,
		bus.CreatedAt, bus.UpdatedAt,
	)
	return err
}

// GetBus gets a bus by ID
func (r *Repository) GetBus(ctx context.Context, busID uuid.UUID) (*Bus, error) {
	query := `
		SELECT id, plate_number, model, capacity, status, created_at, updated_at
		FROM buses
		WHERE id = $1
	`
	var bus Bus
	err := r.db.QueryRow(ctx, query, busID).Scan(
		&bus.ID, &bus.PlateNumber, &bus.Model, &bus.Capacity, &bus.Status,
		&bus.CreatedAt, &bus.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

// ListBuses lists buses, optionally filtered by status
func (r *Repository) ListBuses(ctx context.Context, status *BusStatus, limit, offset int) ([]*Bus, int64, error) {
	query := `
		SELECT id, plate_number, model, capacity, status, created_at, updated_at
		FROM buses
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var buses []*Bus
	for rows.Next() {
		var bus Bus
		if err := rows.Scan(
			&bus.ID, &bus.PlateNumber, &bus.Model, &bus.Capacity, &bus.Status,
			&bus.CreatedAt, &bus.UpdatedAt,
		); err != nil {
			continue
		}
		buses = append(buses, &bus)
	}

	var total int64
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM buses WHERE ($1::text IS NULL OR status = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return buses, total, nil
}

// UpdateBusStatus updates the status of a bus
func (r *Repository) UpdateBusStatus(ctx context.Context, busID uuid.UUID, status BusStatus) error {
	query := `UPDATE buses SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, busID)
	return err
}

// CreateRoute inserts a route
func (r *Repository) CreateRoute(ctx context.Context, route *Route) error {
	daysJSON, _ := json.Marshal(route.OperatingDays)

	query := `
		INSERT INTO routes (
			id, source, destination, base_fare, operating_days,
			departure_time, arrival_time, distance_km, bus_id, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		route.ID, route.Source, route.Destination, route.BaseFare, daysJSON,
		route.DepartureTime, route.ArrivalTime, route.DistanceKM, route.BusID, route.IsActive,
		route.CreatedAt, route.UpdatedAt,
	)
	return err
}

// GetRoute gets a route by ID
func (r *Repository) GetRoute(ctx context.Context, routeID uuid.UUID) (*Route, error) {
	query := `
		SELECT id, source, destination, base_fare, operating_days,
			departure_time, arrival_time, distance_km, bus_id, is_active,
			created_at, updated_at
		FROM routes
		WHERE id = $1
	`
	var route Route
	var daysJSON []byte
	err := r.db.QueryRow(ctx, query, routeID).Scan(
		&route.ID, &route.Source, &route.Destination, &route.BaseFare, &daysJSON,
		&route.DepartureTime, &route.ArrivalTime, &route.DistanceKM, &route.BusID, &route.IsActive,
		&route.CreatedAt, &route.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(daysJSON, &route.OperatingDays)
	return &route, nil
}

// ListRoutes lists active routes, optionally filtered by operating day
func (r *Repository) ListRoutes(ctx context.Context, day *time.Weekday, limit, offset int) ([]*Route, int64, error) {
	query := `
		SELECT id, source, destination, base_fare, operating_days,
			departure_time, arrival_time, distance_km, bus_id, is_active,
			created_at, updated_at
		FROM routes
		WHERE is_active = true
		ORDER BY source ASC, destination ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		var route Route
		var daysJSON []byte
		if err := rows.Scan(
			&route.ID, &route.Source, &route.Destination, &route.BaseFare, &daysJSON,
			&route.DepartureTime, &route.ArrivalTime, &route.DistanceKM, &route.BusID, &route.IsActive,
			&route.CreatedAt, &route.UpdatedAt,
		); err != nil {
			continue
		}
		_ = json.Unmarshal(daysJSON, &route.OperatingDays)
		if day != nil && !route.OperatesOn(*day) {
			continue
		}
		routes = append(routes, &route)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM routes WHERE is_active = true`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return routes, total, nil
}

// UpdateRouteFare updates the base fare of a route
func (r *Repository) UpdateRouteFare(ctx context.Context, routeID uuid.UUID, baseFare float64) error {
	query := `UPDATE routes SET base_fare = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, baseFare, routeID)
	return err
}

// DeactivateRoute soft-deletes a route
func (r *Repository) DeactivateRoute(ctx context.Context, routeID uuid.UUID) error {
	query := `UPDATE routes SET is_active = false, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, routeID)
	return err
}
