// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/infrastructure/storage/postgres"
	"stayledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedDemoData(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Info("seeding completed successfully")
}

// seedDemoData inserts one managed property with a month of activity: channel
// stays, an overlapping lease (one stay deliberately matching the lease tenant
// so the dedup heuristic has something to exclude), expenses and visits.
// Re-running the seeder is a no-op.
func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	propertyID, created, err := seedProperty(ctx, pool)
	if err != nil {
		return fmt.Errorf("seed property: %w", err)
	}
	if !created {
		log.Infow("demo property already exists, skipping", "property_id", propertyID)
		return nil
	}
	log.Infow("demo property created", "property_id", propertyID)

	// Activity lands in the two previous calendar months so the sweeper
	// picks the resulting reconciliations up as due on its first pass.
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for _, monthStart := range []time.Time{thisMonth.AddDate(0, -2, 0), thisMonth.AddDate(0, -1, 0)} {
		if err := seedShortTermBookings(ctx, pool, propertyID, monthStart); err != nil {
			return fmt.Errorf("seed short-term bookings: %w", err)
		}
		if err := seedCosts(ctx, pool, propertyID, monthStart); err != nil {
			return fmt.Errorf("seed costs: %w", err)
		}
		log.Infow("demo activity seeded", "month", monthStart.Format("2006-01"))
	}

	// One lease spanning the later month, so that month's rent gets prorated
	// and the "Maria G" stay in it is excluded as a duplicate.
	if err := seedMidTermLease(ctx, pool, propertyID, thisMonth.AddDate(0, -1, 0)); err != nil {
		return fmt.Errorf("seed mid-term lease: %w", err)
	}
	return nil
}

func seedProperty(ctx context.Context, pool *postgres.Pool) (id.ID, bool, error) {
	const name = "Seaside Cottage"

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM properties WHERE name = $1 AND NOT deletion_mark`,
		name,
	).Scan(&existingID)
	if err == nil {
		return existingID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), false, fmt.Errorf("check property exists: %w", err)
	}

	propertyID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO properties (
			id, name, address, owner_name, owner_email,
			fee_percent, nightly_rate, order_minimum_fee,
			active, deletion_mark, version, created_at, updated_at, created_by, updated_by
		)
		VALUES ($1, $2, '14 Harbour Lane', 'Elena Petrova', 'elena@example.com',
			0.10, 0, 0,
			true, false, 1, now(), now(), 'seed', 'seed')
	`, propertyID, name)
	if err != nil {
		return id.Nil(), false, fmt.Errorf("insert property: %w", err)
	}
	return propertyID, true, nil
}

func seedShortTermBookings(ctx context.Context, pool *postgres.Pool, propertyID id.ID, monthStart time.Time) error {
	type staySeed struct {
		guest       string
		checkInDay  int
		nights      int
		total       types.Money
		cleaningFee types.NullMoney
	}

	stays := []staySeed{
		{"John Smith", 2, 4, types.MustMoney("820.00"), types.SomeMoney(types.MustMoney("95.00"))},
		{"Aisha Khan", 9, 3, types.MustMoney("615.00"), types.SomeMoney(types.MustMoney("95.00"))},
		// Duplicate of the Maria Garcia lease below: same property, dates
		// inside the lease window, first name contained in the tenant name.
		// The engine should exclude this one from revenue.
		{"Maria G", 14, 5, types.MustMoney("1050.00"), types.NoMoney()},
		{"Tom Weaver", 22, 2, types.MustMoney("440.00"), types.SomeMoney(types.MustMoney("95.00"))},
	}

	for _, s := range stays {
		checkIn := monthStart.AddDate(0, 0, s.checkInDay-1)
		checkOut := checkIn.AddDate(0, 0, s.nights)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO short_term_bookings (
				id, property_id, guest_name, check_in, check_out,
				total_amount, accommodation_revenue, cleaning_fee, pet_fee
			)
			VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, NULL)
		`, id.New(), propertyID, s.guest, checkIn, checkOut, s.total, s.cleaningFee)
		if err != nil {
			return fmt.Errorf("insert stay for %s: %w", s.guest, err)
		}
	}
	return nil
}

func seedMidTermLease(ctx context.Context, pool *postgres.Pool, propertyID id.ID, monthStart time.Time) error {
	// Lease spans the tail of the month, so rent gets prorated and the
	// "Maria G" channel stay above falls inside its window.
	leaseStart := monthStart.AddDate(0, 0, 11)
	leaseEnd := leaseStart.AddDate(0, 3, 0)

	_, err := pool.Pool.Exec(ctx, `
		INSERT INTO mid_term_bookings (
			id, property_id, tenant_name, start_date, end_date, monthly_rent, active
		)
		VALUES ($1, $2, 'Maria Garcia', $3, $4, $5, true)
	`, id.New(), propertyID, leaseStart, leaseEnd, types.MustMoney("2850.00"))
	if err != nil {
		return fmt.Errorf("insert lease: %w", err)
	}
	return nil
}

func seedCosts(ctx context.Context, pool *postgres.Pool, propertyID id.ID, monthStart time.Time) error {
	type expenseSeed struct {
		description string
		category    string
		amount      types.Money
		day         int
	}

	expenses := []expenseSeed{
		{"Plumber call-out, leaking tap", "maintenance", types.MustMoney("120.00"), 6},
		{"Garden maintenance", "maintenance", types.MustMoney("65.00"), 17},
		{"Replacement bed linen", "supplies", types.MustMoney("89.50"), 24},
	}

	for _, e := range expenses {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO expenses (id, property_id, description, category, amount, date, exported)
			VALUES ($1, $2, $3, $4, $5, $6, false)
		`, id.New(), propertyID, e.description, e.category, e.amount, monthStart.AddDate(0, 0, e.day-1))
		if err != nil {
			return fmt.Errorf("insert expense %q: %w", e.description, err)
		}
	}

	_, err := pool.Pool.Exec(ctx, `
		INSERT INTO visits (id, property_id, date, price, notes, billed)
		VALUES ($1, $2, $3, $4, 'Mid-stay inspection', false)
	`, id.New(), propertyID, monthStart.AddDate(0, 0, 15), types.MustMoney("45.00"))
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}
