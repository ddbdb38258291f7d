package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"homerent/internal/config"
	"homerent/internal/database"
	"homerent/internal/models"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	clearExisting  = flag.Bool("clear", false, "Remove existing bookings, payments and accommodations first")
	accommodations = flag.Int("accommodations", 50, "Number of accommodations to generate")
	customers      = flag.Int("customers", 10, "Number of customer accounts to generate")
	adminEmail     = flag.String("admin-email", "admin@homerent.local", "Administrator login")
	adminPassword  = flag.String("admin-password", "admin", "Administrator password")
	dryRun         = flag.Bool("dry-run", false, "Show what would be generated without making changes")
	seed           = flag.Int64("seed", 0, "Random seed (0 = time based)")
)

var (
	cities = []struct{ city, country string }{
		{"Almaty", "Kazakhstan"},
		{"Astana", "Kazakhstan"},
		{"Lisbon", "Portugal"},
		{"Porto", "Portugal"},
		{"Tbilisi", "Georgia"},
		{"Belgrade", "Serbia"},
		{"Kotor", "Montenegro"},
	}
	accommodationTypes = []models.AccommodationType{
		models.AccommodationHouse,
		models.AccommodationApartment,
		models.AccommodationCondo,
		models.AccommodationVacationHome,
	}
	amenityPool = []string{"wifi", "parking", "pool", "kitchen", "air conditioning", "washer", "sea view", "pets allowed"}
)

type Generator struct {
	db  *database.DB
	rnd *rand.Rand
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	slog.Info("Starting data generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	g := &Generator{db: db, rnd: rand.New(rand.NewSource(s))}

	if err := g.Run(context.Background()); err != nil {
		slog.Error("Failed to generate data", "error", err)
		os.Exit(1)
	}

	slog.Info("Data generation completed successfully!")
}

func (g *Generator) Run(ctx context.Context) error {
	users := g.users(*adminEmail, *adminPassword, *customers)
	list := make([]models.Accommodation, 0, *accommodations)
	for i := 0; i < *accommodations; i++ {
		list = append(list, g.accommodation(i))
	}

	if *dryRun {
		slog.Info("[DRY RUN] Would generate data", "users", len(users), "accommodations", len(list), "clear", *clearExisting)
		return nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if *clearExisting {
		if _, err := tx.ExecContext(ctx, "TRUNCATE payments, bookings, accommodations RESTART IDENTITY"); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	created, err := insertUsers(ctx, tx, users)
	if err != nil {
		return fmt.Errorf("failed to insert users: %w", err)
	}
	if err := insertAccommodations(ctx, tx, list); err != nil {
		return fmt.Errorf("failed to insert accommodations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Generated data", "users_created", created, "accommodations", len(list))
	return nil
}

// userSeed - пользователь вместе с паролем в открытом виде для лога
type userSeed struct {
	models.User
	Password string
}

func passwordHash(password string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(password)))
}

func (g *Generator) users(adminEmail, adminPassword string, customers int) []userSeed {
	out := []userSeed{{
		User: models.User{
			Email:        adminEmail,
			PasswordHash: passwordHash(adminPassword),
			FirstName:    "Admin",
			LastName:     "Homerent",
			Role:         models.RoleAdmin,
			IsActive:     true,
		},
		Password: adminPassword,
	}}
	for i := 1; i <= customers; i++ {
		password := fmt.Sprintf("customer%d", i)
		out = append(out, userSeed{
			User: models.User{
				Email:        fmt.Sprintf("customer%d@homerent.local", i),
				PasswordHash: passwordHash(password),
				FirstName:    "Customer",
				LastName:     fmt.Sprintf("#%d", i),
				Role:         models.RoleCustomer,
				IsActive:     true,
			},
			Password: password,
		})
	}
	return out
}

func (g *Generator) accommodation(i int) models.Accommodation {
	place := cities[g.rnd.Intn(len(cities))]
	t := accommodationTypes[g.rnd.Intn(len(accommodationTypes))]

	amenities := pq.StringArray{}
	for _, a := range amenityPool {
		if g.rnd.Intn(3) == 0 {
			amenities = append(amenities, a)
		}
	}

	// цена в центах: 25.00 - 324.99
	rate := decimal.New(int64(2500+g.rnd.Intn(30000)), -2)

	return models.Accommodation{
		Type: t,
		Size: fmt.Sprintf("%d bedrooms", g.rnd.Intn(4)+1),
		Address: models.Address{
			Street:  fmt.Sprintf("Street %d, %d", g.rnd.Intn(200)+1, i+1),
			City:    place.city,
			Country: place.country,
		},
		Amenities:    amenities,
		DailyRate:    rate,
		Availability: g.rnd.Intn(5) + 1,
	}
}

func insertUsers(ctx context.Context, tx *sql.Tx, users []userSeed) (int, error) {
	const stmt = `
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING`

	created := 0
	for _, u := range users {
		res, err := tx.ExecContext(ctx, stmt, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsActive)
		if err != nil {
			return created, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
			slog.Info("Created user", "email", u.Email, "password", u.Password, "role", u.Role)
		}
	}
	return created, nil
}

func insertAccommodations(ctx context.Context, tx *sql.Tx, list []models.Accommodation) error {
	const stmt = `
		INSERT INTO accommodations (type, size, street, city, country, amenities, daily_rate, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, a := range list {
		if _, err := tx.ExecContext(ctx, stmt,
			a.Type, a.Size, a.Address.Street, a.Address.City, a.Address.Country,
			a.Amenities, a.DailyRate, a.Availability,
		); err != nil {
			return err
		}
	}
	return nil
}
