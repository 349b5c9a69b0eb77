//go:build integration
// +build integration

package adstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"adstore/pkg/entity"
	"adstore/pkg/factory"
	"adstore/pkg/migrate"
	"adstore/pkg/mongodb"
	"adstore/pkg/postgres"
	"adstore/pkg/repository"
)

// setupBackends starts one PostgreSQL and one MongoDB container and returns a
// factory with both stores registered.
func setupBackends(t *testing.T) (*factory.Factory, *postgres.Store, *mongodb.Store) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("adstore_test"),
		tcpostgres.WithUsername("adstore"),
		tcpostgres.WithPassword("adstore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get PostgreSQL connection string: %v", err)
	}
	pg, err := postgres.ConnectWithURL(ctx, connStr, nil)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	t.Cleanup(pg.Close)
	if err := pg.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	mongoContainer, err := tcmongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() { _ = mongoContainer.Terminate(ctx) })

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get MongoDB connection string: %v", err)
	}
	mg, err := mongodb.Connect(ctx, uri, "adstore_test")
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() { _ = mg.Close(context.Background()) })

	f := factory.New()
	f.Register(factory.Relational, pg.Repositories())
	f.Register(factory.Document, mg.Repositories())
	return f, pg, mg
}

// seed fills the given backend with two categories, two advertisings, one
// client, and one program booking both advertisings.
func seed(t *testing.T, set *repository.Set) {
	t.Helper()
	ctx := context.Background()

	tv := &entity.Category{Name: "TV"}
	radio := &entity.Category{Name: "Radio"}
	for _, c := range []*entity.Category{tv, radio} {
		if _, err := set.Categories.Save(ctx, c); err != nil {
			t.Fatalf("seed category: %v", err)
		}
	}

	prime := &entity.Advertising{
		Category:    tv,
		Name:        "Prime time spot",
		Measurement: "30s",
		UnitPrice:   decimal.RequireFromString("1500.00"),
		Description: "Evening slot",
	}
	drive := &entity.Advertising{
		Category:    radio,
		Name:        "Morning drive",
		Measurement: "60s",
		UnitPrice:   decimal.RequireFromString("320.50"),
	}
	for _, a := range []*entity.Advertising{prime, drive} {
		if _, err := set.Advertisings.Save(ctx, a); err != nil {
			t.Fatalf("seed advertising: %v", err)
		}
	}

	client := &entity.Client{
		Username:    "jdoe",
		Firstname:   "John",
		Lastname:    "Doe",
		PhoneNumber: "+380501234567",
		Email:       "jdoe@example.com",
		Password:    "secret",
	}
	if _, err := set.Clients.Save(ctx, client); err != nil {
		t.Fatalf("seed client: %v", err)
	}

	program := &entity.Program{
		Client:        client,
		CampaignTitle: "Spring launch",
		Description:   "Q2 awareness push",
	}
	program.AddAdvertising(prime, 4)
	program.AddAdvertising(drive, 10)
	if _, err := set.Programs.Save(ctx, program); err != nil {
		t.Fatalf("seed program: %v", err)
	}
}

// verify checks that the backend holds the seeded data under its own IDs.
func verify(t *testing.T, set *repository.Set) {
	t.Helper()
	ctx := context.Background()

	categories, err := set.Categories.FindAll(ctx)
	if err != nil || len(categories) != 2 {
		t.Fatalf("FindAll categories = %d, %v, want 2", len(categories), err)
	}

	ad, err := set.Advertisings.FindByNaturalKey(ctx, "Prime time spot", "30s", decimal.RequireFromString("1500.00"))
	if err != nil || ad == nil {
		t.Fatalf("migrated advertising not resolvable by natural key: %v", err)
	}
	if ad.Category == nil || ad.Category.Name != "TV" {
		t.Errorf("advertising category = %+v, want TV", ad.Category)
	}

	client, err := set.Clients.FindByEmailAndPassword(ctx, "jdoe@example.com", "secret")
	if err != nil || client == nil {
		t.Fatalf("migrated client not resolvable by natural key: %v", err)
	}
	if client.Username != "jdoe" || client.PhoneNumber != "+380501234567" {
		t.Errorf("client fields lost: %+v", client)
	}

	programs, err := set.Programs.FindAll(ctx)
	if err != nil || len(programs) != 1 {
		t.Fatalf("FindAll programs = %d, %v, want 1", len(programs), err)
	}
	p := programs[0]
	if p.CampaignTitle != "Spring launch" || p.Client.ID != client.ID {
		t.Errorf("program fields lost: %+v", p)
	}
	if len(p.Advertisings) != 2 {
		t.Fatalf("program has %d line items, want 2", len(p.Advertisings))
	}
	if qty, ok := p.Quantity(ad.ID); !ok || qty != 4 {
		t.Errorf("prime time quantity = %d (found=%v), want 4", qty, ok)
	}
}

func TestMigration_RelationalToDocument(t *testing.T) {
	ctx := context.Background()
	f, pg, _ := setupBackends(t)
	seed(t, pg.Repositories())

	report, err := migrate.New(f, nil).Run(ctx, factory.Relational, factory.Document)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	want := migrate.Report{Categories: 2, Advertisings: 2, Clients: 1, Programs: 1}
	if *report != want {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	set, _ := f.Set(factory.Document)
	verify(t, set)

	// The source is untouched.
	srcSet, _ := f.Set(factory.Relational)
	verify(t, srcSet)
}

func TestMigration_DocumentToRelational(t *testing.T) {
	ctx := context.Background()
	f, _, mg := setupBackends(t)
	seed(t, mg.Repositories())

	report, err := migrate.New(f, nil).Run(ctx, factory.Document, factory.Relational)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	want := migrate.Report{Categories: 2, Advertisings: 2, Clients: 1, Programs: 1}
	if *report != want {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	set, _ := f.Set(factory.Relational)
	verify(t, set)
}

func TestMigration_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f, pg, _ := setupBackends(t)
	seed(t, pg.Repositories())

	if _, err := migrate.New(f, nil).Run(ctx, factory.Relational, factory.Document); err != nil {
		t.Fatalf("first hop failed: %v", err)
	}

	// Clear the relational side before migrating back.
	for _, table := range []string{"program_advertising", "program", "advertising", "client", "category"} {
		if _, err := pg.Pool().Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}

	if _, err := migrate.New(f, nil).Run(ctx, factory.Document, factory.Relational); err != nil {
		t.Fatalf("second hop failed: %v", err)
	}

	set, _ := f.Set(factory.Relational)
	verify(t, set)
}
