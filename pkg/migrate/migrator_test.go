package migrate

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"adstore/pkg/entity"
	"adstore/pkg/factory"
	"adstore/pkg/repository"
)

// memBackend is an in-memory repository set used to exercise the migrator
// without a real database. IDs are assigned from a per-backend counter so the
// two sides never share an identifier space, which is exactly the situation
// the natural-key re-resolution exists for.
type memBackend struct {
	nextID       int
	categories   []*entity.Category
	clients      []*entity.Client
	advertisings []*entity.Advertising
	programs     []*entity.Program
}

func newMemBackend(seed int) *memBackend {
	return &memBackend{nextID: seed}
}

func (m *memBackend) id() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *memBackend) set() *repository.Set {
	return &repository.Set{
		Categories:   &memCategories{b: m},
		Clients:      &memClients{b: m},
		Advertisings: &memAdvertisings{b: m},
		Programs:     &memPrograms{b: m},
	}
}

type memCategories struct{ b *memBackend }

func (r *memCategories) FindByID(_ context.Context, id string) (*entity.Category, error) {
	for _, c := range r.b.categories {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memCategories) FindAll(_ context.Context) ([]*entity.Category, error) {
	out := make([]*entity.Category, len(r.b.categories))
	for i, c := range r.b.categories {
		out[i] = c.Clone()
	}
	return out, nil
}

func (r *memCategories) Save(_ context.Context, c *entity.Category) (string, error) {
	c.ID = r.b.id()
	r.b.categories = append(r.b.categories, c.Clone())
	return c.ID, nil
}

func (r *memCategories) Update(_ context.Context, c *entity.Category) (bool, error) {
	for i, stored := range r.b.categories {
		if stored.ID == c.ID {
			r.b.categories[i] = c.Clone()
			return true, nil
		}
	}
	return false, nil
}

func (r *memCategories) Delete(_ context.Context, id string) (bool, error) {
	for i, stored := range r.b.categories {
		if stored.ID == id {
			r.b.categories = append(r.b.categories[:i], r.b.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memCategories) FindByName(_ context.Context, name string) (*entity.Category, error) {
	for _, c := range r.b.categories {
		if c.Name == name {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

type memClients struct{ b *memBackend }

func (r *memClients) FindByID(_ context.Context, id string) (*entity.Client, error) {
	for _, c := range r.b.clients {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memClients) FindAll(_ context.Context) ([]*entity.Client, error) {
	out := make([]*entity.Client, len(r.b.clients))
	for i, c := range r.b.clients {
		out[i] = c.Clone()
	}
	return out, nil
}

func (r *memClients) Save(_ context.Context, c *entity.Client) (string, error) {
	c.ID = r.b.id()
	r.b.clients = append(r.b.clients, c.Clone())
	return c.ID, nil
}

func (r *memClients) Update(_ context.Context, c *entity.Client) (bool, error) {
	for i, stored := range r.b.clients {
		if stored.ID == c.ID {
			r.b.clients[i] = c.Clone()
			return true, nil
		}
	}
	return false, nil
}

func (r *memClients) Delete(_ context.Context, id string) (bool, error) {
	for i, stored := range r.b.clients {
		if stored.ID == id {
			r.b.clients = append(r.b.clients[:i], r.b.clients[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memClients) FindByUsername(_ context.Context, username string) (*entity.Client, error) {
	for _, c := range r.b.clients {
		if c.Username == username {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memClients) FindByEmailAndPassword(_ context.Context, email, password string) (*entity.Client, error) {
	for _, c := range r.b.clients {
		if c.Email == email && c.Password == password {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memClients) DeleteClientAndPrograms(_ context.Context, id string) (int64, error) {
	var removed int64
	kept := r.b.programs[:0]
	for _, p := range r.b.programs {
		if p.Client != nil && p.Client.ID == id {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	r.b.programs = kept
	if ok, _ := r.Delete(context.Background(), id); !ok {
		return 0, nil
	}
	return removed, nil
}

type memAdvertisings struct{ b *memBackend }

func (r *memAdvertisings) FindByID(_ context.Context, id string) (*entity.Advertising, error) {
	for _, a := range r.b.advertisings {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memAdvertisings) FindAll(_ context.Context) ([]*entity.Advertising, error) {
	out := make([]*entity.Advertising, len(r.b.advertisings))
	for i, a := range r.b.advertisings {
		out[i] = a.Clone()
	}
	return out, nil
}

func (r *memAdvertisings) Save(_ context.Context, a *entity.Advertising) (string, error) {
	if a.Category == nil {
		return "", repository.ErrMissingReference
	}
	a.ID = r.b.id()
	r.b.advertisings = append(r.b.advertisings, a.Clone())
	return a.ID, nil
}

func (r *memAdvertisings) Update(_ context.Context, a *entity.Advertising) (bool, error) {
	for i, stored := range r.b.advertisings {
		if stored.ID == a.ID {
			r.b.advertisings[i] = a.Clone()
			return true, nil
		}
	}
	return false, nil
}

func (r *memAdvertisings) Delete(_ context.Context, id string) (bool, error) {
	for i, stored := range r.b.advertisings {
		if stored.ID == id {
			r.b.advertisings = append(r.b.advertisings[:i], r.b.advertisings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memAdvertisings) FindByName(_ context.Context, name string) (*entity.Advertising, error) {
	for _, a := range r.b.advertisings {
		if a.Name == name {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memAdvertisings) FindByNaturalKey(_ context.Context, name, measurement string, unitPrice decimal.Decimal) (*entity.Advertising, error) {
	for _, a := range r.b.advertisings {
		if a.MatchesNaturalKey(name, measurement, unitPrice) {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

type memPrograms struct{ b *memBackend }

func (r *memPrograms) FindByID(_ context.Context, id string) (*entity.Program, error) {
	for _, p := range r.b.programs {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memPrograms) FindAll(_ context.Context) ([]*entity.Program, error) {
	out := make([]*entity.Program, len(r.b.programs))
	for i, p := range r.b.programs {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *memPrograms) Save(_ context.Context, p *entity.Program) (string, error) {
	if p.Client == nil {
		return "", repository.ErrMissingReference
	}
	p.ID = r.b.id()
	r.b.programs = append(r.b.programs, p.Clone())
	return p.ID, nil
}

func (r *memPrograms) Update(_ context.Context, p *entity.Program) (bool, error) {
	for i, stored := range r.b.programs {
		if stored.ID == p.ID {
			r.b.programs[i] = p.Clone()
			return true, nil
		}
	}
	return false, nil
}

func (r *memPrograms) Delete(_ context.Context, id string) (bool, error) {
	for i, stored := range r.b.programs {
		if stored.ID == id {
			r.b.programs = append(r.b.programs[:i], r.b.programs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memPrograms) SaveAdvertisingToProgram(_ context.Context, programID string, items []entity.LineItem) (bool, error) {
	for _, p := range r.b.programs {
		if p.ID == programID {
			for _, item := range items {
				p.AddAdvertising(item.Advertising, item.Quantity)
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *memPrograms) DeleteAdvertisingFromProgram(_ context.Context, programID, advertisingID string) (bool, error) {
	for _, p := range r.b.programs {
		if p.ID == programID {
			return p.RemoveAdvertising(advertisingID), nil
		}
	}
	return false, nil
}

// seedSource fills a backend with one category, one advertising, one client,
// and one program booking that advertising.
func seedSource(t *testing.T, b *memBackend) {
	t.Helper()
	ctx := context.Background()
	set := b.set()

	tv := &entity.Category{Name: "TV"}
	if _, err := set.Categories.Save(ctx, tv); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	ad := &entity.Advertising{
		Category:    tv,
		Name:        "Prime time spot",
		Measurement: "30s",
		UnitPrice:   decimal.RequireFromString("1500.00"),
		Description: "Evening slot",
	}
	if _, err := set.Advertisings.Save(ctx, ad); err != nil {
		t.Fatalf("seed advertising: %v", err)
	}

	client := &entity.Client{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "secret",
	}
	if _, err := set.Clients.Save(ctx, client); err != nil {
		t.Fatalf("seed client: %v", err)
	}

	program := &entity.Program{
		Client:        client,
		CampaignTitle: "Spring launch",
	}
	program.AddAdvertising(ad, 4)
	if _, err := set.Programs.Save(ctx, program); err != nil {
		t.Fatalf("seed program: %v", err)
	}
}

func buildTestFactory(src, dst *memBackend) *factory.Factory {
	f := factory.New()
	f.Register(factory.Relational, src.set())
	f.Register(factory.Document, dst.set())
	return f
}

func TestMigrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("migrates all kinds in order", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)

		report, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := Report{Categories: 1, Advertisings: 1, Clients: 1, Programs: 1}
		if *report != want {
			t.Errorf("report = %+v, want %+v", *report, want)
		}
	})

	t.Run("related records resolve to destination IDs", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)

		if _, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if len(dst.programs) != 1 {
			t.Fatalf("expected 1 destination program, got %d", len(dst.programs))
		}
		p := dst.programs[0]
		if p.Client.ID == src.programs[0].Client.ID {
			t.Error("destination program still references the source client ID")
		}
		if p.Client.Email != "jdoe@example.com" {
			t.Errorf("destination client email = %q", p.Client.Email)
		}
		if len(p.Advertisings) != 1 {
			t.Fatalf("expected 1 line item, got %d", len(p.Advertisings))
		}
		item := p.Advertisings[0]
		if item.Quantity != 4 {
			t.Errorf("line-item quantity = %d, want 4", item.Quantity)
		}
		if item.Advertising.ID == src.programs[0].Advertisings[0].Advertising.ID {
			t.Error("destination line item still references the source advertising ID")
		}
		if item.Advertising.ID != dst.advertisings[0].ID {
			t.Error("line item does not reference the migrated destination advertising")
		}
	})

	t.Run("existing destination category is reused", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)
		preexisting := &entity.Category{Name: "TV"}
		if _, err := dst.set().Categories.Save(ctx, preexisting); err != nil {
			t.Fatalf("seed destination category: %v", err)
		}

		report, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Categories != 0 {
			t.Errorf("report.Categories = %d, want 0 for a reused category", report.Categories)
		}
		if len(dst.categories) != 1 {
			t.Fatalf("destination has %d TV categories, want 1", len(dst.categories))
		}
		if dst.advertisings[0].Category.ID != preexisting.ID {
			t.Errorf("advertising category ID = %q, want the pre-existing %q",
				dst.advertisings[0].Category.ID, preexisting.ID)
		}
	})

	t.Run("source records keep their IDs", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)
		categoryID := src.categories[0].ID
		programID := src.programs[0].ID

		if _, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if src.categories[0].ID != categoryID {
			t.Error("migration changed a source category ID")
		}
		if src.programs[0].ID != programID {
			t.Error("migration changed a source program ID")
		}
	})

	t.Run("unresolvable category aborts with ResolveError", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)
		// An advertising whose category was never saved at the source cannot
		// resolve at the destination either.
		src.advertisings = append(src.advertisings, &entity.Advertising{
			ID:          "99",
			Category:    &entity.Category{ID: "98", Name: "Print"},
			Name:        "Full page",
			Measurement: "page",
			UnitPrice:   decimal.RequireFromString("800.00"),
		})

		report, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document)
		var resolveErr *ResolveError
		if !errors.As(err, &resolveErr) {
			t.Fatalf("expected ResolveError, got %v", err)
		}
		if resolveErr.Kind != "advertising" || resolveErr.Record != "Full page" {
			t.Errorf("ResolveError = %+v", resolveErr)
		}
		// Categories migrated before the failure stay migrated.
		if report == nil || report.Categories != 1 {
			t.Errorf("expected partial report with 1 category, got %+v", report)
		}
		if report.Advertisings != 0 {
			t.Errorf("expected no advertisings counted, got %d", report.Advertisings)
		}
	})

	t.Run("unresolvable program client aborts with ResolveError", func(t *testing.T) {
		src := newMemBackend(0)
		dst := newMemBackend(1000)
		seedSource(t, src)
		src.programs[0].Client = &entity.Client{
			ID:       "77",
			Email:    "ghost@example.com",
			Password: "none",
		}

		_, err := New(buildTestFactory(src, dst), nil).Run(ctx, factory.Relational, factory.Document)
		var resolveErr *ResolveError
		if !errors.As(err, &resolveErr) {
			t.Fatalf("expected ResolveError, got %v", err)
		}
		if resolveErr.Kind != "program" || resolveErr.Record != "Spring launch" {
			t.Errorf("ResolveError = %+v", resolveErr)
		}
	})

	t.Run("same source and destination rejected", func(t *testing.T) {
		src := newMemBackend(0)
		if _, err := New(buildTestFactory(src, src), nil).Run(ctx, factory.Relational, factory.Relational); err == nil {
			t.Error("expected error for identical backends")
		}
	})

	t.Run("unregistered backend rejected", func(t *testing.T) {
		f := factory.New()
		f.Register(factory.Relational, newMemBackend(0).set())
		if _, err := New(f, nil).Run(ctx, factory.Relational, factory.Document); err == nil {
			t.Error("expected error for unregistered destination")
		}
	})

	t.Run("round trip preserves natural keys", func(t *testing.T) {
		a := newMemBackend(0)
		b := newMemBackend(1000)
		c := newMemBackend(2000)
		seedSource(t, a)

		f := factory.New()
		f.Register(factory.Relational, a.set())
		f.Register(factory.Document, b.set())
		if _, err := New(f, nil).Run(ctx, factory.Relational, factory.Document); err != nil {
			t.Fatalf("first hop failed: %v", err)
		}

		back := factory.New()
		back.Register(factory.Document, b.set())
		back.Register(factory.Relational, c.set())
		if _, err := New(back, nil).Run(ctx, factory.Document, factory.Relational); err != nil {
			t.Fatalf("second hop failed: %v", err)
		}

		if len(c.programs) != 1 {
			t.Fatalf("expected 1 program after round trip, got %d", len(c.programs))
		}
		p := c.programs[0]
		if p.CampaignTitle != "Spring launch" || p.Client.Username != "jdoe" {
			t.Errorf("round trip lost program fields: %+v", p)
		}
		item := p.Advertisings[0]
		if !item.Advertising.MatchesNaturalKey("Prime time spot", "30s", decimal.RequireFromString("1500.00")) {
			t.Error("round trip lost the advertising natural key")
		}
	})
}

func TestResolveError_Error(t *testing.T) {
	err := &ResolveError{Kind: "program", Record: "Spring launch", Lookup: `client by email "x@y"`}
	want := `cannot migrate program "Spring launch": client by email "x@y" matched no destination record`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
