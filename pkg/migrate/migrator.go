// Package migrate copies all records of the four entity kinds from one
// backend to the other. Destination IDs never match source IDs, so related
// entities are re-identified at the destination by natural key: categories
// by name, clients by email and password, advertisings by name, measurement,
// and unit price. A lookup that resolves nothing is a reported, fatal error
// for that entity kind — never a silent skip.
package migrate

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"adstore/pkg/entity"
	"adstore/pkg/factory"
	"adstore/pkg/repository"
)

// Migrator copies records between the backends known to its factory.
type Migrator struct {
	factory *factory.Factory
	log     *slog.Logger
}

// New creates a Migrator. A nil logger disables logging.
func New(f *factory.Factory, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Migrator{factory: f, log: log}
}

// Report counts the records migrated per entity kind.
type Report struct {
	Categories   int
	Advertisings int
	Clients      int
	Programs     int
}

// ResolveError reports a natural-key lookup at the destination that matched
// nothing, making the named record not migratable.
type ResolveError struct {
	Kind   string // entity kind being migrated
	Record string // record that cannot be migrated
	Lookup string // the natural-key lookup that came up empty
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot migrate %s %q: %s matched no destination record", e.Kind, e.Record, e.Lookup)
}

// Run migrates every record from the source backend to the destination, in
// the fixed order Category, Advertising, Client, Program: advertisings need
// their categories resolvable at the destination, and programs need both
// clients and advertisings already there. The first failure aborts; kinds
// migrated before it stay migrated.
func (m *Migrator) Run(ctx context.Context, source, destination factory.Backend) (*Report, error) {
	if source == destination {
		return nil, fmt.Errorf("source and destination backend are both %q", source)
	}
	src, err := m.factory.Set(source)
	if err != nil {
		return nil, err
	}
	dst, err := m.factory.Set(destination)
	if err != nil {
		return nil, err
	}

	m.log.Info("starting migration", "source", source, "destination", destination)

	report := &Report{}
	if report.Categories, err = m.migrateCategories(ctx, src, dst); err != nil {
		return report, err
	}
	if report.Advertisings, err = m.migrateAdvertisings(ctx, src, dst); err != nil {
		return report, err
	}
	if report.Clients, err = m.migrateClients(ctx, src, dst); err != nil {
		return report, err
	}
	if report.Programs, err = m.migratePrograms(ctx, src, dst); err != nil {
		return report, err
	}

	m.log.Info("migration finished",
		"categories", report.Categories,
		"advertisings", report.Advertisings,
		"clients", report.Clients,
		"programs", report.Programs)
	return report, nil
}

// migrateCategories copies categories, reusing any destination category that
// already carries the same name instead of duplicating it. Saves act on
// copies so source entities keep their source-side IDs.
func (m *Migrator) migrateCategories(ctx context.Context, src, dst *repository.Set) (int, error) {
	categories, err := src.Categories.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	copied := 0
	for _, c := range categories {
		existing, err := dst.Categories.FindByName(ctx, c.Name)
		if err != nil {
			return copied, err
		}
		if existing != nil {
			m.log.Debug("category already present", "name", c.Name, "destination_id", existing.ID)
			continue
		}
		cp := c.Clone()
		cp.ID = ""
		if _, err := dst.Categories.Save(ctx, cp); err != nil {
			return copied, err
		}
		copied++
		m.log.Debug("migrated category", "name", c.Name, "source_id", c.ID, "destination_id", cp.ID)
	}
	return copied, nil
}

// migrateAdvertisings re-resolves each advertising's category at the
// destination by name before saving.
func (m *Migrator) migrateAdvertisings(ctx context.Context, src, dst *repository.Set) (int, error) {
	ads, err := src.Advertisings.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range ads {
		if a.Category == nil {
			return 0, fmt.Errorf("%w: source advertising %q has no category", repository.ErrCorruptRecord, a.Name)
		}
		category, err := dst.Categories.FindByName(ctx, a.Category.Name)
		if err != nil {
			return 0, err
		}
		if category == nil {
			return 0, &ResolveError{
				Kind:   "advertising",
				Record: a.Name,
				Lookup: fmt.Sprintf("category by name %q", a.Category.Name),
			}
		}

		cp := a.Clone()
		cp.ID = ""
		cp.Category = category
		if _, err := dst.Advertisings.Save(ctx, cp); err != nil {
			return 0, err
		}
		m.log.Debug("migrated advertising", "name", a.Name, "source_id", a.ID, "destination_id", cp.ID)
	}
	return len(ads), nil
}

// migrateClients copies clients as-is; nothing to resolve.
func (m *Migrator) migrateClients(ctx context.Context, src, dst *repository.Set) (int, error) {
	clients, err := src.Clients.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range clients {
		cp := c.Clone()
		cp.ID = ""
		if _, err := dst.Clients.Save(ctx, cp); err != nil {
			return 0, err
		}
		m.log.Debug("migrated client", "username", c.Username, "source_id", c.ID, "destination_id", cp.ID)
	}
	return len(clients), nil
}

// migratePrograms re-resolves the client by email and password and every
// line-item advertising by its natural key before saving.
func (m *Migrator) migratePrograms(ctx context.Context, src, dst *repository.Set) (int, error) {
	programs, err := src.Programs.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range programs {
		if p.Client == nil {
			return 0, fmt.Errorf("%w: source program %q has no client", repository.ErrCorruptRecord, p.CampaignTitle)
		}
		client, err := dst.Clients.FindByEmailAndPassword(ctx, p.Client.Email, p.Client.Password)
		if err != nil {
			return 0, err
		}
		if client == nil {
			return 0, &ResolveError{
				Kind:   "program",
				Record: p.CampaignTitle,
				Lookup: fmt.Sprintf("client by email %q", p.Client.Email),
			}
		}

		cp := &entity.Program{
			Client:        client,
			CampaignTitle: p.CampaignTitle,
			Description:   p.Description,
			CreatedAt:     p.CreatedAt,
		}
		for _, item := range p.Advertisings {
			ad := item.Advertising
			resolved, err := dst.Advertisings.FindByNaturalKey(ctx, ad.Name, ad.Measurement, ad.UnitPrice)
			if err != nil {
				return 0, err
			}
			if resolved == nil {
				return 0, &ResolveError{
					Kind:   "program",
					Record: p.CampaignTitle,
					Lookup: fmt.Sprintf("advertising by name %q, measurement %q, unit price %s",
						ad.Name, ad.Measurement, ad.UnitPrice),
				}
			}
			cp.AddAdvertising(resolved, item.Quantity)
		}

		if _, err := dst.Programs.Save(ctx, cp); err != nil {
			return 0, err
		}
		m.log.Debug("migrated program", "campaign", p.CampaignTitle, "source_id", p.ID, "destination_id", cp.ID)
	}
	return len(programs), nil
}
