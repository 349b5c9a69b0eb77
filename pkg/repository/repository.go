// Package repository defines the backend-agnostic persistence contract for
// the advertising-campaign domain. Both storage backends implement the same
// per-entity interfaces, which is what lets callers — the migrator included —
// swap backends without changing code.
//
// Lookup misses are not errors: FindByID and the FindBy* extensions return
// (nil, nil) when no record matches, and Update/Delete return (false, nil)
// when the ID does not exist. Errors are reserved for backend failures,
// malformed identifiers, and corrupt stored data.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"adstore/pkg/entity"
)

// CategoryRepository persists advertising categories.
type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Category, error)
	FindAll(ctx context.Context) ([]*entity.Category, error)
	// Save assigns a backend-generated ID, sets it on the entity, and
	// returns it.
	Save(ctx context.Context, c *entity.Category) (string, error)
	Update(ctx context.Context, c *entity.Category) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByName(ctx context.Context, name string) (*entity.Category, error)
}

// ClientRepository persists clients.
type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Client, error)
	FindAll(ctx context.Context) ([]*entity.Client, error)
	Save(ctx context.Context, c *entity.Client) (string, error)
	Update(ctx context.Context, c *entity.Client) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*entity.Client, error)
	// FindByEmailAndPassword looks a client up by its cross-backend natural
	// key. It also backs the demo authentication path.
	FindByEmailAndPassword(ctx context.Context, email, password string) (*entity.Client, error)
	// DeleteClientAndPrograms removes the client together with all of its
	// programs and their line items, returning the number of programs
	// removed. Deleting an unknown client returns (0, nil).
	DeleteClientAndPrograms(ctx context.Context, id string) (int64, error)
}

// AdvertisingRepository persists advertisings.
type AdvertisingRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Advertising, error)
	FindAll(ctx context.Context) ([]*entity.Advertising, error)
	// Save requires the advertising's category to exist in the same backend;
	// a missing or unknown category is rejected and nothing is persisted.
	Save(ctx context.Context, a *entity.Advertising) (string, error)
	Update(ctx context.Context, a *entity.Advertising) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByName(ctx context.Context, name string) (*entity.Advertising, error)
	// FindByNaturalKey looks an advertising up by name, measurement, and
	// unit price — the key used to re-identify records across backends.
	FindByNaturalKey(ctx context.Context, name, measurement string, unitPrice decimal.Decimal) (*entity.Advertising, error)
}

// ProgramRepository persists campaign programs and their line items.
type ProgramRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Program, error)
	FindAll(ctx context.Context) ([]*entity.Program, error)
	// Save persists the program and all of its line items atomically:
	// either the whole program becomes visible or none of it does.
	Save(ctx context.Context, p *entity.Program) (string, error)
	// Update replaces the stored record and reconciles the full line-item
	// set — added, removed, and requantified advertisings all take effect.
	Update(ctx context.Context, p *entity.Program) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// SaveAdvertisingToProgram appends line items to an existing program
	// without rewriting the rest of the record.
	SaveAdvertisingToProgram(ctx context.Context, programID string, items []entity.LineItem) (bool, error)
	// DeleteAdvertisingFromProgram removes a single line item by
	// advertising ID.
	DeleteAdvertisingFromProgram(ctx context.Context, programID, advertisingID string) (bool, error)
}

// Set bundles the four repositories of one backend.
type Set struct {
	Categories   CategoryRepository
	Clients      ClientRepository
	Advertisings AdvertisingRepository
	Programs     ProgramRepository
}
