package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.AdvertisingRepository = (*AdvertisingRepository)(nil)

const (
	// unit_price travels as text so the decimal survives the wire unscathed.
	advertisingColumns = `a.id, a.name, a.measurement, a.unit_price::text, a.description, a.updated_at, c.id, c.name`
	advertisingFrom    = ` FROM advertising a JOIN category c ON a.category_id = c.id`

	selectAdvertisingByID   = `SELECT ` + advertisingColumns + advertisingFrom + ` WHERE a.id = $1`
	selectAdvertisingByName = `SELECT ` + advertisingColumns + advertisingFrom + ` WHERE a.name = $1 LIMIT 1`
	selectAllAdvertisings   = `SELECT ` + advertisingColumns + advertisingFrom + ` ORDER BY a.id`
	selectAdvertisingByKeys = `SELECT ` + advertisingColumns + advertisingFrom +
		` WHERE a.name = $1 AND a.measurement = $2 AND a.unit_price = $3::numeric LIMIT 1`

	insertAdvertising = `INSERT INTO advertising (category_id, name, measurement, unit_price, description, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, COALESCE($6::timestamptz, now())) RETURNING id, updated_at`
	updateAdvertising = `UPDATE advertising SET category_id = $1, name = $2, measurement = $3,
		unit_price = $4::numeric, description = $5, updated_at = now() WHERE id = $6`
	deleteAdvertising = `DELETE FROM advertising WHERE id = $1`
)

// AdvertisingRepository persists advertisings in the advertising table. The
// category is stored as a foreign key and joined back in on every read.
type AdvertisingRepository struct {
	store *Store
}

func (r *AdvertisingRepository) FindByID(ctx context.Context, id string) (*entity.Advertising, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.scanOne(ctx, "find advertising by id", selectAdvertisingByID, n)
}

func (r *AdvertisingRepository) FindByName(ctx context.Context, name string) (*entity.Advertising, error) {
	return r.scanOne(ctx, "find advertising by name", selectAdvertisingByName, name)
}

func (r *AdvertisingRepository) FindByNaturalKey(ctx context.Context, name, measurement string, unitPrice decimal.Decimal) (*entity.Advertising, error) {
	return r.scanOne(ctx, "find advertising by natural key",
		selectAdvertisingByKeys, name, measurement, unitPrice.String())
}

func (r *AdvertisingRepository) FindAll(ctx context.Context) ([]*entity.Advertising, error) {
	rows, err := r.store.pool.Query(ctx, selectAllAdvertisings)
	if err != nil {
		return nil, storageErr("find all advertisings", err)
	}
	defer rows.Close()

	var ads []*entity.Advertising
	for rows.Next() {
		a, err := scanAdvertising(rows)
		if err != nil {
			return nil, storageErr("find all advertisings", err)
		}
		ads = append(ads, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find all advertisings", err)
	}
	return ads, nil
}

func (r *AdvertisingRepository) Save(ctx context.Context, a *entity.Advertising) (string, error) {
	categoryID, err := requireCategory(a)
	if err != nil {
		return "", err
	}

	var updatedAt interface{}
	if !a.UpdatedAt.IsZero() {
		updatedAt = a.UpdatedAt
	}

	var (
		id       int64
		assigned time.Time
	)
	err = r.store.pool.QueryRow(ctx, insertAdvertising,
		categoryID, a.Name, a.Measurement, a.UnitPrice.String(), a.Description, updatedAt,
	).Scan(&id, &assigned)
	if err != nil {
		if constraintViolation(err) == "advertising_category_fk" {
			return "", fmt.Errorf("%w: category %s", repository.ErrMissingReference, a.Category.ID)
		}
		return "", storageErr("save advertising", err)
	}
	a.ID = formatID(id)
	a.UpdatedAt = assigned
	return a.ID, nil
}

func (r *AdvertisingRepository) Update(ctx context.Context, a *entity.Advertising) (bool, error) {
	n, err := parseID(a.ID)
	if err != nil {
		return false, err
	}
	categoryID, err := requireCategory(a)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, updateAdvertising,
		categoryID, a.Name, a.Measurement, a.UnitPrice.String(), a.Description, n,
	)
	if err != nil {
		if constraintViolation(err) == "advertising_category_fk" {
			return false, fmt.Errorf("%w: category %s", repository.ErrMissingReference, a.Category.ID)
		}
		return false, storageErr("update advertising", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AdvertisingRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, deleteAdvertising, n)
	if err != nil {
		return false, storageErr("delete advertising", err)
	}
	return tag.RowsAffected() > 0, nil
}

// requireCategory validates the owned category reference and decodes its ID.
func requireCategory(a *entity.Advertising) (int64, error) {
	if a.Category == nil || a.Category.ID == "" {
		return 0, fmt.Errorf("%w: advertising %q has no category", repository.ErrMissingReference, a.Name)
	}
	return parseID(a.Category.ID)
}

func (r *AdvertisingRepository) scanOne(ctx context.Context, op, query string, args ...interface{}) (*entity.Advertising, error) {
	a, err := scanAdvertising(r.store.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return a, nil
}

func scanAdvertising(row pgx.Row) (*entity.Advertising, error) {
	var (
		id, categoryID int64
		priceText      string
		a              entity.Advertising
		categoryName   string
	)
	err := row.Scan(&id, &a.Name, &a.Measurement, &priceText, &a.Description, &a.UpdatedAt, &categoryID, &categoryName)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, fmt.Errorf("%w: unit_price %q: %v", repository.ErrCorruptRecord, priceText, err)
	}
	a.ID = formatID(id)
	a.UnitPrice = price
	a.Category = &entity.Category{ID: formatID(categoryID), Name: categoryName}
	return &a, nil
}
