package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.CategoryRepository = (*CategoryRepository)(nil)

const (
	selectCategoryByID   = `SELECT id, name FROM category WHERE id = $1`
	selectCategoryByName = `SELECT id, name FROM category WHERE name = $1 LIMIT 1`
	selectAllCategories  = `SELECT id, name FROM category ORDER BY id`
	insertCategory       = `INSERT INTO category (name) VALUES ($1) RETURNING id`
	updateCategory       = `UPDATE category SET name = $1 WHERE id = $2`
	deleteCategory       = `DELETE FROM category WHERE id = $1`
)

// CategoryRepository persists categories in the category table.
type CategoryRepository struct {
	store *Store
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.scanOne(ctx, "find category by id", selectCategoryByID, n)
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	return r.scanOne(ctx, "find category by name", selectCategoryByName, name)
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.store.pool.Query(ctx, selectAllCategories)
	if err != nil {
		return nil, storageErr("find all categories", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, storageErr("find all categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find all categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Save(ctx context.Context, c *entity.Category) (string, error) {
	var id int64
	if err := r.store.pool.QueryRow(ctx, insertCategory, c.Name).Scan(&id); err != nil {
		return "", storageErr("save category", err)
	}
	c.ID = formatID(id)
	return c.ID, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) (bool, error) {
	n, err := parseID(c.ID)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, updateCategory, c.Name, n)
	if err != nil {
		return false, storageErr("update category", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, deleteCategory, n)
	if err != nil {
		return false, storageErr("delete category", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CategoryRepository) scanOne(ctx context.Context, op, query string, args ...interface{}) (*entity.Category, error) {
	c, err := scanCategory(r.store.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return c, nil
}

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var (
		id   int64
		name string
	)
	if err := row.Scan(&id, &name); err != nil {
		return nil, err
	}
	return &entity.Category{ID: formatID(id), Name: name}, nil
}
