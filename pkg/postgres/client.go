package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.ClientRepository = (*ClientRepository)(nil)

const (
	clientColumns = `id, username, firstname, lastname, phone_number, email, password`

	selectClientByID       = `SELECT ` + clientColumns + ` FROM client WHERE id = $1`
	selectClientByUsername = `SELECT ` + clientColumns + ` FROM client WHERE username = $1`
	selectClientByEmailPwd = `SELECT ` + clientColumns + ` FROM client WHERE email = $1 AND password = $2 LIMIT 1`
	selectAllClients       = `SELECT ` + clientColumns + ` FROM client ORDER BY id`

	insertClient = `INSERT INTO client (username, firstname, lastname, phone_number, email, password)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	updateClient = `UPDATE client SET username = $1, firstname = $2, lastname = $3,
		phone_number = $4, email = $5, password = $6 WHERE id = $7`
	deleteClient = `DELETE FROM client WHERE id = $1`

	// Removing a client takes its programs and their line items with it.
	// A single statement keeps the cascade atomic on the server side.
	deleteClientAndPrograms = `
		WITH doomed AS (
			SELECT id FROM program WHERE client_id = $1
		), removed_items AS (
			DELETE FROM program_advertising WHERE program_id IN (SELECT id FROM doomed)
		), removed_programs AS (
			DELETE FROM program WHERE id IN (SELECT id FROM doomed) RETURNING id
		), removed_client AS (
			DELETE FROM client WHERE id = $1
		)
		SELECT count(*) FROM removed_programs`
)

// ClientRepository persists clients in the client table.
type ClientRepository struct {
	store *Store
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.scanOne(ctx, "find client by id", selectClientByID, n)
}

func (r *ClientRepository) FindByUsername(ctx context.Context, username string) (*entity.Client, error) {
	return r.scanOne(ctx, "find client by username", selectClientByUsername, username)
}

func (r *ClientRepository) FindByEmailAndPassword(ctx context.Context, email, password string) (*entity.Client, error) {
	return r.scanOne(ctx, "find client by email and password", selectClientByEmailPwd, email, password)
}

func (r *ClientRepository) FindAll(ctx context.Context) ([]*entity.Client, error) {
	rows, err := r.store.pool.Query(ctx, selectAllClients)
	if err != nil {
		return nil, storageErr("find all clients", err)
	}
	defer rows.Close()

	var clients []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, storageErr("find all clients", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find all clients", err)
	}
	return clients, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *entity.Client) (string, error) {
	var id int64
	err := r.store.pool.QueryRow(ctx, insertClient,
		c.Username, c.Firstname, c.Lastname, c.PhoneNumber, c.Email, c.Password,
	).Scan(&id)
	if err != nil {
		return "", storageErr("save client", err)
	}
	c.ID = formatID(id)
	return c.ID, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *entity.Client) (bool, error) {
	n, err := parseID(c.ID)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, updateClient,
		c.Username, c.Firstname, c.Lastname, c.PhoneNumber, c.Email, c.Password, n,
	)
	if err != nil {
		return false, storageErr("update client", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, deleteClient, n)
	if err != nil {
		return false, storageErr("delete client", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClientRepository) DeleteClientAndPrograms(ctx context.Context, id string) (int64, error) {
	n, err := parseID(id)
	if err != nil {
		return 0, err
	}
	var programs int64
	if err := r.store.pool.QueryRow(ctx, deleteClientAndPrograms, n).Scan(&programs); err != nil {
		return 0, storageErr("delete client and programs", err)
	}
	return programs, nil
}

func (r *ClientRepository) scanOne(ctx context.Context, op, query string, args ...interface{}) (*entity.Client, error) {
	c, err := scanClient(r.store.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return c, nil
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var (
		id int64
		c  entity.Client
	)
	if err := row.Scan(&id, &c.Username, &c.Firstname, &c.Lastname, &c.PhoneNumber, &c.Email, &c.Password); err != nil {
		return nil, err
	}
	c.ID = formatID(id)
	return &c, nil
}
