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

var _ repository.ProgramRepository = (*ProgramRepository)(nil)

const (
	programColumns = `p.id, p.campaign_title, p.description, p.created_at,
		c.id, c.username, c.firstname, c.lastname, c.phone_number, c.email, c.password`
	programFrom = ` FROM program p JOIN client c ON p.client_id = c.id`

	selectProgramByID = `SELECT ` + programColumns + programFrom + ` WHERE p.id = $1`
	selectAllPrograms = `SELECT ` + programColumns + programFrom + ` ORDER BY p.id`

	selectProgramItems = `SELECT a.id, a.name, a.measurement, a.unit_price::text, a.description, a.updated_at,
			cat.id, cat.name, pa.quantity
		FROM program_advertising pa
		JOIN advertising a ON pa.advertising_id = a.id
		JOIN category cat ON a.category_id = cat.id
		WHERE pa.program_id = $1 ORDER BY a.id`

	insertProgram = `INSERT INTO program (client_id, campaign_title, description, created_at)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, now())) RETURNING id, created_at`
	updateProgram = `UPDATE program SET client_id = $1, campaign_title = $2, description = $3 WHERE id = $4`
	deleteProgram = `DELETE FROM program WHERE id = $1`

	upsertProgramItem = `INSERT INTO program_advertising (program_id, advertising_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (program_id, advertising_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	deleteStaleProgramItems = `DELETE FROM program_advertising
		WHERE program_id = $1 AND advertising_id != ALL($2::bigint[])`
	deleteProgramItem = `DELETE FROM program_advertising WHERE program_id = $1 AND advertising_id = $2`

	programExists = `SELECT EXISTS (SELECT 1 FROM program WHERE id = $1)`
)

// ProgramRepository persists programs in the program table and their line
// items in the program_advertising join table. Multi-statement writes run in
// a single transaction; a failure anywhere rolls back the whole sequence.
type ProgramRepository struct {
	store *Store
}

func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*entity.Program, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := scanProgram(r.store.pool.QueryRow(ctx, selectProgramByID, n))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find program by id", err)
	}
	if err := r.loadLineItems(ctx, n, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProgramRepository) FindAll(ctx context.Context) ([]*entity.Program, error) {
	rows, err := r.store.pool.Query(ctx, selectAllPrograms)
	if err != nil {
		return nil, storageErr("find all programs", err)
	}
	defer rows.Close()

	var programs []*entity.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, storageErr("find all programs", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find all programs", err)
	}
	rows.Close()

	for _, p := range programs {
		n, err := parseID(p.ID)
		if err != nil {
			return nil, err
		}
		if err := r.loadLineItems(ctx, n, p); err != nil {
			return nil, err
		}
	}
	return programs, nil
}

func (r *ProgramRepository) Save(ctx context.Context, p *entity.Program) (string, error) {
	clientID, err := requireClient(p)
	if err != nil {
		return "", err
	}

	var createdAt interface{}
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt
	}

	tx, err := r.store.pool.Begin(ctx)
	if err != nil {
		return "", storageErr("save program", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		id       int64
		assigned time.Time
	)
	err = tx.QueryRow(ctx, insertProgram, clientID, p.CampaignTitle, p.Description, createdAt).Scan(&id, &assigned)
	if err != nil {
		if constraintViolation(err) == "program_client_fk" {
			return "", fmt.Errorf("%w: client %s", repository.ErrMissingReference, p.Client.ID)
		}
		return "", storageErr("save program", err)
	}

	if err := insertLineItems(ctx, tx, id, p.Advertisings); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", storageErr("save program", err)
	}
	p.ID = formatID(id)
	p.CreatedAt = assigned
	return p.ID, nil
}

// Update replaces the program row and reconciles the full line-item set:
// new advertisings are inserted, absent ones deleted, and changed quantities
// rewritten, all in one transaction.
func (r *ProgramRepository) Update(ctx context.Context, p *entity.Program) (bool, error) {
	n, err := parseID(p.ID)
	if err != nil {
		return false, err
	}
	clientID, err := requireClient(p)
	if err != nil {
		return false, err
	}

	keepIDs := make([]int64, 0, len(p.Advertisings))
	for _, item := range p.Advertisings {
		adID, err := parseID(item.Advertising.ID)
		if err != nil {
			return false, err
		}
		keepIDs = append(keepIDs, adID)
	}

	tx, err := r.store.pool.Begin(ctx)
	if err != nil {
		return false, storageErr("update program", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateProgram, clientID, p.CampaignTitle, p.Description, n)
	if err != nil {
		if constraintViolation(err) == "program_client_fk" {
			return false, fmt.Errorf("%w: client %s", repository.ErrMissingReference, p.Client.ID)
		}
		return false, storageErr("update program", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, deleteStaleProgramItems, n, keepIDs); err != nil {
		return false, storageErr("update program", err)
	}
	if err := insertLineItems(ctx, tx, n, p.Advertisings); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, storageErr("update program", err)
	}
	return true, nil
}

func (r *ProgramRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := parseID(id)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, deleteProgram, n)
	if err != nil {
		return false, storageErr("delete program", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProgramRepository) SaveAdvertisingToProgram(ctx context.Context, programID string, items []entity.LineItem) (bool, error) {
	n, err := parseID(programID)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		var exists bool
		if err := r.store.pool.QueryRow(ctx, programExists, n).Scan(&exists); err != nil {
			return false, storageErr("save advertising to program", err)
		}
		return exists, nil
	}

	tx, err := r.store.pool.Begin(ctx)
	if err != nil {
		return false, storageErr("save advertising to program", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertLineItems(ctx, tx, n, items); err != nil {
		if errors.Is(err, errUnknownProgram) {
			return false, nil
		}
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, storageErr("save advertising to program", err)
	}
	return true, nil
}

func (r *ProgramRepository) DeleteAdvertisingFromProgram(ctx context.Context, programID, advertisingID string) (bool, error) {
	n, err := parseID(programID)
	if err != nil {
		return false, err
	}
	adID, err := parseID(advertisingID)
	if err != nil {
		return false, err
	}
	tag, err := r.store.pool.Exec(ctx, deleteProgramItem, n, adID)
	if err != nil {
		return false, storageErr("delete advertising from program", err)
	}
	return tag.RowsAffected() > 0, nil
}

// errUnknownProgram marks a line-item insert that failed because the target
// program row does not exist; callers translate it to a (false, nil) miss.
var errUnknownProgram = errors.New("unknown program")

// insertLineItems batches one upsert per line item inside the given
// transaction.
func insertLineItems(ctx context.Context, tx pgx.Tx, programID int64, items []entity.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		adID, err := parseID(item.Advertising.ID)
		if err != nil {
			return err
		}
		batch.Queue(upsertProgramItem, programID, adID, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for _, item := range items {
		if _, err := results.Exec(); err != nil {
			switch constraintViolation(err) {
			case "program_advertising_advertising_fk":
				return fmt.Errorf("%w: advertising %s", repository.ErrMissingReference, item.Advertising.ID)
			case "program_advertising_program_fk":
				return errUnknownProgram
			}
			return storageErr("insert program line item", err)
		}
	}
	return results.Close()
}

func (r *ProgramRepository) loadLineItems(ctx context.Context, programID int64, p *entity.Program) error {
	rows, err := r.store.pool.Query(ctx, selectProgramItems, programID)
	if err != nil {
		return storageErr("load program line items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			adID, categoryID int64
			priceText        string
			categoryName     string
			quantity         int
			a                entity.Advertising
		)
		err := rows.Scan(&adID, &a.Name, &a.Measurement, &priceText, &a.Description, &a.UpdatedAt,
			&categoryID, &categoryName, &quantity)
		if err != nil {
			return storageErr("load program line items", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return fmt.Errorf("%w: unit_price %q: %v", repository.ErrCorruptRecord, priceText, err)
		}
		a.ID = formatID(adID)
		a.UnitPrice = price
		a.Category = &entity.Category{ID: formatID(categoryID), Name: categoryName}
		p.Advertisings = append(p.Advertisings, entity.LineItem{Advertising: &a, Quantity: quantity})
	}
	if err := rows.Err(); err != nil {
		return storageErr("load program line items", err)
	}
	return nil
}

// requireClient validates the owned client reference and decodes its ID.
func requireClient(p *entity.Program) (int64, error) {
	if p.Client == nil || p.Client.ID == "" {
		return 0, fmt.Errorf("%w: program %q has no client", repository.ErrMissingReference, p.CampaignTitle)
	}
	return parseID(p.Client.ID)
}

func scanProgram(row pgx.Row) (*entity.Program, error) {
	var (
		id, clientID int64
		p            entity.Program
		c            entity.Client
	)
	err := row.Scan(&id, &p.CampaignTitle, &p.Description, &p.CreatedAt,
		&clientID, &c.Username, &c.Firstname, &c.Lastname, &c.PhoneNumber, &c.Email, &c.Password)
	if err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	c.ID = formatID(clientID)
	p.Client = &c
	return &p, nil
}
