package driver

import (
	"context"
	"time"

	"contact-indexer/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CardRow is one primary-store card row with its aggregated tags.
type CardRow struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	CompanyName     string
	JobTitle        string
	Address         string
	Notes           string
	OCRText         string
	Tags            []string
	UserID          string
	EnrichmentCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CompanyRow is one primary-store company row with its aggregated tags.
type CompanyRow struct {
	ID              string
	Name            string
	Domain          string
	Description     string
	Industry        string
	Address         string
	Tags            []string
	UserID          string
	EnrichmentCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DatabaseDriver reads card and company records from the primary store. The
// search subsystem never writes through it.
type DatabaseDriver struct {
	pool *pgxpool.Pool
}

func NewDatabaseDriver(pool *pgxpool.Pool) *DatabaseDriver {
	return &DatabaseDriver{pool: pool}
}

// NewDatabasePool creates and pings the shared connection pool.
func NewDatabasePool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &DriverError{Op: "NewDatabasePool", Err: "failed to parse database URL: " + err.Error()}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, &DriverError{Op: "NewDatabasePool", Err: "failed to create database pool: " + err.Error()}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &DriverError{Op: "NewDatabasePool", Err: "failed to ping database: " + err.Error()}
	}

	logger.Logger.Info("Database connected successfully")
	return pool, nil
}

func (d *DatabaseDriver) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

const cardSelect = `
	SELECT c.id, c.name,
		   COALESCE(c.email, ''), COALESCE(c.phone, ''),
		   COALESCE(c.company_name, ''), COALESCE(c.job_title, ''),
		   COALESCE(c.address, ''), COALESCE(c.notes, ''),
		   COALESCE(c.ocr_text, ''),
		   COALESCE(
			   array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL),
			   '{}'
		   ) AS tag_names,
		   COALESCE(c.user_id, ''),
		   (SELECT COUNT(*) FROM card_enrichments e WHERE e.card_id = c.id),
		   c.created_at, c.updated_at
	FROM cards c
	LEFT JOIN card_tags ct ON c.id = ct.card_id
	LEFT JOIN tags t ON ct.tag_id = t.id`

const cardGroupBy = `
	GROUP BY c.id, c.name, c.email, c.phone, c.company_name, c.job_title,
			 c.address, c.notes, c.ocr_text, c.user_id, c.created_at, c.updated_at`

// GetCards pages cards with keyset pagination on (created_at, id),
// newest first, the same cursor shape the reindex loop advances.
func (d *DatabaseDriver) GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*CardRow, *time.Time, string, error) {
	var query string
	var args []interface{}

	if lastCreatedAt == nil || lastCreatedAt.IsZero() {
		query = cardSelect + cardGroupBy + `
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $1`
		args = []interface{}{limit}
	} else {
		query = cardSelect + `
			WHERE (c.created_at, c.id) < ($1, $2)` + cardGroupBy + `
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $3`
		args = []interface{}{*lastCreatedAt, lastID, limit}
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, "", &DriverError{Op: "GetCards", Err: err.Error()}
	}
	defer rows.Close()

	var cards []*CardRow
	var finalCreatedAt *time.Time
	var finalID string

	for rows.Next() {
		var c CardRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CompanyName, &c.JobTitle,
			&c.Address, &c.Notes, &c.OCRText, &c.Tags, &c.UserID, &c.EnrichmentCount,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, nil, "", &DriverError{Op: "GetCards", Err: err.Error()}
		}
		cards = append(cards, &c)
		created := c.CreatedAt
		finalCreatedAt = &created
		finalID = c.ID
	}
	if err := rows.Err(); err != nil {
		return nil, nil, "", &DriverError{Op: "GetCards", Err: err.Error()}
	}

	return cards, finalCreatedAt, finalID, nil
}

// GetCardByID fetches a single card with tags.
func (d *DatabaseDriver) GetCardByID(ctx context.Context, id string) (*CardRow, error) {
	query := cardSelect + `
		WHERE c.id = $1` + cardGroupBy

	var c CardRow
	err := d.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.CompanyName, &c.JobTitle, &c.Address, &c.Notes, &c.OCRText, &c.Tags,
		&c.UserID, &c.EnrichmentCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &DriverError{Op: "GetCardByID", Err: "card not found: " + id, NotFound: true}
		}
		return nil, &DriverError{Op: "GetCardByID", Err: err.Error()}
	}
	return &c, nil
}

const companySelect = `
	SELECT c.id, c.name,
		   COALESCE(c.domain, ''), COALESCE(c.description, ''),
		   COALESCE(c.industry, ''), COALESCE(c.address, ''),
		   COALESCE(
			   array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL),
			   '{}'
		   ) AS tag_names,
		   COALESCE(c.user_id, ''),
		   (SELECT COUNT(*) FROM company_enrichments e WHERE e.company_id = c.id),
		   c.created_at, c.updated_at
	FROM companies c
	LEFT JOIN company_tags ct ON c.id = ct.company_id
	LEFT JOIN tags t ON ct.tag_id = t.id`

const companyGroupBy = `
	GROUP BY c.id, c.name, c.domain, c.description, c.industry, c.address,
			 c.user_id, c.created_at, c.updated_at`

// GetCompanies pages companies with the same cursor shape as GetCards.
func (d *DatabaseDriver) GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*CompanyRow, *time.Time, string, error) {
	var query string
	var args []interface{}

	if lastCreatedAt == nil || lastCreatedAt.IsZero() {
		query = companySelect + companyGroupBy + `
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $1`
		args = []interface{}{limit}
	} else {
		query = companySelect + `
			WHERE (c.created_at, c.id) < ($1, $2)` + companyGroupBy + `
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $3`
		args = []interface{}{*lastCreatedAt, lastID, limit}
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, "", &DriverError{Op: "GetCompanies", Err: err.Error()}
	}
	defer rows.Close()

	var companies []*CompanyRow
	var finalCreatedAt *time.Time
	var finalID string

	for rows.Next() {
		var c CompanyRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain, &c.Description, &c.Industry,
			&c.Address, &c.Tags, &c.UserID, &c.EnrichmentCount,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, nil, "", &DriverError{Op: "GetCompanies", Err: err.Error()}
		}
		companies = append(companies, &c)
		created := c.CreatedAt
		finalCreatedAt = &created
		finalID = c.ID
	}
	if err := rows.Err(); err != nil {
		return nil, nil, "", &DriverError{Op: "GetCompanies", Err: err.Error()}
	}

	return companies, finalCreatedAt, finalID, nil
}

// GetCompanyByID fetches a single company with tags.
func (d *DatabaseDriver) GetCompanyByID(ctx context.Context, id string) (*CompanyRow, error) {
	query := companySelect + `
		WHERE c.id = $1` + companyGroupBy

	var c CompanyRow
	err := d.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Domain, &c.Description,
		&c.Industry, &c.Address, &c.Tags, &c.UserID, &c.EnrichmentCount,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &DriverError{Op: "GetCompanyByID", Err: "company not found: " + id, NotFound: true}
		}
		return nil, &DriverError{Op: "GetCompanyByID", Err: err.Error()}
	}
	return &c, nil
}
