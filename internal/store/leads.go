package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

type ListLeadsOpts struct {
	Category string
	City     string
	Source   string
	Sort     string // updated | name | rating
	Limit    int
}

const leadColumns = `id, identity_key, name, category, address, city, district,
phones, email, website, social, rating, review_count, lat, lon, source, updated_at`

// UpsertLead writes a merged lead and refreshes its phone index rows.
// It reports whether a new row was created (as opposed to an existing
// lead being updated in place).
//
// absorb lists ids of previously persisted rows that resolved to the same
// entity as lead (one stored phone-less under a name key, another under a
// phone key). Those rows are folded into the surviving row inside the same
// transaction; leaving them behind would collide with the unique identity
// key index when the survivor takes over their key.
func UpsertLead(ctx context.Context, db *sql.DB, lead domain.Lead, absorb ...int64) (inserted bool, err error) {
	phonesB, err := json.Marshal(lead.Phones)
	if err != nil {
		return false, fmt.Errorf("marshal phones: %w", err)
	}
	socialB, err := json.Marshal(lead.Social)
	if err != nil {
		return false, fmt.Errorf("marshal social: %w", err)
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = time.Now().UTC()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// An existing lead keeps its row id even when merging changes its
	// identity key (a phone learned later produces a stronger key).
	id := lead.ID
	if id == 0 {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM leads WHERE identity_key = ?;`, lead.IdentityKey).Scan(&id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
	}

	for _, aid := range absorb {
		if aid == 0 || aid == id {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lead_phones WHERE lead_id=?;`, aid); err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id=?;`, aid); err != nil {
			return false, err
		}
	}

	if id == 0 {
		res, err := tx.ExecContext(ctx, `
INSERT INTO leads(identity_key, name, category, address, city, district,
  phones, email, website, social, rating, review_count, lat, lon, source, updated_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
			lead.IdentityKey, lead.Name, string(lead.Category), lead.Address, lead.City,
			lead.District, string(phonesB), lead.Email, lead.Website, string(socialB),
			lead.Rating, lead.ReviewCount, lead.Geo.Lat, lead.Geo.Lon,
			string(lead.Source), lead.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			return false, err
		}
		id, _ = res.LastInsertId()
		inserted = true
	} else {
		if _, err := tx.ExecContext(ctx, `
UPDATE leads SET identity_key=?, name=?, category=?, address=?, city=?, district=?,
  phones=?, email=?, website=?, social=?, rating=?, review_count=?, lat=?, lon=?,
  source=?, updated_at=?
WHERE id=?;`,
			lead.IdentityKey, lead.Name, string(lead.Category), lead.Address, lead.City,
			lead.District, string(phonesB), lead.Email, lead.Website, string(socialB),
			lead.Rating, lead.ReviewCount, lead.Geo.Lat, lead.Geo.Lon,
			string(lead.Source), lead.UpdatedAt.Format(time.RFC3339), id); err != nil {
			return false, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_phones WHERE lead_id=?;`, id); err != nil {
		return false, err
	}
	for _, p := range lead.Phones {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO lead_phones(phone, lead_id) VALUES(?,?)
ON CONFLICT(phone) DO UPDATE SET lead_id=excluded.lead_id;`, p, id); err != nil {
			return false, err
		}
	}

	return inserted, tx.Commit()
}

// FindByIdentity returns the lead with the given identity key, or nil
// when none exists.
func FindByIdentity(ctx context.Context, db *sql.DB, key string) (*domain.Lead, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE identity_key = ?;`, key)
	return scanLeadRow(row)
}

// FindByPhone resolves a canonical phone to its owning lead, or nil.
func FindByPhone(ctx context.Context, db *sql.DB, phone string) (*domain.Lead, error) {
	row := db.QueryRowContext(ctx, `
SELECT `+leadColumns+`
FROM leads
WHERE id = (SELECT lead_id FROM lead_phones WHERE phone = ?);`, phone)
	return scanLeadRow(row)
}

func ListLeads(ctx context.Context, db *sql.DB, opts ListLeadsOpts) ([]domain.Lead, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	// whitelist sort columns (prevents SQL injection)
	sortExpr := map[string]string{
		"updated": "updated_at DESC",
		"name":    "name ASC",
		"rating":  "rating DESC",
	}[opts.Sort]
	if sortExpr == "" {
		sortExpr = "updated_at DESC"
	}

	where := "WHERE 1=1"
	args := []any{}
	if opts.Category != "" {
		where += " AND category = ?"
		args = append(args, opts.Category)
	}
	if opts.City != "" {
		where += " AND city = ?"
		args = append(args, opts.City)
	}
	if opts.Source != "" {
		where += " AND source = ?"
		args = append(args, opts.Source)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT `+leadColumns+`
FROM leads
%s
ORDER BY %s
LIMIT ?;`, where, sortExpr)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func CountLeads(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads;`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(r rowScanner) (domain.Lead, error) {
	var (
		l          domain.Lead
		cat        string
		phonesJSON string
		socialJSON string
		src        string
		updatedAt  string
	)
	if err := r.Scan(
		&l.ID, &l.IdentityKey, &l.Name, &cat, &l.Address, &l.City, &l.District,
		&phonesJSON, &l.Email, &l.Website, &socialJSON,
		&l.Rating, &l.ReviewCount, &l.Geo.Lat, &l.Geo.Lon, &src, &updatedAt,
	); err != nil {
		return domain.Lead{}, err
	}
	l.Category = domain.Category(cat)
	l.Source = domain.Source(src)
	_ = json.Unmarshal([]byte(phonesJSON), &l.Phones)
	_ = json.Unmarshal([]byte(socialJSON), &l.Social)
	l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return l, nil
}

func scanLeadRow(row *sql.Row) (*domain.Lead, error) {
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
