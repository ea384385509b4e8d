// Package guestd is a self-contained Guest Directory Service backed by
// libSQL. It speaks the same HTTP wire format the kiosk's directory client
// expects and is meant for development, demos and integration tests.
package guestd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rayarayu/checkin/internal/kiosk"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicate          = errors.New("already exists")
)

const timeLayout = "2006-01-02T15:04:05.000Z"

type Operator struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     kiosk.Role `json:"role"`
}

type Invitation struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Qty         int        `json:"qty"`
	QtyRecorded int        `json:"qty_recorded"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// Totals are attendance counters in guests, not invitations.
type Totals struct {
	Guests          int
	CheckedInGuests int
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateOperator stores a new operator with a bcrypt hash of password.
func (s *Store) CreateOperator(ctx context.Context, username, password string, role kiosk.Role) (Operator, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return Operator{}, fmt.Errorf("%w: username and password are required", kiosk.ErrInvalidInput)
	}
	if !role.Valid() {
		return Operator{}, fmt.Errorf("%w: unknown role %q", kiosk.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Operator{}, fmt.Errorf("hashing password: %w", err)
	}

	op := Operator{ID: uuid.NewString(), Username: username, Role: role}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO operators (id, username, role, password_hash) VALUES (?, ?, ?, ?)`,
		op.ID, op.Username, string(op.Role), string(hash),
	)
	if isUniqueViolation(err) {
		return Operator{}, fmt.Errorf("operator %q: %w", username, ErrDuplicate)
	}
	if err != nil {
		return Operator{}, fmt.Errorf("inserting operator: %w", err)
	}
	return op, nil
}

// Authenticate checks the password and that the operator holds role.
func (s *Store) Authenticate(ctx context.Context, username, password string, role kiosk.Role) (Operator, error) {
	var (
		op   Operator
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash FROM operators WHERE username = ?`,
		strings.TrimSpace(strings.ToLower(username)),
	).Scan(&op.ID, &op.Username, &op.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, ErrInvalidCredentials
	}
	if err != nil {
		return Operator{}, fmt.Errorf("looking up operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Operator{}, ErrInvalidCredentials
	}
	if role != "" && role != op.Role {
		return Operator{}, ErrInvalidCredentials
	}
	return op, nil
}

func (s *Store) CreateSession(ctx context.Context, operatorID string) (string, error) {
	token := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operator_sessions (token, operator_id) VALUES (?, ?)`,
		token, operatorID,
	)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operator_sessions WHERE token = ?`, token)
	return err
}

func (s *Store) OperatorFromToken(ctx context.Context, token string) (Operator, error) {
	var op Operator
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.username, o.role
		FROM operator_sessions s
		JOIN operators o ON o.id = s.operator_id
		WHERE s.token = ?
	`, token).Scan(&op.ID, &op.Username, &op.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	if err != nil {
		return Operator{}, fmt.Errorf("looking up session: %w", err)
	}
	return op, nil
}

// AddInvitation registers a guest. An empty slug gets a generated one.
func (s *Store) AddInvitation(ctx context.Context, slug, name string, qty int) (Invitation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invitation{}, fmt.Errorf("%w: name is required", kiosk.ErrInvalidInput)
	}
	if qty < 1 {
		qty = 1
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	inv := Invitation{ID: uuid.NewString(), Slug: slug, Name: name, Qty: qty}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invitations (id, slug, name, search_key, qty) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.Slug, inv.Name, foldKey(inv.Name), inv.Qty,
	)
	if isUniqueViolation(err) {
		return Invitation{}, fmt.Errorf("invitation %q: %w", slug, ErrDuplicate)
	}
	if err != nil {
		return Invitation{}, fmt.Errorf("inserting invitation: %w", err)
	}
	return inv, nil
}

func (s *Store) CountInvitations(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitations`).Scan(&n)
	return n, err
}

// CheckIn marks the invitation as arrived. Only the first call changes the
// row; later calls report already=true with the originally recorded values.
func (s *Store) CheckIn(ctx context.Context, slug string) (inv Invitation, already bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations
		SET checked_in = 1, qty_recorded = qty, checked_in_at = ?
		WHERE slug = ? AND checked_in = 0
	`, s.now().UTC().Format(timeLayout), slug)
	if err != nil {
		return Invitation{}, false, fmt.Errorf("recording check-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Invitation{}, false, fmt.Errorf("recording check-in: %w", err)
	}

	inv, err = s.Invitation(ctx, slug)
	if err != nil {
		return Invitation{}, false, err
	}
	return inv, n == 0, nil
}

func (s *Store) Invitation(ctx context.Context, slug string) (Invitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, qty, qty_recorded, checked_in, checked_in_at
		FROM invitations WHERE slug = ?
	`, slug)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Invitation{}, ErrNotFound
	}
	return inv, err
}

// Search matches query against guest names ignoring case and accents.
// An exact slug match is included as well.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Invitation, error) {
	key := foldKey(query)
	if key == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, qty, qty_recorded, checked_in, checked_in_at
		FROM invitations
		WHERE search_key LIKE ? ESCAPE '\' OR slug = ?
		ORDER BY name
		LIMIT ?
	`, "%"+escapeLike(key)+"%", strings.TrimSpace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching invitations: %w", err)
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(qty), 0),
			COALESCE(SUM(CASE WHEN checked_in = 1 THEN qty_recorded ELSE 0 END), 0)
		FROM invitations
	`).Scan(&t.Guests, &t.CheckedInGuests)
	if err != nil {
		return Totals{}, fmt.Errorf("summing invitations: %w", err)
	}
	return t, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvitation(sc scanner) (Invitation, error) {
	var (
		inv       Invitation
		checkedIn int
		at        sql.NullString
	)
	if err := sc.Scan(&inv.ID, &inv.Slug, &inv.Name, &inv.Qty, &inv.QtyRecorded, &checkedIn, &at); err != nil {
		return Invitation{}, err
	}
	inv.CheckedIn = checkedIn != 0
	if at.Valid {
		if t, err := time.Parse(timeLayout, at.String); err == nil {
			inv.CheckedInAt = &t
		}
	}
	return inv, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
