package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"tineghir-cms/internal/model"
)

// DBTX is the subset of database/sql methods the query layer needs.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle and exposes typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance scoped to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// IsUniqueConstraint reports whether err is a SQLite unique-constraint
// violation (e.g. a duplicate email on user creation).
func IsUniqueConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// --- Users ---

const userColumns = "id, name, email, password_hash, role, status, last_active"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.LastActive)
	return u, err
}

// GetUserByEmail returns the user with the given email, or sql.ErrNoRows.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// GetUserByID returns the user with the given id, or sql.ErrNoRows.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

// CreateUser inserts a new user and returns its generated id. The unique
// email constraint is enforced by the database at write time.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, status, last_active) VALUES (?, ?, ?, ?, ?, NULL)",
		arg.Name, arg.Email, arg.PasswordHash, arg.Role, arg.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListUsers returns all users ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user by id. Deleting a nonexistent id is a no-op.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountUsersByRole returns the number of users with the given role.
func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", role).Scan(&n)
	return n, err
}

// UpdateUserLastActive sets the last-active timestamp for a user.
func (q *Queries) UpdateUserLastActive(ctx context.Context, id int64, t time.Time) error {
	_, err := q.db.ExecContext(ctx, "UPDATE users SET last_active = ? WHERE id = ?", t.UTC(), id)
	return err
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id)
	return err
}

// --- Content ---

// AllContent returns the full key/value mapping from the content table.
func (q *Queries) AllContent(ctx context.Context) (map[string]string, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT key, value FROM content")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	content := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		content[key] = value
	}
	return content, rows.Err()
}

// UpsertContent inserts a content key or overwrites its value in place.
func (q *Queries) UpsertContent(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO content (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CountContent returns the number of content entries.
func (q *Queries) CountContent(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&n)
	return n, err
}

// --- Attractions ---

// ListAttractions returns all attractions ordered by id.
func (q *Queries) ListAttractions(ctx context.Context) ([]model.Attraction, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, title, description, image, tag FROM attractions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attractions []model.Attraction
	for rows.Next() {
		var a model.Attraction
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Image, &a.Tag); err != nil {
			return nil, err
		}
		attractions = append(attractions, a)
	}
	return attractions, rows.Err()
}

// CreateAttractionParams holds the fields for CreateAttraction.
type CreateAttractionParams struct {
	Title       string
	Description string
	Image       string
	Tag         string
}

// CreateAttraction inserts a new attraction and returns its generated id.
func (q *Queries) CreateAttraction(ctx context.Context, arg CreateAttractionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO attractions (title, description, image, tag) VALUES (?, ?, ?, ?)",
		arg.Title, arg.Description, arg.Image, arg.Tag,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteAttraction removes an attraction by id. Deleting a nonexistent id
// is a no-op.
func (q *Queries) DeleteAttraction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM attractions WHERE id = ?", id)
	return err
}

// CountAttractions returns the number of attractions.
func (q *Queries) CountAttractions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attractions").Scan(&n)
	return n, err
}

// --- Messages ---

// CreateMessageParams holds the fields for CreateMessage.
type CreateMessageParams struct {
	Name    string
	Email   string
	Message string
}

// CreateMessage inserts a visitor message and returns its generated id.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO messages (name, email, message, created_at) VALUES (?, ?, ?, ?)",
		arg.Name, arg.Email, arg.Message, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListMessages returns all messages ordered by creation time descending.
func (q *Queries) ListMessages(ctx context.Context) ([]model.Message, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, email, message, created_at FROM messages ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the number of messages.
func (q *Queries) CountMessages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// --- Events ---

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO events (level, category, message, user_id, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt.UTC(),
	)
	return err
}

// DeleteEventsBefore removes events created before the cutoff. Returns the
// number of rows deleted.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountEvents returns the number of event log entries.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}
