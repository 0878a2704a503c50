package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/onnwee/mentorfeed/internal/tracing"
)

// PostgresRepository implements Repository on the mentors and users tables.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a repository on an open database handle.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

const mentorColumns = `id, name, login, title, description, university, admission_type, avatar_uuid`

const userColumns = `id, name, login, description, target_universities, admission_type, avatar_uuid`

// mentorWhere applies MentorFilter; $1 is the university list, $2 the
// admission type. Empty values disable the respective predicate.
const mentorWhere = `is_active
	AND (cardinality($1::text[]) = 0 OR university = ANY($1::text[]))
	AND ($2::text = '' OR admission_type = $2::text)`

// userWhere applies UserFilter; $1 is the mentor's university, $2 the
// admission type.
const userWhere = `is_active
	AND ($1::text = '' OR $1::text = ANY(target_universities))
	AND ($2::text = '' OR admission_type = $2::text)`

func (r *PostgresRepository) ListMentors(ctx context.Context, f *MentorFilter, page, size int) (mentors []*Mentor, total int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "mentors", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if f == nil {
		f = &MentorFilter{}
	}
	universities := f.Universities
	if universities == nil {
		universities = []string{}
	}
	args := []any{pq.Array(universities), string(f.AdmissionType)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mentors WHERE `+mentorWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count mentors: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mentorColumns+` FROM mentors WHERE `+mentorWhere+` ORDER BY id ASC LIMIT $3 OFFSET $4`,
		append(args, size, offset(page, size))...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list mentors: %w", err)
	}
	defer rows.Close()

	mentors, err = scanMentors(rows)
	if err != nil {
		return nil, 0, err
	}
	return mentors, total, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, f *UserFilter, page, size int) (users []*User, total int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if f == nil {
		f = &UserFilter{}
	}
	args := []any{f.University, string(f.AdmissionType)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+userWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+userWhere+` ORDER BY id ASC LIMIT $3 OFFSET $4`,
		append(args, size, offset(page, size))...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users, err = scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PostgresRepository) MentorsByID(ctx context.Context, ids []int64) (mentors []*Mentor, err error) {
	if len(ids) == 0 {
		return []*Mentor{}, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "mentors", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mentorColumns+` FROM mentors WHERE is_active AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load mentors by id: %w", err)
	}
	defer rows.Close()
	return scanMentors(rows)
}

func (r *PostgresRepository) UsersByID(ctx context.Context, ids []int64) (users []*User, err error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load users by id: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresRepository) GetMentor(ctx context.Context, id int64) (*Mentor, error) {
	mentors, err := r.MentorsByID(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(mentors) == 0 {
		return nil, ErrMentorNotFound
	}
	return mentors[0], nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	users, err := r.UsersByID(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (r *PostgresRepository) CountMentors(ctx context.Context) (int, error) {
	return r.count(ctx, "mentors")
}

func (r *PostgresRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "users")
}

func (r *PostgresRepository) count(ctx context.Context, table string) (n int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, table, tracing.DBOperationCount)
	defer func() { endSpan(err) }()

	// table is never caller-supplied.
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func scanMentors(rows *sql.Rows) ([]*Mentor, error) {
	mentors := []*Mentor{}
	for rows.Next() {
		var (
			m                                        Mentor
			name, login, title, desc, uni, admission sql.NullString
			avatar                                   uuid.NullUUID
		)
		if err := rows.Scan(&m.ID, &name, &login, &title, &desc, &uni, &admission, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan mentor: %w", err)
		}
		m.Name = name.String
		m.Login = login.String
		m.Title = title.String
		m.Description = desc.String
		m.University = uni.String
		m.AdmissionType = AdmissionType(admission.String)
		if avatar.Valid {
			id := avatar.UUID
			m.AvatarUUID = &id
		}
		mentors = append(mentors, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mentors: %w", err)
	}
	return mentors, nil
}

func scanUsers(rows *sql.Rows) ([]*User, error) {
	users := []*User{}
	for rows.Next() {
		var (
			u                            User
			name, login, desc, admission sql.NullString
			targets                      pq.StringArray
			avatar                       uuid.NullUUID
		)
		if err := rows.Scan(&u.ID, &name, &login, &desc, &targets, &admission, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Name = name.String
		u.Login = login.String
		u.Description = desc.String
		u.TargetUniversities = []string(targets)
		if u.TargetUniversities == nil {
			u.TargetUniversities = []string{}
		}
		u.AdmissionType = AdmissionType(admission.String)
		if avatar.Valid {
			id := avatar.UUID
			u.AvatarUUID = &id
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// IsNotFound reports whether err is a profile not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMentorNotFound) || errors.Is(err, ErrUserNotFound)
}
