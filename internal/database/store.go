package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	dbconfig "rollcall/pkg/database"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Store implements the UserStore, ClassStore and AttendanceLedger
// interfaces over SQLite.
type Store struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation // Single-writer pattern for SQLite
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // Protects closed status
}

// writeOperation represents a queued database write.
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens the database, applies pragmas and bootstraps the schema.
func NewStore(config *dbconfig.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := dbconfig.ApplyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := dbconfig.Bootstrap(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	store.wg.Add(1)
	go store.writeLoop()

	return store, nil
}

// writeLoop processes all write operations in a single goroutine. SQLite
// permits one writer at a time; funneling writes here avoids lock
// contention across request handlers.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			op.result <- op.operation(s.db)
		case <-s.shutdown:
			log.Println("Database write loop shutting down")
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion.
func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-s.shutdown:
		return fmt.Errorf("store is shutting down")
	}
}

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint rejection.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateUser persists a new account.
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	return s.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO users (id, name, email, password_hash, role)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.Role,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return interfaces.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
}

// GetUserByID retrieves an account by ID.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password_hash, role FROM users WHERE id = ?", userID)
}

// GetUserByEmail retrieves an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password_hash, role FROM users WHERE email = ?", email)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*types.User, error) {
	var user types.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ListUsersByRole returns every account with the given role.
func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]*types.User, error) {
	query := `
		SELECT id, name, email, password_hash, role
		FROM users
		WHERE role = ?
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// CreateClass persists a new class with an empty enrollment set.
func (s *Store) CreateClass(ctx context.Context, class *types.Class) error {
	if err := class.Validate(); err != nil {
		return err
	}
	return s.executeWrite(func(db *sql.DB) error {
		query := `INSERT INTO classes (id, name, teacher_id) VALUES (?, ?, ?)`
		if _, err := db.ExecContext(ctx, query, class.ID, class.Name, class.TeacherID); err != nil {
			return fmt.Errorf("failed to insert class: %w", err)
		}
		return nil
	})
}

// GetClass retrieves a class and its enrolled student IDs.
func (s *Store) GetClass(ctx context.Context, classID string) (*types.Class, error) {
	var class types.Class
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, teacher_id FROM classes WHERE id = ?", classID,
	).Scan(&class.ID, &class.Name, &class.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to query class: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT student_id FROM enrollments WHERE class_id = ? ORDER BY student_id ASC", classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	class.StudentIDs = []string{}
	for rows.Next() {
		var studentID string
		if err := rows.Scan(&studentID); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		class.StudentIDs = append(class.StudentIDs, studentID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return &class, nil
}

// AddStudent enrolls a student in a class. Re-enrolling is a no-op, which
// keeps the operation idempotent for repeated add requests.
func (s *Store) AddStudent(ctx context.Context, classID, studentID string) error {
	return s.executeWrite(func(db *sql.DB) error {
		query := `INSERT OR IGNORE INTO enrollments (class_id, student_id) VALUES (?, ?)`
		if _, err := db.ExecContext(ctx, query, classID, studentID); err != nil {
			return fmt.Errorf("failed to insert enrollment: %w", err)
		}
		return nil
	})
}

// IsEnrolled reports whether the student belongs to the class.
func (s *Store) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM enrollments WHERE class_id = ? AND student_id = ?",
		classID, studentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query enrollment: %w", err)
	}
	return exists > 0, nil
}

// FindRecord returns the attendance record for (class, student), or nil
// when none exists.
func (s *Store) FindRecord(ctx context.Context, classID, studentID string) (*types.AttendanceRecord, error) {
	var record types.AttendanceRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, class_id, student_id, status, marked_at
		FROM attendance
		WHERE class_id = ? AND student_id = ?
	`, classID, studentID).Scan(
		&record.ID,
		&record.ClassID,
		&record.StudentID,
		&record.Status,
		&record.MarkedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	return &record, nil
}

// InsertRecord appends a new attendance record. The UNIQUE(class_id,
// student_id) constraint turns a lost check-then-insert race into
// ErrDuplicateRecord instead of a second row.
func (s *Store) InsertRecord(ctx context.Context, record *types.AttendanceRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return s.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO attendance (id, class_id, student_id, status, marked_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			record.ID,
			record.ClassID,
			record.StudentID,
			record.Status,
			record.MarkedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return interfaces.ErrDuplicateRecord
			}
			return fmt.Errorf("failed to insert attendance record: %w", err)
		}
		return nil
	})
}

// ListRecordsByClass returns all attendance records for a class.
func (s *Store) ListRecordsByClass(ctx context.Context, classID string) ([]*types.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, class_id, student_id, status, marked_at
		FROM attendance
		WHERE class_id = ?
		ORDER BY marked_at ASC
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.AttendanceRecord
	for rows.Next() {
		var record types.AttendanceRecord
		err := rows.Scan(
			&record.ID,
			&record.ClassID,
			&record.StudentID,
			&record.Status,
			&record.MarkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, &record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}
	return records, nil
}

// HealthCheck validates database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	return nil
}

// Close shuts down the write loop and closes the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
