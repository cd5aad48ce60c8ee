package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// UniqueKeys lists the (student_id, date) indexes every write path depends on.
var UniqueKeys = []string{
	"attendance_student_date_key",
	"marks_student_date_key",
	"presentations_student_date_key",
	"exam_attendance_student_date_key",
}

const uniqueViolation = "23505"

// Migrate applies every pending migration found in fsys.
func Migrate(db *sqlx.DB, fsys fs.FS) error {
	return RunMigrations(db, fsys, "up")
}

// RunMigrations executes a goose command (up, down, status, version) against db.
func RunMigrations(db *sqlx.DB, fsys fs.FS, command string) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var err error
	switch strings.ToLower(command) {
	case "up":
		err = goose.Up(db.DB, ".")
	case "down":
		err = goose.Down(db.DB, ".")
	case "status":
		err = goose.Status(db.DB, ".")
	case "version":
		err = goose.Version(db.DB, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

// AssertUniqueKeys fails when any of the required unique indexes is missing.
func AssertUniqueKeys(ctx context.Context, db *sqlx.DB) error {
	const query = `SELECT indexname FROM pg_indexes WHERE schemaname = current_schema() AND indexname = ANY($1)`
	var found []string
	if err := db.SelectContext(ctx, &found, query, pq.Array(UniqueKeys)); err != nil {
		return fmt.Errorf("inspect unique keys: %w", err)
	}
	present := make(map[string]struct{}, len(found))
	for _, name := range found {
		present[name] = struct{}{}
	}
	var missing []string
	for _, name := range UniqueKeys {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing unique indexes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
