package main

import (
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL,
		date TEXT NOT NULL,
		body TEXT NOT NULL,
		img_url TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
		text TEXT NOT NULL CHECK (length(text) <= 2000),
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(250) NOT NULL,
		email VARCHAR(250) NOT NULL UNIQUE,
		password VARCHAR(250) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		title VARCHAR(250) NOT NULL,
		subtitle VARCHAR(250) NOT NULL,
		date VARCHAR(250) NOT NULL,
		body TEXT NOT NULL,
		img_url VARCHAR(250) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
		text VARCHAR(2000) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// openDB opens PostgreSQL for postgres:// URLs and SQLite for everything
// else. SQLite gets a single connection so that ":memory:" databases and
// foreign key enforcement stay consistent across queries.
func openDB(dsn string) (*sqlx.DB, error) {
	if isPostgresURL(dsn) {
		db, err := sqlx.Open(driverPostgres, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sqlx.Open(driverSQLite, dsn+sep+"_pragma=foreign_keys(1)&_pragma=busy_timeout(3000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func isPostgres(db *sqlx.DB) bool {
	return db.DriverName() == driverPostgres
}

func initDB(db *sqlx.DB) error {
	schema := sqliteSchema
	if isPostgres(db) {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "creating schema")
		}
	}

	if err := migrateDB(db); err != nil {
		return err
	}

	return nil
}

// migrateDB brings databases created before the admin role column up to date.
func migrateDB(db *sqlx.DB) error {
	if isPostgres(db) {
		_, err := db.Exec(`ALTER TABLE users ADD COLUMN IF NOT EXISTS is_admin BOOLEAN NOT NULL DEFAULT FALSE`)
		return errors.Wrap(err, "adding is_admin column")
	}

	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM pragma_table_info('users') WHERE name='is_admin'`)
	if err != nil {
		return errors.Wrap(err, "checking is_admin column")
	}

	if count == 0 {
		_, err = db.Exec(`ALTER TABLE users ADD COLUMN is_admin BOOLEAN NOT NULL DEFAULT 0`)
		if err != nil {
			return errors.Wrap(err, "adding is_admin column")
		}
	}

	return nil
}
