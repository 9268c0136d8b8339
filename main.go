package main

import (
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
)

type Blog struct {
	db        *sqlx.DB
	cfg       Config
	sessions  sessions.Store
	mailer    Notifier
	templates map[string]*template.Template
}

func NewBlog(db *sqlx.DB, cfg Config, mailer Notifier) *Blog {
	return &Blog{
		db:        db,
		cfg:       cfg,
		sessions:  newCookieStore(cfg),
		mailer:    mailer,
		templates: loadTemplates(),
	}
}

func main() {
	cfg := loadConfig()

	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err = initDB(db); err != nil {
		log.Fatalf("initializing database: %v", err)
	}

	if err = syncAdminRole(db, cfg.AdminEmail); err != nil {
		log.Fatalf("syncing admin role: %v", err)
	}

	if err = cleanupExpiredSessions(db); err != nil {
		log.Printf("cleaning up expired sessions: %v", err)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := cleanupExpiredSessions(db); err != nil {
				log.Printf("cleaning up expired sessions: %v", err)
			}
		}
	}()

	mailer, err := newNotifier(cfg)
	if err != nil {
		log.Fatalf("configuring mail: %v", err)
	}

	blog := NewBlog(db, cfg, mailer)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           blog.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Addr)
	log.Fatal(srv.ListenAndServe())
}
