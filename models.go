package main

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
	IsAdmin      bool   `db:"is_admin"`
}

// Post.AuthorID is NULL once the author's account has been removed.
type Post struct {
	ID         int64         `db:"id"`
	AuthorID   sql.NullInt64 `db:"author_id"`
	AuthorName string        `db:"author_name"`
	Title      string        `db:"title"`
	Subtitle   string        `db:"subtitle"`
	Date       string        `db:"date"`
	Body       string        `db:"body"`
	ImgURL     string        `db:"img_url"`
}

type Comment struct {
	ID          int64     `db:"id"`
	AuthorID    int64     `db:"author_id"`
	PostID      int64     `db:"post_id"`
	Text        string    `db:"text"`
	CreatedAt   time.Time `db:"created_at"`
	AuthorName  string    `db:"author_name"`
	AuthorEmail string    `db:"author_email"`
}
