package main

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const commentColumns = `
	c.id, c.author_id, c.post_id, c.text, c.created_at,
	u.name AS author_name, u.email AS author_email`

// getCommentsByPost returns the comments of a post, newest first.
func getCommentsByPost(db *sqlx.DB, postID int64) ([]Comment, error) {
	comments := []Comment{}
	err := db.Select(&comments, db.Rebind(`
		SELECT`+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC`), postID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing comments of post %d", postID)
	}
	return comments, nil
}

func getCommentByID(db *sqlx.DB, id int64) (*Comment, error) {
	var comment Comment
	err := db.Get(&comment, db.Rebind(`
		SELECT`+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting comment %d", id)
	}
	return &comment, nil
}

func createComment(db *sqlx.DB, postID, authorID int64, text string) (int64, error) {
	var id int64
	err := db.QueryRowx(db.Rebind(`
		INSERT INTO comments (author_id, post_id, text, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`), authorID, postID, text, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "inserting comment")
	}
	return id, nil
}

func deleteComment(db *sqlx.DB, id int64) error {
	_, err := db.Exec(db.Rebind(`DELETE FROM comments WHERE id = ?`), id)
	return errors.Wrapf(err, "deleting comment %d", id)
}
