package main

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const postColumns = `
	p.id, p.author_id, COALESCE(u.name, '') AS author_name,
	p.title, p.subtitle, p.date, p.body, p.img_url`

func getPosts(db *sqlx.DB) ([]Post, error) {
	posts := []Post{}
	err := db.Select(&posts, `
		SELECT`+postColumns+`
		FROM blog_posts p
		LEFT JOIN users u ON u.id = p.author_id
		ORDER BY p.id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}
	return posts, nil
}

func getPostByID(db *sqlx.DB, id int64) (*Post, error) {
	var post Post
	err := db.Get(&post, db.Rebind(`
		SELECT`+postColumns+`
		FROM blog_posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting post %d", id)
	}
	return &post, nil
}

func createPost(db *sqlx.DB, post Post) (int64, error) {
	var id int64
	err := db.QueryRowx(db.Rebind(`
		INSERT INTO blog_posts (author_id, title, subtitle, date, body, img_url)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		post.AuthorID, post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "inserting post")
	}
	return id, nil
}

// updatePost overwrites the editable fields of a post. The date stamp is
// left as it was when the post was created.
func updatePost(db *sqlx.DB, post Post) error {
	_, err := db.Exec(db.Rebind(`
		UPDATE blog_posts
		SET author_id = ?, title = ?, subtitle = ?, body = ?, img_url = ?
		WHERE id = ?`),
		post.AuthorID, post.Title, post.Subtitle, post.Body, post.ImgURL, post.ID)
	return errors.Wrapf(err, "updating post %d", post.ID)
}

// deletePost removes a post and every comment attached to it.
func deletePost(db *sqlx.DB, id int64) error {
	tx, err := db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(tx.Rebind(`DELETE FROM comments WHERE post_id = ?`), id); err != nil {
		return errors.Wrapf(err, "deleting comments of post %d", id)
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM blog_posts WHERE id = ?`), id); err != nil {
		return errors.Wrapf(err, "deleting post %d", id)
	}

	return errors.Wrap(tx.Commit(), "committing post deletion")
}
