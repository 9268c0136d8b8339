package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const (
	postDateLayout   = "January 02, 2006"
	contactSentFlash = "contact_sent"
)

func serverError(w http.ResponseWriter, err error) {
	log.Printf("internal error: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func postURL(id int64) string {
	return fmt.Sprintf("/show_post/%d", id)
}

func (b *Blog) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := getPosts(b.db)
	if err != nil {
		serverError(w, err)
		return
	}

	b.render(w, r, "index.html", http.StatusOK, map[string]any{
		"Title": "ThoughtFactory - Homepage",
		"Posts": posts,
	})
}

func (b *Blog) ShowPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		serverError(w, err)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	var form commentForm
	var errs formErrors

	if r.Method == http.MethodPost {
		user := currentUser(r)
		if user == nil {
			b.flash(w, r, "You need to be logged in to comment on posts.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if !parseFormWithCSRF(w, r) {
			return
		}
		if err := decodeForm(&form, r.PostForm); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if errs = validateForm(form); errs == nil {
			if _, err := createComment(b.db, post.ID, user.ID, form.Comment); err != nil {
				serverError(w, err)
				return
			}
			http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
			return
		}
	}

	comments, err := getCommentsByPost(b.db, post.ID)
	if err != nil {
		serverError(w, err)
		return
	}

	b.render(w, r, "post.html", http.StatusOK, map[string]any{
		"Title":    "Blog - " + post.Title,
		"Post":     post,
		"Comments": comments,
		"Form":     form,
		"Errors":   errs,
	})
}

func (b *Blog) AddPost(w http.ResponseWriter, r *http.Request) {
	var form postForm
	var errs formErrors

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}
		if err := decodeForm(&form, r.PostForm); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if errs = validateForm(form); errs == nil {
			_, err := createPost(b.db, Post{
				AuthorID: sql.NullInt64{Int64: currentUser(r).ID, Valid: true},
				Title:    form.Title,
				Subtitle: form.Subtitle,
				Date:     time.Now().Format(postDateLayout),
				Body:     form.Body,
				ImgURL:   form.ImgURL,
			})
			if err != nil {
				serverError(w, err)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	b.render(w, r, "make-post.html", http.StatusOK, map[string]any{
		"Title":   "Submit your Blog",
		"Heading": "New Post",
		"Action":  "/add_new_post",
		"Form":    form,
		"Errors":  errs,
	})
}

func (b *Blog) EditPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		serverError(w, err)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	form := postForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImgURL:   post.ImgURL,
		Body:     post.Body,
	}
	var errs formErrors

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}
		form = postForm{}
		if err := decodeForm(&form, r.PostForm); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if errs = validateForm(form); errs == nil {
			post.AuthorID = sql.NullInt64{Int64: currentUser(r).ID, Valid: true}
			post.Title = form.Title
			post.Subtitle = form.Subtitle
			post.ImgURL = form.ImgURL
			post.Body = form.Body

			if err := updatePost(b.db, *post); err != nil {
				serverError(w, err)
				return
			}
			http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
			return
		}
	}

	b.render(w, r, "make-post.html", http.StatusOK, map[string]any{
		"Title":   "Edit your Blog",
		"Heading": "Edit Post",
		"Action":  fmt.Sprintf("/edit_post/%d", post.ID),
		"Form":    form,
		"Errors":  errs,
	})
}

func (b *Blog) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		serverError(w, err)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	if err := deletePost(b.db, post.ID); err != nil {
		serverError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeleteComment removes a comment when the requester wrote it or is the
// admin. Anyone else is sent back to the post with the comment untouched.
func (b *Blog) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	comment, err := getCommentByID(b.db, id)
	if err != nil {
		serverError(w, err)
		return
	}
	if comment == nil {
		http.NotFound(w, r)
		return
	}

	if user := currentUser(r); user != nil && (user.IsAdmin || user.ID == comment.AuthorID) {
		if err := deleteComment(b.db, comment.ID); err != nil {
			serverError(w, err)
			return
		}
	}

	http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
}

func (b *Blog) About(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, "about.html", http.StatusOK, map[string]any{
		"Title": "ThoughtFactory - About",
	})
}

// Contact redirects after a successful send so that reloading the
// confirmation page does not send the message again.
func (b *Blog) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		var form contactForm
		if err := decodeForm(&form, r.PostForm); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		err := b.mailer.Notify(r.Context(), ContactMessage{
			Name:    form.Name,
			Email:   form.Email,
			Phone:   form.Phone,
			Message: form.Message,
		})
		if err != nil {
			log.Printf("sending contact message: %v", err)
			b.flash(w, r, "Sorry, your message could not be sent. Please try again later.")
			http.Redirect(w, r, "/contact", http.StatusSeeOther)
			return
		}
		b.flash(w, r, "sent", contactSentFlash)
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	b.render(w, r, "contact.html", http.StatusOK, map[string]any{
		"Title":   "ThoughtFactory - Contact",
		"MsgSent": len(b.popFlashes(w, r, contactSentFlash)) > 0,
	})
}
