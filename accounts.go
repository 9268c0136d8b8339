package main

import (
	"net/http"

	"github.com/pkg/errors"
)

func (b *Blog) Register(w http.ResponseWriter, r *http.Request) {
	var form registerForm
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
			email := normalizeEmail(form.Email)

			hash, err := hashPassword(form.Password)
			if err != nil {
				serverError(w, err)
				return
			}

			user, err := createUser(b.db, form.Name, email, hash, email == b.cfg.AdminEmail)
			if errors.Is(err, errEmailTaken) {
				b.flash(w, r, "You've already signed up with that email, log in instead.")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err != nil {
				serverError(w, err)
				return
			}

			if err := b.startSession(w, r, user.ID); err != nil {
				serverError(w, err)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	b.render(w, r, "register.html", http.StatusOK, map[string]any{
		"Title":  "ThoughtFactory - Register",
		"Form":   form,
		"Errors": errs,
	})
}

func (b *Blog) Login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
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
			user, err := getUserByEmail(b.db, normalizeEmail(form.Email))
			if err != nil {
				serverError(w, err)
				return
			}

			switch {
			case user == nil:
				b.flash(w, r, "That email does not exist, please try again!")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			case !checkPassword(user.PasswordHash, form.Password):
				b.flash(w, r, "Incorrect Password, please try again!")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			default:
				if err := b.startSession(w, r, user.ID); err != nil {
					serverError(w, err)
					return
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
			return
		}
	}

	form.Password = ""
	b.render(w, r, "login.html", http.StatusOK, map[string]any{
		"Title":  "ThoughtFactory - Login",
		"Form":   form,
		"Errors": errs,
	})
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if err := b.endSession(w, r); err != nil {
		serverError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
