package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (b *Blog) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.withSession)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticFiles()))

	// Public routes
	r.HandleFunc("/", b.Home).Methods(http.MethodGet)
	r.HandleFunc("/show_post/{id:[0-9]+}", b.ShowPost).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/delete_comment/{id:[0-9]+}", b.DeleteComment).Methods(http.MethodGet)
	r.HandleFunc("/register", b.Register).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", b.Login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", b.Logout).Methods(http.MethodGet)
	r.HandleFunc("/about", b.About).Methods(http.MethodGet)
	r.HandleFunc("/contact", b.Contact).Methods(http.MethodGet, http.MethodPost)

	// Admin routes
	r.HandleFunc("/add_new_post", b.requireLogin(b.requireAdmin(b.AddPost))).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/edit_post/{id:[0-9]+}", b.requireLogin(b.requireAdmin(b.EditPost))).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/delete_post/{id:[0-9]+}", b.requireLogin(b.requireAdmin(b.DeletePost))).Methods(http.MethodGet)

	return r
}

// Handler is the complete application with logging and panic recovery.
func (b *Blog) Handler() http.Handler {
	return WithRecover(WithAccessLog(b.routes()))
}
