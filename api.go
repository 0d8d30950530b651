package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"doccanvas/internal/shape"
	"doccanvas/internal/storage"
)

// registerTemplateRoutes exposes the template store over HTTP so editing
// clients can create, read and save documents by id.
func registerTemplateRoutes(mux *http.ServeMux, store *storage.Store) {
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type item struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Version int64  `json:"version"`
		}
		out := make([]item, 0, len(list))
		for _, t := range list {
			out = append(out, item{ID: t.ID, Name: t.Name, Version: t.Version})
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("POST /templates", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string         `json:"name"`
			Document shape.Document `json:"document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, err := store.Create(r.Context(), req.Name, req.Document)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id, "version": 1})
	})

	mux.HandleFunc("GET /templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		tpl, err := store.Get(r.Context(), r.PathValue("id"))
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       tpl.ID,
			"name":     tpl.Name,
			"version":  tpl.Version,
			"document": tpl.Document,
		})
	})

	// Saves carry the version the client read; a stale one gets 409 and
	// must re-fetch.
	mux.HandleFunc("PUT /templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
		if err != nil {
			http.Error(w, "version query parameter required", http.StatusBadRequest)
			return
		}
		var doc shape.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		newVersion, err := store.Save(r.Context(), r.PathValue("id"), version, doc)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, "template not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrVersionConflict):
			http.Error(w, "version conflict", http.StatusConflict)
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"version": newVersion})
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
