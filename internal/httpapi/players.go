package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/DoyleJ11/football-auction-backend/internal/catalog"
)

func ListPlayers(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := cat.List(r.Context(), playerQuery(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog error")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func RandomPlayer(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, remaining, err := cat.Random(r.Context(), playerQuery(r))
		if errors.Is(err, catalog.ErrNoMatch) {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": err.Error()})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"player": p, "remaining": remaining})
	}
}

// CountPlayers reports how many players are still available for a filter
// once the excluded names are taken out.
func CountPlayers(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := cat.Count(r.Context(), playerQuery(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": n})
	}
}

func ListClubs(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubs, err := cat.Clubs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog error")
			return
		}
		writeJSON(w, http.StatusOK, clubs)
	}
}

func playerQuery(r *http.Request) catalog.Query {
	q := r.URL.Query()
	return catalog.Query{
		Era:      q.Get("era"),
		League:   q.Get("league"),
		Position: q.Get("position"),
		Tier:     q.Get("tier"),
		Clubs:    listParam(q["club"]),
		Exclude:  listParam(q["exclude"]),
	}
}

// listParam accepts both repeated parameters and comma separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
