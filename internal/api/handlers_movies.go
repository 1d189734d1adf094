// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cineshare/cineshare/internal/movies"
)

// searchMovies proxies a title search to the metadata API.
//
//	@Summary	Search movies
//	@Tags		movies
//	@Produce	json
//	@Security	BearerAuth
//	@Param		query	query		string	true	"Title search"
//	@Success	200		{object}	Response{data=[]movies.Movie}
//	@Failure	502		{object}	Response
//	@Router		/api/v1/movies/search [get]
func (rt *Router) searchMovies(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		rw.BadRequest("query parameter is required")
		return
	}

	results, err := rt.movies.Search(r.Context(), query)
	if err != nil {
		rt.movieError(rw, err)
		return
	}
	rw.OK(results)
}

// getMovie proxies a single-movie lookup to the metadata API.
//
//	@Summary	Get movie details
//	@Tags		movies
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Movie ID"
//	@Success	200	{object}	Response{data=movies.Movie}
//	@Failure	502	{object}	Response
//	@Router		/api/v1/movies/{id} [get]
func (rt *Router) getMovie(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	movie, err := rt.movies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.movieError(rw, err)
		return
	}
	rw.OK(movie)
}

func (rt *Router) movieError(rw *responder, err error) {
	if errors.Is(err, movies.ErrUnavailable) {
		rw.Fail(http.StatusBadGateway, ErrCodeBadGateway, "Movie metadata service unavailable")
		return
	}
	rw.Fail(http.StatusBadGateway, ErrCodeBadGateway, "Movie metadata lookup failed")
}
