// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/bus"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/models"
)

type createReviewRequest struct {
	MovieID    string `json:"movie_id" validate:"required"`
	MovieTitle string `json:"movie_title" validate:"max=300"`
	Rating     int    `json:"rating" validate:"gte=1,lte=10"`
	Title      string `json:"title" validate:"required,max=200"`
	Body       string `json:"body" validate:"max=10000"`
}

type updateReviewRequest struct {
	Rating int    `json:"rating" validate:"gte=1,lte=10"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=10000"`
}

// createReview stores a review, announces it on the feed, and notifies
// any @mentioned users.
//
//	@Summary	Create a review
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		createReviewRequest	true	"Review"
//	@Success	201		{object}	Response{data=models.Review}
//	@Failure	400		{object}	Response
//	@Router		/api/v1/reviews [post]
func (rt *Router) createReview(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	var req createReviewRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	title := req.MovieTitle
	if title == "" && rt.movies != nil {
		// Best effort; a degraded metadata API never blocks a review.
		if movie, err := rt.movies.Get(r.Context(), req.MovieID); err == nil {
			title = movie.Title
		}
	}

	review := &models.Review{
		AuthorID:   identity.ID,
		MovieID:    req.MovieID,
		MovieTitle: title,
		Rating:     req.Rating,
		Title:      req.Title,
		Body:       req.Body,
	}
	if err := rt.store.CreateReview(r.Context(), review); err != nil {
		rw.InternalError(err)
		return
	}

	rt.publishActivity(r.Context(), models.Activity{
		ID:         uuid.New().String(),
		Type:       models.ActivityNewReview,
		ActorID:    identity.ID,
		ActorName:  identity.Username,
		SubjectID:  review.ID,
		MovieID:    review.MovieID,
		MovieTitle: review.MovieTitle,
		CreatedAt:  review.CreatedAt,
	})
	rt.notifyMentions(r.Context(), identity, review)

	rw.Created(review)
}

// getReview loads one review.
//
//	@Summary	Get a review
//	@Tags		reviews
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Review ID"
//	@Success	200	{object}	Response{data=models.Review}
//	@Failure	404	{object}	Response
//	@Router		/api/v1/reviews/{id} [get]
func (rt *Router) getReview(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	review, err := rt.store.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}
	rw.OK(review)
}

// updateReview replaces the mutable fields of the caller's own review.
//
//	@Summary	Update a review
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"Review ID"
//	@Param		body	body		updateReviewRequest	true	"Review"
//	@Success	200		{object}	Response{data=models.Review}
//	@Failure	403		{object}	Response
//	@Failure	404		{object}	Response
//	@Router		/api/v1/reviews/{id} [put]
func (rt *Router) updateReview(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	var req updateReviewRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	review, err := rt.store.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}
	if review.AuthorID != identity.ID {
		rw.Forbidden("Not your review")
		return
	}

	review.Rating = req.Rating
	review.Title = req.Title
	review.Body = req.Body
	if err := rt.store.UpdateReview(r.Context(), review); err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}
	rw.OK(review)
}

// deleteReview removes a review. Allowed for the author, and for
// moderators through the role policy.
//
//	@Summary	Delete a review
//	@Tags		reviews
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Review ID"
//	@Success	204	"No Content"
//	@Failure	403	{object}	Response
//	@Failure	404	{object}	Response
//	@Router		/api/v1/reviews/{id} [delete]
func (rt *Router) deleteReview(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	review, err := rt.store.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}

	if review.AuthorID != identity.ID {
		allowed, err := rt.enforcer.Enforce(identity.Role, r.URL.Path, http.MethodDelete)
		if err != nil {
			rw.InternalError(err)
			return
		}
		if !allowed {
			rw.Forbidden("Not your review")
			return
		}
		logging.Ctx(r.Context()).Info().
			Str("review_id", review.ID).
			Str("moderator_id", identity.ID).
			Msg("Review removed by moderator")
	}

	if err := rt.store.DeleteReview(r.Context(), review.ID); err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}
	rw.NoContent()
}

// listMovieReviews lists reviews for a movie.
//
//	@Summary	List reviews for a movie
//	@Tags		reviews
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Movie ID"
//	@Success	200	{object}	Response{data=[]models.Review}
//	@Router		/api/v1/movies/{id}/reviews [get]
func (rt *Router) listMovieReviews(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	reviews, err := rt.store.ListReviewsByMovie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(reviews)
}

// listUserReviews lists reviews written by a user.
//
//	@Summary	List a user's reviews
//	@Tags		reviews
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	Response{data=[]models.Review}
//	@Router		/api/v1/users/{id}/reviews [get]
func (rt *Router) listUserReviews(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	reviews, err := rt.store.ListReviewsByAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(reviews)
}

type watchlistRequest struct {
	MovieID    string `json:"movie_id" validate:"required"`
	MovieTitle string `json:"movie_title" validate:"max=300"`
}

// listWatchlist returns the caller's watchlist.
//
//	@Summary	List the watchlist
//	@Tags		watchlist
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Response{data=[]models.WatchlistEntry}
//	@Router		/api/v1/watchlist [get]
func (rt *Router) listWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	entries, err := rt.store.ListWatchlist(r.Context(), identity.ID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(entries)
}

// addToWatchlist puts a movie on the caller's watchlist. Idempotent.
//
//	@Summary	Add a movie to the watchlist
//	@Tags		watchlist
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		watchlistRequest	true	"Movie"
//	@Success	201		{object}	Response{data=models.WatchlistEntry}
//	@Router		/api/v1/watchlist [post]
func (rt *Router) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	var req watchlistRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	entry := &models.WatchlistEntry{
		UserID:     identity.ID,
		MovieID:    req.MovieID,
		MovieTitle: req.MovieTitle,
	}
	if err := rt.store.AddToWatchlist(r.Context(), entry); err != nil {
		rw.InternalError(err)
		return
	}
	rw.Created(entry)
}

// removeFromWatchlist takes a movie off the caller's watchlist.
//
//	@Summary	Remove a movie from the watchlist
//	@Tags		watchlist
//	@Security	BearerAuth
//	@Param		movieID	path	string	true	"Movie ID"
//	@Success	204		"No Content"
//	@Failure	404		{object}	Response
//	@Router		/api/v1/watchlist/{movieID} [delete]
func (rt *Router) removeFromWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	err := rt.store.RemoveFromWatchlist(r.Context(), identity.ID, chi.URLParam(r, "movieID"))
	if err != nil {
		rw.StoreError(err, "Movie is not on your watchlist", "")
		return
	}
	rw.NoContent()
}

// publishActivity pushes a feed event through the bus. Fan-out is best
// effort; a publish failure is logged, never surfaced to the caller.
func (rt *Router) publishActivity(ctx context.Context, activity models.Activity) {
	if err := rt.bus.Publish(ctx, bus.TopicFeedActivity, activity); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("type", activity.Type).Msg("Feed publish failed")
	}
}

// notify persists a notification and pushes it to any live connections.
func (rt *Router) notify(ctx context.Context, n *models.NotificationEvent) {
	if err := rt.store.AddNotification(ctx, n); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Notification persist failed")
		return
	}
	event := bus.NotificationCreated{UserID: n.UserID, Notification: *n}
	if err := rt.bus.Publish(ctx, bus.TopicNotificationCreated, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Notification publish failed")
	}
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9]{3,30})\b`)

// notifyMentions notifies every @mentioned user in the review body,
// once per user. Unknown usernames and self-mentions are ignored.
func (rt *Router) notifyMentions(ctx context.Context, actor *auth.Identity, review *models.Review) {
	seen := make(map[string]bool)
	for _, match := range mentionPattern.FindAllStringSubmatch(review.Body, -1) {
		username := strings.ToLower(match[1])
		if seen[username] {
			continue
		}
		seen[username] = true

		user, err := rt.store.GetUserByUsername(ctx, username)
		if err != nil || user.ID == actor.ID {
			continue
		}
		rt.notify(ctx, &models.NotificationEvent{
			UserID:    user.ID,
			Type:      models.NotificationMention,
			ActorID:   actor.ID,
			ActorName: actor.Username,
			Message:   actor.Username + " mentioned you in a review of " + review.MovieTitle,
			Link:      "/reviews/" + review.ID,
		})
	}
}
