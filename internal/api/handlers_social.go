// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/models"
)

// getUser returns a user's public profile.
//
//	@Summary	Get a user profile
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	Response{data=models.PublicUser}
//	@Failure	404	{object}	Response
//	@Router		/api/v1/users/{id} [get]
func (rt *Router) getUser(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	user, err := rt.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "User not found", "")
		return
	}
	rw.OK(user.Public())
}

// follow makes the caller follow the target user. The target gets a
// notification and the feed gets a new_follow activity.
//
//	@Summary	Follow a user
//	@Tags		social
//	@Security	BearerAuth
//	@Param		id	path	string	true	"User ID to follow"
//	@Success	204	"No Content"
//	@Failure	404	{object}	Response
//	@Failure	409	{object}	Response
//	@Router		/api/v1/users/{id}/follow [post]
func (rt *Router) follow(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	if targetID == identity.ID {
		rw.Conflict("Cannot follow yourself")
		return
	}

	target, err := rt.store.GetUser(r.Context(), targetID)
	if err != nil {
		rw.StoreError(err, "User not found", "")
		return
	}

	follow := &models.Follow{FollowerID: identity.ID, FolloweeID: target.ID}
	if err := rt.store.AddFollow(r.Context(), follow); err != nil {
		rw.StoreError(err, "User not found", "Already following")
		return
	}

	rt.notify(r.Context(), &models.NotificationEvent{
		UserID:    target.ID,
		Type:      models.NotificationFollow,
		ActorID:   identity.ID,
		ActorName: identity.Username,
		Message:   identity.Username + " started following you",
		Link:      "/users/" + identity.ID,
	})
	rt.publishActivity(r.Context(), models.Activity{
		ID:        uuid.New().String(),
		Type:      models.ActivityNewFollow,
		ActorID:   identity.ID,
		ActorName: identity.Username,
		SubjectID: target.ID,
		CreatedAt: follow.CreatedAt,
	})

	rw.NoContent()
}

// unfollow removes a follow relationship.
//
//	@Summary	Unfollow a user
//	@Tags		social
//	@Security	BearerAuth
//	@Param		id	path	string	true	"User ID to unfollow"
//	@Success	204	"No Content"
//	@Failure	404	{object}	Response
//	@Router		/api/v1/users/{id}/follow [delete]
func (rt *Router) unfollow(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	err := rt.store.RemoveFollow(r.Context(), identity.ID, chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Not following this user", "")
		return
	}
	rw.NoContent()
}

// listFollowers lists the users following the given user.
//
//	@Summary	List followers
//	@Tags		social
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	Response{data=[]models.Follow}
//	@Router		/api/v1/users/{id}/followers [get]
func (rt *Router) listFollowers(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	follows, err := rt.store.ListFollowers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(follows)
}

// listFollowing lists the users the given user follows.
//
//	@Summary	List followed users
//	@Tags		social
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	Response{data=[]models.Follow}
//	@Router		/api/v1/users/{id}/following [get]
func (rt *Router) listFollowing(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	follows, err := rt.store.ListFollowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(follows)
}

// listNotifications returns the caller's stored notifications.
//
//	@Summary	List notifications
//	@Tags		notifications
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Response{data=[]models.NotificationEvent}
//	@Router		/api/v1/notifications [get]
func (rt *Router) listNotifications(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	notifications, err := rt.store.ListNotifications(r.Context(), identity.ID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(notifications)
}

// markNotificationRead marks one of the caller's notifications read.
//
//	@Summary	Mark a notification read
//	@Tags		notifications
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Notification ID"
//	@Success	204	"No Content"
//	@Failure	404	{object}	Response
//	@Router		/api/v1/notifications/{id}/read [post]
func (rt *Router) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	err := rt.store.MarkNotificationRead(r.Context(), identity.ID, chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Notification not found", "")
		return
	}
	rw.NoContent()
}

// markAllNotificationsRead marks every unread notification read and
// reports how many were affected.
//
//	@Summary	Mark all notifications read
//	@Tags		notifications
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Response
//	@Router		/api/v1/notifications/read-all [post]
func (rt *Router) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	count, err := rt.store.MarkAllNotificationsRead(r.Context(), identity.ID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(map[string]int{"marked": count})
}

// listConversations lists the caller's conversations.
//
//	@Summary	List conversations
//	@Tags		messaging
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Response{data=[]models.Conversation}
//	@Router		/api/v1/conversations [get]
func (rt *Router) listConversations(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	convs, err := rt.store.ListConversations(r.Context(), identity.ID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(convs)
}

// listMessages returns message history for a conversation the caller
// participates in, in sequence order. Supports incremental fetch via
// after_seq and limit query parameters.
//
//	@Summary	List conversation messages
//	@Tags		messaging
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id			path		string	true	"Conversation ID"
//	@Param		after_seq	query		int		false	"Return messages with seq greater than this"
//	@Param		limit		query		int		false	"Maximum number of messages"
//	@Success	200			{object}	Response{data=[]models.Message}
//	@Failure	403			{object}	Response
//	@Failure	404			{object}	Response
//	@Router		/api/v1/conversations/{id}/messages [get]
func (rt *Router) listMessages(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())
	convID := chi.URLParam(r, "id")

	conv, err := rt.store.GetConversation(r.Context(), convID)
	if err != nil {
		rw.StoreError(err, "Conversation not found", "")
		return
	}
	if !participant(conv, identity.ID) {
		rw.Forbidden("Not a participant in this conversation")
		return
	}

	afterSeq, _ := strconv.ParseUint(r.URL.Query().Get("after_seq"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := rt.store.ListMessages(r.Context(), convID, afterSeq, limit)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(messages)
}

func participant(conv *models.Conversation, userID string) bool {
	for _, id := range conv.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
