// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/cineshare/cineshare/internal/models"
)

func TestFollowLifecycle(t *testing.T) {
	f := newFixture(t)
	follower := f.registerUser(t)
	followee := f.registerUser(t)

	path := "/api/v1/users/" + followee.User.ID + "/follow"

	if rec := f.do(t, http.MethodPost, path, follower.AccessToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("follow: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, path, follower.AccessToken, nil); rec.Code != http.StatusConflict {
		t.Errorf("double follow: %d, want 409", rec.Code)
	}

	// The followee gets a durable notification.
	notifications, err := f.store.ListNotifications(context.Background(), followee.User.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Type != models.NotificationFollow {
		t.Fatalf("followee notifications = %+v", notifications)
	}

	var followers []models.Follow
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/users/"+followee.User.ID+"/followers", follower.AccessToken, nil), &followers)
	if len(followers) != 1 || followers[0].FollowerID != follower.User.ID {
		t.Errorf("followers = %+v", followers)
	}

	var following []models.Follow
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/users/"+follower.User.ID+"/following", follower.AccessToken, nil), &following)
	if len(following) != 1 || following[0].FolloweeID != followee.User.ID {
		t.Errorf("following = %+v", following)
	}

	if rec := f.do(t, http.MethodDelete, path, follower.AccessToken, nil); rec.Code != http.StatusNoContent {
		t.Errorf("unfollow: %d, want 204", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, path, follower.AccessToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second unfollow: %d, want 404", rec.Code)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/users/"+session.User.ID+"/follow", session.AccessToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("self follow: %d, want 409", rec.Code)
	}
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/users/no-such-user/follow", session.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("follow unknown user: %d, want 404", rec.Code)
	}
}

func TestGetUserReturnsPublicProjection(t *testing.T) {
	f := newFixture(t)
	viewer := f.registerUser(t)
	target := f.registerUser(t)

	rec := f.do(t, http.MethodGet, "/api/v1/users/"+target.User.ID, viewer.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get user: %d", rec.Code)
	}

	var raw map[string]any
	decodeData(t, rec, &raw)
	if raw["id"] != target.User.ID {
		t.Errorf("profile id = %v", raw["id"])
	}
	if _, leaked := raw["email"]; leaked {
		t.Error("public profile leaks email")
	}
}

func TestNotificationReadEndpoints(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	for i := 0; i < 3; i++ {
		err := f.store.AddNotification(context.Background(), &models.NotificationEvent{
			UserID:    session.User.ID,
			Type:      models.NotificationLike,
			ActorID:   "someone",
			ActorName: "someone",
			Message:   "liked your review",
		})
		if err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	var notifications []models.NotificationEvent
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/notifications", session.AccessToken, nil), &notifications)
	if len(notifications) != 3 {
		t.Fatalf("listed %d notifications, want 3", len(notifications))
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/notifications/"+notifications[0].ID+"/read", session.AccessToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("mark read: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/notifications/nope/read", session.AccessToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("mark unknown read: %d, want 404", rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/notifications/read-all", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read-all: %d", rec.Code)
	}
	var result map[string]int
	decodeData(t, rec, &result)
	if result["marked"] != 2 {
		t.Errorf("read-all marked %d, want 2", result["marked"])
	}
}

func TestMessageHistoryAccess(t *testing.T) {
	f := newFixture(t)
	alice := f.registerUser(t)
	bob := f.registerUser(t)
	carol := f.registerUser(t)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		msg := &models.Message{
			SenderID:    alice.User.ID,
			RecipientID: bob.User.ID,
			Content:     "hello",
		}
		if err := f.store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
	convID := models.ConversationID(alice.User.ID, bob.User.ID)

	var convs []models.Conversation
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/conversations", bob.AccessToken, nil), &convs)
	if len(convs) != 1 || convs[0].ID != convID {
		t.Fatalf("conversations = %+v", convs)
	}

	var messages []models.Message
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/conversations/"+convID+"/messages", alice.AccessToken, nil), &messages)
	if len(messages) != 3 {
		t.Fatalf("history has %d messages, want 3", len(messages))
	}
	if messages[0].Seq != 1 || messages[2].Seq != 3 {
		t.Errorf("history out of order: %+v", messages)
	}

	// Incremental fetch.
	var tail []models.Message
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/conversations/"+convID+"/messages?after_seq=2", alice.AccessToken, nil), &tail)
	if len(tail) != 1 || tail[0].Seq != 3 {
		t.Errorf("after_seq fetch = %+v", tail)
	}

	// Outsiders never see the history.
	if rec := f.do(t, http.MethodGet, "/api/v1/conversations/"+convID+"/messages", carol.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("outsider read: %d, want 403", rec.Code)
	}
}
