package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/digiplay/digiplay-server/internal/models"
)

// transactionsPerChild is how many recent activity rows each child adds to
// the messages feed
const transactionsPerChild = 3

// Messages builds the parent's feed across all children: every request, the
// first recent activity rows, and the fixed thanks, task and login notes.
// Rows are newest first. A non-empty query keeps rows whose child name,
// title or message contain it, case-insensitively; the unread count always
// covers the whole feed.
func (s *Store) Messages(ctx context.Context, ownerID, query string) (*models.MessagesResponse, error) {
	children, err := s.ListChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	hours := func(n int) int64 { return int64(n) * int64(time.Hour/time.Millisecond) }

	var feed []models.Message
	for i, child := range children {
		base := models.Message{
			ChildID:     child.ID,
			ChildName:   child.FirstName + " " + child.LastName,
			ChildAvatar: child.Avatar,
		}

		requests, err := s.Requests(ctx, ownerID, child.ID)
		if err != nil {
			return nil, err
		}
		for j, r := range requests {
			m := base
			m.ID = "request_" + child.ID + "_" + r.ID
			m.Type = models.MessageRequest
			m.Title = r.Title
			m.Message = r.Description
			if m.Message == "" {
				m.Message = r.Title
			}
			m.Timestamp = r.Date
			if m.Timestamp == 0 {
				m.Timestamp = now - hours(2*i) - int64(j)*int64(30*time.Minute/time.Millisecond)
			}
			m.IsRead = r.Status != models.RequestPending
			m.Status = r.Status
			m.Amount = r.Amount
			feed = append(feed, m)
		}

		recent, err := loadOrEmpty[[]models.RecentActivity](ctx, s, ownerID, RecentActivitiesKey(child.ID))
		if err != nil {
			return nil, err
		}
		if len(recent) > transactionsPerChild {
			recent = recent[:transactionsPerChild]
		}
		for j, a := range recent {
			kind := "درآمد"
			if a.Type == models.ActivityExpense {
				kind = "هزینه"
			}
			m := base
			m.ID = "activity_" + child.ID + "_" + a.ID
			m.Type = models.MessageTransaction
			m.Title = a.Title
			m.Message = a.Title + " - " + kind
			m.Timestamp = a.Date
			if m.Timestamp == 0 {
				m.Timestamp = now - hours(3*i) - hours(j)
			}
			m.IsRead = true
			m.Amount = a.Amount
			feed = append(feed, m)
		}

		thanks := base
		thanks.ID = "thanks_" + child.ID
		thanks.Type = models.MessageThanks
		thanks.Title = "تشکر"
		thanks.Message = "ممنون از واریز حقوق هفتگی 😊"
		thanks.Timestamp = now - hours(4*i)
		thanks.IsRead = i != 0

		task := base
		task.ID = "task_" + child.ID
		task.Type = models.MessageTask
		task.Title = "تسک انجام شد"
		task.Message = `تسک "خرید کتاب درسی" رو انجام دادم!`
		task.Timestamp = now - hours(5*i)
		task.IsRead = true

		login := base
		login.ID = "login_" + child.ID
		login.Type = models.MessageLogin
		login.Title = "ورود به اپلیکیشن"
		login.Message = "به اپلیکیشن وارد شد"
		login.Timestamp = now - hours(6*i)
		login.IsRead = true

		feed = append(feed, thanks, task, login)
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp > feed[j].Timestamp })

	resp := &models.MessagesResponse{Messages: make([]models.Message, 0, len(feed))}
	query = strings.ToLower(strings.TrimSpace(query))
	for _, m := range feed {
		if !m.IsRead {
			resp.UnreadCount++
		}
		if query == "" || matches(m, query) {
			resp.Messages = append(resp.Messages, m)
		}
	}
	return resp, nil
}

func matches(m models.Message, query string) bool {
	for _, field := range []string{m.ChildName, m.Title, m.Message} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
