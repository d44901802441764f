package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ludora-app/ludora-back-sub000/internal/repository"
)

// 日历回看窗口：已结束一周内的场次仍保留在订阅中
const calendarLookback = 7 * 24 * time.Hour

// CalendarService 个人日历订阅
type CalendarService interface {
	// ExportICS 生成用户参与场次的 iCalendar (RFC 5545) 内容
	ExportICS(ctx context.Context, userID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, clock clockwork.Clock, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, clock: clock, logger: logger}
}

func (s *calendarService) ExportICS(ctx context.Context, userID string) (string, error) {
	now := s.clock.Now().UTC()

	sessions, err := s.repo.Session.ListByPlayer(ctx, userID, now.Add(-calendarLookback))
	if err != nil {
		s.logger.Error("查询用户场次失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Ludora//Sessions//FR")
	cal.SetName("Ludora")

	for _, session := range sessions {
		event := cal.AddEvent(fmt.Sprintf("%s@ludora", session.SessionID))
		event.SetDtStampTime(now)
		event.SetStartAt(session.StartDate.UTC())
		event.SetEndAt(session.EndDate.UTC())
		event.SetModifiedAt(session.UpdatedAt.UTC())
		event.SetSummary(session.Title)
		if session.Description != "" {
			event.SetDescription(session.Description)
		}
		if session.Field != nil {
			location := session.Field.Name
			if session.Field.Address != "" {
				location += ", " + session.Field.Address
			}
			event.SetLocation(location)
			if session.Field.Latitude != nil && session.Field.Longitude != nil {
				event.SetGeo(*session.Field.Latitude, *session.Field.Longitude)
			}
		}
	}

	return cal.Serialize(), nil
}
