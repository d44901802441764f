package service

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ludora-app/ludora-back-sub000/config"
	"github.com/ludora-app/ludora-back-sub000/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Session    SessionService
	Invitation InvitationService
	Team       TeamService
	Export     ExportService
	Calendar   CalendarService
}

// NewService 创建 Service 聚合
// clock 在测试中可替换为 clockwork.NewFakeClock()
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	clock clockwork.Clock,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	loc := cfg.Scheduling.Location()
	teams := NewTeamService(repo, LeastFilledBalancer{}, clock, logger)

	return &Service{
		Session:    NewSessionService(repo, teams, clock, loc, logger),
		Invitation: NewInvitationService(repo, teams, clock, notifier, logger),
		Team:       teams,
		Export:     NewExportService(repo, loc, logger),
		Calendar:   NewCalendarService(repo, clock, logger),
	}
}
