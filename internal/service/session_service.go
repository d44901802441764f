package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/model"
	"github.com/ludora-app/ludora-back-sub000/internal/repository"
	"github.com/ludora-app/ludora-back-sub000/pkg/database"
	pkgerrors "github.com/ludora-app/ludora-back-sub000/pkg/errors"
)

// ── 场次模块业务错误 ──

var (
	ErrFieldNotFound   = errors.New("场地不存在")
	ErrSessionNotFound = errors.New("场次不存在")
	ErrSessionModified = errors.New("场次已被其他请求修改，请刷新后重试")
)

// 场地场次查询默认跨度
const defaultFieldSessionsSpan = 7 * 24 * time.Hour

// SessionService 场次业务接口
type SessionService interface {
	// Create 创建场次，创建者自动加入 A 队
	Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	// Update 部分更新场次并重新校验时间
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SessionResponse, error)
	// ListByField 查询场地在 [from, to) 内的场次，零值时取当前时间起 7 天
	ListByField(ctx context.Context, fieldID string, from, to time.Time) ([]dto.SessionResponse, error)
}

type sessionService struct {
	repo   *repository.Repository
	teams  TeamService
	clock  clockwork.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
// loc 为营业时间所在时区
func NewSessionService(repo *repository.Repository, teams TeamService, clock clockwork.Clock, loc *time.Location, logger *zap.Logger) SessionService {
	if loc == nil {
		loc = time.UTC
	}
	return &sessionService{repo: repo, teams: teams, clock: clock, loc: loc, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create 流程：锁定场地 → 校验可用性 → 写入场次 → 默认队伍 → 创建者入队
// ════════════════════════════════════════════════════════════

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	start := req.StartDate.UTC()
	end := req.EndDate.UTC()
	now := s.clock.Now().UTC()

	var (
		session *model.Session
		teams   []model.Team
	)
	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		field, err := s.lockField(ctx, txRepo, req.FieldID)
		if err != nil {
			return err
		}

		if err := s.checkAvailability(ctx, txRepo, field, start, end, now, ""); err != nil {
			return err
		}

		session = &model.Session{
			FieldID:           field.FieldID,
			CreatorID:         callerID,
			Sport:             field.Sport,
			GameMode:          req.GameMode,
			Title:             req.Title,
			Description:       req.Description,
			StartDate:         start,
			EndDate:           end,
			MaxPlayersPerTeam: req.MaxPlayersPerTeam,
			MinPlayersPerTeam: req.MinPlayersPerTeam,
			TeamsPerGame:      req.TeamsPerGame,
		}
		if session.GameMode == "" {
			session.GameMode = field.GameMode
		}
		if session.Title == "" {
			session.Title = s.defaultTitle(field.Sport, start)
		}
		if session.TeamsPerGame == 0 {
			session.TeamsPerGame = 2
		}
		session.CreatedAt = now
		session.UpdatedAt = now
		session.Version = 1

		if err := txRepo.Session.Create(ctx, session); err != nil {
			if database.IsExclusionViolation(err, database.ConstraintSessionOverlap) {
				return ErrTimeConflict
			}
			s.logger.Error("创建场次失败", zap.Error(err))
			return err
		}

		teams, err = s.teams.CreateDefaultTeams(ctx, txRepo, session.SessionID)
		if err != nil {
			return err
		}

		if err := s.teams.AddPlayerToSession(ctx, txRepo, session.SessionID, teams[0].TeamID, callerID); err != nil {
			return err
		}
		teams[0].Players = append(teams[0].Players, model.SessionPlayer{
			SessionID: session.SessionID,
			TeamID:    teams[0].TeamID,
			UserID:    callerID,
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		// 提交阶段由并发写入触发的排他约束
		if database.IsExclusionViolation(err, database.ConstraintSessionOverlap) {
			return nil, ErrTimeConflict
		}
		return nil, err
	}

	s.logger.Info("场次已创建",
		zap.String("session_id", session.SessionID),
		zap.String("field_id", session.FieldID),
		zap.String("creator_id", callerID),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	session.Teams = teams
	return toSessionResponse(session), nil
}

// ════════════════════════════════════════════════════════════
// Update 部分更新，排除自身后重新校验
// ════════════════════════════════════════════════════════════

func (s *sessionService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	now := s.clock.Now().UTC()

	var session *model.Session
	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		current, err := txRepo.Session.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			s.logger.Error("查询场次失败", zap.Error(err))
			return err
		}

		field, err := s.lockField(ctx, txRepo, current.FieldID)
		if err != nil {
			return err
		}

		updated := *current
		applySessionUpdate(&updated, req)

		if err := s.checkAvailability(ctx, txRepo, field, updated.StartDate, updated.EndDate, now, updated.SessionID); err != nil {
			return err
		}

		updated.UpdatedAt = now
		if err := txRepo.Session.Update(ctx, &updated); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrSessionModified
			}
			if database.IsExclusionViolation(err, database.ConstraintSessionOverlap) {
				return ErrTimeConflict
			}
			s.logger.Error("更新场次失败", zap.String("session_id", id), zap.Error(err))
			return err
		}
		session = &updated
		return nil
	})
	if err != nil {
		if database.IsExclusionViolation(err, database.ConstraintSessionOverlap) {
			return nil, ErrTimeConflict
		}
		return nil, err
	}

	s.logger.Info("场次已更新",
		zap.String("session_id", id),
		zap.String("operator", callerID),
		zap.Int("version", session.Version),
	)
	return toSessionResponse(session), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *sessionService) GetByID(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	teams, err := s.repo.Team.ListBySession(ctx, id)
	if err != nil {
		s.logger.Error("查询队伍列表失败", zap.Error(err))
		return nil, err
	}
	session.Teams = teams

	return toSessionResponse(session), nil
}

func (s *sessionService) ListByField(ctx context.Context, fieldID string, from, to time.Time) ([]dto.SessionResponse, error) {
	if _, err := s.repo.Field.GetByID(ctx, fieldID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		s.logger.Error("查询场地失败", zap.Error(err))
		return nil, err
	}

	from, to = s.defaultRange(from, to)
	if !to.After(from) {
		return nil, ErrInvalidInterval
	}

	sessions, err := s.repo.Session.ListByField(ctx, fieldID, from, to)
	if err != nil {
		s.logger.Error("查询场地场次失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		list = append(list, *toSessionResponse(&sessions[i]))
	}
	return list, nil
}

// ── 内部方法 ──

func (s *sessionService) lockField(ctx context.Context, repo *repository.Repository, fieldID string) (*model.Field, error) {
	field, err := repo.Field.GetByIDForUpdate(ctx, fieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		s.logger.Error("锁定场地失败", zap.String("field_id", fieldID), zap.Error(err))
		return nil, err
	}
	return field, nil
}

// checkAvailability 查询营业时间与重叠场次后执行可用性校验
func (s *sessionService) checkAvailability(ctx context.Context, repo *repository.Repository, field *model.Field, start, end, now time.Time, excludeID string) error {
	hours, err := repo.OpeningHours.GetByPartnerAndWeekday(ctx, field.PartnerID, weekdayIn(start, s.loc))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询营业时间失败", zap.String("partner_id", field.PartnerID), zap.Error(err))
		return err
	}

	existing, err := repo.Session.ListOverlapping(ctx, field.FieldID, start, end, excludeID)
	if err != nil {
		s.logger.Error("查询重叠场次失败", zap.Error(err))
		return err
	}

	return ValidateAvailability(AvailabilityInput{
		Hours:            hours,
		Start:            start,
		End:              end,
		Now:              now,
		Existing:         existing,
		ExcludeSessionID: excludeID,
		Location:         s.loc,
	})
}

// defaultTitle 生成默认标题，日期按场地时区格式化
func (s *sessionService) defaultTitle(sport string, start time.Time) string {
	return fmt.Sprintf("Session de %s le %s", sport, start.In(s.loc).Format("02/01/2006"))
}

func (s *sessionService) defaultRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = s.clock.Now()
	}
	if to.IsZero() {
		to = from.Add(defaultFieldSessionsSpan)
	}
	return from.UTC(), to.UTC()
}

func applySessionUpdate(session *model.Session, req *dto.UpdateSessionRequest) {
	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.Description != nil {
		session.Description = *req.Description
	}
	if req.GameMode != nil {
		session.GameMode = *req.GameMode
	}
	if req.StartDate != nil {
		session.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		session.EndDate = req.EndDate.UTC()
	}
	if req.MaxPlayersPerTeam != nil {
		session.MaxPlayersPerTeam = *req.MaxPlayersPerTeam
	}
	if req.MinPlayersPerTeam != nil {
		session.MinPlayersPerTeam = *req.MinPlayersPerTeam
	}
	if req.TeamsPerGame != nil {
		session.TeamsPerGame = *req.TeamsPerGame
	}
}

func toSessionResponse(s *model.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:                s.SessionID,
		FieldID:           s.FieldID,
		CreatorID:         s.CreatorID,
		Sport:             s.Sport,
		GameMode:          s.GameMode,
		Title:             s.Title,
		Description:       s.Description,
		StartDate:         s.StartDate.UTC().Format(time.RFC3339),
		EndDate:           s.EndDate.UTC().Format(time.RFC3339),
		MaxPlayersPerTeam: s.MaxPlayersPerTeam,
		MinPlayersPerTeam: s.MinPlayersPerTeam,
		TeamsPerGame:      s.TeamsPerGame,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(s.Teams) > 0 {
		resp.Teams = toTeamResponses(s.Teams)
	}
	return resp
}
