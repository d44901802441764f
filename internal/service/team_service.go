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
)

// ── 队伍模块业务错误 ──

var (
	ErrSessionFull     = errors.New("场次各队伍人数已满")
	ErrAlreadyEnrolled = errors.New("用户已在该场次的队伍中")
)

// TeamBalancer 入队分配策略
type TeamBalancer interface {
	// Pick 从 teams 中选出新成员应加入的队伍
	// counts 为各队当前人数（key 为 team_id），maxPerTeam<=0 表示不限
	Pick(teams []model.Team, counts map[string]int64, maxPerTeam int) (*model.Team, error)
}

// LeastFilledBalancer 选择人数最少的队伍，人数相同时按 label 顺序
type LeastFilledBalancer struct{}

// Pick 实现 TeamBalancer
// teams 需已按 label 升序排列
func (LeastFilledBalancer) Pick(teams []model.Team, counts map[string]int64, maxPerTeam int) (*model.Team, error) {
	var picked *model.Team
	for i := range teams {
		team := &teams[i]
		n := counts[team.TeamID]
		if maxPerTeam > 0 && n >= int64(maxPerTeam) {
			continue
		}
		if picked == nil || n < counts[picked.TeamID] {
			picked = team
		}
	}
	if picked == nil {
		return nil, ErrSessionFull
	}
	return picked, nil
}

// TeamService 队伍业务接口
//
// 写操作接收调用方传入的 repo，以便与场次、邀请的写入处于同一事务
type TeamService interface {
	// CreateDefaultTeams 为新场次创建 A、B 两队
	CreateDefaultTeams(ctx context.Context, repo *repository.Repository, sessionID string) ([]model.Team, error)
	// AddPlayerToSession 将用户加入指定队伍
	AddPlayerToSession(ctx context.Context, repo *repository.Repository, sessionID, teamID, userID string) error
	// EnrollBalanced 锁定场次队伍后按 TeamBalancer 分配并入队
	EnrollBalanced(ctx context.Context, repo *repository.Repository, session *model.Session, userID string) (*model.Team, error)
	// ListTeams 获取场次的队伍及成员
	ListTeams(ctx context.Context, sessionID string) ([]dto.TeamResponse, error)
}

type teamService struct {
	repo     *repository.Repository
	balancer TeamBalancer
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewTeamService 创建 TeamService 实例
func NewTeamService(repo *repository.Repository, balancer TeamBalancer, clock clockwork.Clock, logger *zap.Logger) TeamService {
	return &teamService{repo: repo, balancer: balancer, clock: clock, logger: logger}
}

// ────────────────────── CreateDefaultTeams ──────────────────────

func (s *teamService) CreateDefaultTeams(ctx context.Context, repo *repository.Repository, sessionID string) ([]model.Team, error) {
	teams := make([]model.Team, 0, 2)
	for _, label := range []string{model.TeamLabelA, model.TeamLabelB} {
		teams = append(teams, model.Team{
			SessionID: sessionID,
			Label:     label,
			Name:      fmt.Sprintf("Team %s", label),
		})
	}

	if err := repo.Team.BatchCreate(ctx, teams); err != nil {
		s.logger.Error("创建默认队伍失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return teams, nil
}

// ────────────────────── AddPlayerToSession ──────────────────────

func (s *teamService) AddPlayerToSession(ctx context.Context, repo *repository.Repository, sessionID, teamID, userID string) error {
	exists, err := repo.SessionPlayer.Exists(ctx, sessionID, userID)
	if err != nil {
		s.logger.Error("查询场次成员失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	player := &model.SessionPlayer{
		SessionID: sessionID,
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := repo.SessionPlayer.Create(ctx, player); err != nil {
		// 并发入队由 (session_id, user_id) 唯一约束兜底
		if database.IsUniqueViolation(err, database.ConstraintSessionPlayerUnique) {
			return ErrAlreadyEnrolled
		}
		s.logger.Error("添加场次成员失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── EnrollBalanced ──────────────────────

func (s *teamService) EnrollBalanced(ctx context.Context, repo *repository.Repository, session *model.Session, userID string) (*model.Team, error) {
	teams, err := repo.Team.LockBySession(ctx, session.SessionID)
	if err != nil {
		s.logger.Error("锁定场次队伍失败", zap.Error(err))
		return nil, err
	}

	counts, err := repo.SessionPlayer.CountByTeam(ctx, session.SessionID)
	if err != nil {
		s.logger.Error("统计队伍人数失败", zap.Error(err))
		return nil, err
	}

	team, err := s.balancer.Pick(teams, counts, session.MaxPlayersPerTeam)
	if err != nil {
		return nil, err
	}

	if err := s.AddPlayerToSession(ctx, repo, session.SessionID, team.TeamID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("用户已加入队伍",
		zap.String("session_id", session.SessionID),
		zap.String("team", team.Label),
		zap.String("user_id", userID),
	)
	return team, nil
}

// ────────────────────── ListTeams ──────────────────────

func (s *teamService) ListTeams(ctx context.Context, sessionID string) ([]dto.TeamResponse, error) {
	if _, err := s.repo.Session.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	teams, err := s.repo.Team.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询队伍列表失败", zap.Error(err))
		return nil, err
	}

	return toTeamResponses(teams), nil
}

// ── 转换 ──

func toTeamResponses(teams []model.Team) []dto.TeamResponse {
	list := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		t := &teams[i]
		players := make([]dto.PlayerResponse, 0, len(t.Players))
		for _, p := range t.Players {
			resp := dto.PlayerResponse{
				UserID:   p.UserID,
				JoinedAt: p.CreatedAt.UTC().Format(time.RFC3339),
			}
			if p.User != nil {
				resp.Name = p.User.Name
			}
			players = append(players, resp)
		}
		list = append(list, dto.TeamResponse{
			ID:      t.TeamID,
			Label:   t.Label,
			Name:    t.Name,
			Players: players,
		})
	}
	return list
}
