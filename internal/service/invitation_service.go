package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/model"
	"github.com/ludora-app/ludora-back-sub000/internal/repository"
	"github.com/ludora-app/ludora-back-sub000/pkg/database"
)

// ── 邀请模块业务错误 ──

var (
	ErrReceiverNotFound          = errors.New("被邀请用户不存在")
	ErrSenderNotInSession        = errors.New("邀请人不在该场次中")
	ErrCannotInviteSelf          = errors.New("不能邀请自己")
	ErrAlreadyInvited            = errors.New("该用户已被邀请")
	ErrInvitationNotFound        = errors.New("邀请不存在")
	ErrNoStatusChange            = errors.New("邀请状态未发生变化")
	ErrIllegalReceiverTransition = errors.New("被邀请人只能接受或拒绝邀请")
	ErrIllegalSenderTransition   = errors.New("邀请人只能取消邀请")
	ErrInvitationClosed          = errors.New("邀请已结束，无法变更状态")
	ErrInvalidCursor             = errors.New("分页游标无效")
)

// InvitationService 邀请业务接口
type InvitationService interface {
	// Create 发送邀请，发送者必须已在场次中
	Create(ctx context.Context, senderID string, req *dto.CreateInvitationRequest) (*dto.InvitationResponse, error)
	// ListByReceiver 查询用户收到的邀请（游标分页）
	ListByReceiver(ctx context.Context, receiverID string, q *dto.InvitationListQuery) (*dto.InvitationPage, error)
	// ListBySession 查询场次内的邀请（游标分页）
	ListBySession(ctx context.Context, sessionID string, q *dto.InvitationListQuery) (*dto.InvitationPage, error)
	// UpdateStatus 接受 / 拒绝 / 取消邀请；接受时同一事务内入队
	UpdateStatus(ctx context.Context, actorID string, req *dto.UpdateInvitationStatusRequest) (*dto.InvitationResponse, error)
}

type invitationService struct {
	repo     *repository.Repository
	teams    TeamService
	clock    clockwork.Clock
	notifier Notifier
	logger   *zap.Logger
}

// NewInvitationService 创建 InvitationService 实例
func NewInvitationService(repo *repository.Repository, teams TeamService, clock clockwork.Clock, notifier Notifier, logger *zap.Logger) InvitationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &invitationService{repo: repo, teams: teams, clock: clock, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *invitationService) Create(ctx context.Context, senderID string, req *dto.CreateInvitationRequest) (*dto.InvitationResponse, error) {
	// 1. 场次存在
	if _, err := s.repo.Session.GetByID(ctx, req.SessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	// 2. 发送者在场次中
	inSession, err := s.repo.SessionPlayer.Exists(ctx, req.SessionID, senderID)
	if err != nil {
		s.logger.Error("查询场次成员失败", zap.Error(err))
		return nil, err
	}
	if !inSession {
		return nil, ErrSenderNotInSession
	}

	// 3. 接收者存在
	exists, err := s.repo.User.Exists(ctx, req.ReceiverID)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !exists {
		return nil, ErrReceiverNotFound
	}

	// 4. 不能邀请自己
	if senderID == req.ReceiverID {
		return nil, ErrCannotInviteSelf
	}

	// 5. 最新邀请为 PENDING / ACCEPTED 时不可重复邀请
	latest, err := s.repo.Invitation.GetLatest(ctx, req.SessionID, req.ReceiverID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询已有邀请失败", zap.Error(err))
		return nil, err
	}
	if latest != nil && latest.Status.BlocksNewInvitation() {
		return nil, ErrAlreadyInvited
	}

	// 6. 接收者已是场次成员（如创建者）时不可邀请
	enrolled, err := s.repo.SessionPlayer.Exists(ctx, req.SessionID, req.ReceiverID)
	if err != nil {
		s.logger.Error("查询场次成员失败", zap.Error(err))
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	// 7. 写入
	now := s.clock.Now().UTC()
	invitation := &model.Invitation{
		SessionID:  req.SessionID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Status:     model.InvitationPending,
	}
	invitation.CreatedAt = now
	invitation.UpdatedAt = now

	if err := s.repo.Invitation.Create(ctx, invitation); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintActiveInvitation) {
			return nil, ErrAlreadyInvited
		}
		s.logger.Error("创建邀请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("邀请已发送",
		zap.String("invitation_id", invitation.InvitationID),
		zap.String("session_id", invitation.SessionID),
		zap.String("sender_id", senderID),
		zap.String("receiver_id", invitation.ReceiverID),
	)

	resp := toInvitationResponse(invitation)
	s.notifier.Notify(ctx, EventInvitationCreated, resp, invitation.ReceiverID)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// List
// ════════════════════════════════════════════════════════════

func (s *invitationService) ListByReceiver(ctx context.Context, receiverID string, q *dto.InvitationListQuery) (*dto.InvitationPage, error) {
	return s.list(ctx, repository.InvitationFilter{ReceiverID: receiverID}, q)
}

func (s *invitationService) ListBySession(ctx context.Context, sessionID string, q *dto.InvitationListQuery) (*dto.InvitationPage, error) {
	if _, err := s.repo.Session.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}
	return s.list(ctx, repository.InvitationFilter{SessionID: sessionID}, q)
}

func (s *invitationService) list(ctx context.Context, filter repository.InvitationFilter, q *dto.InvitationListQuery) (*dto.InvitationPage, error) {
	limit := q.GetLimit()
	filter.Status = model.InvitationStatus(q.Scope)
	// 多取一条用于判断是否存在下一页
	filter.Limit = limit + 1

	if q.Cursor != "" {
		cursor, err := decodeInvitationCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		filter.After = cursor
	}

	invitations, total, err := s.repo.Invitation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询邀请列表失败", zap.Error(err))
		return nil, err
	}

	page := &dto.InvitationPage{
		Items:      make([]dto.InvitationResponse, 0, limit),
		TotalCount: total,
	}
	if len(invitations) > limit {
		invitations = invitations[:limit]
		last := invitations[limit-1]
		next := encodeInvitationCursor(last.SessionID, last.ReceiverID)
		page.NextCursor = &next
	}
	for i := range invitations {
		page.Items = append(page.Items, *toInvitationResponse(&invitations[i]))
	}
	return page, nil
}

// ════════════════════════════════════════════════════════════
// UpdateStatus 流程：定位 → 迁移校验 → 条件更新（+ 入队）→ 通知
// ════════════════════════════════════════════════════════════

func (s *invitationService) UpdateStatus(ctx context.Context, actorID string, req *dto.UpdateInvitationStatusRequest) (*dto.InvitationResponse, error) {
	invitation, err := s.locate(ctx, actorID, req)
	if err != nil {
		return nil, err
	}

	next, err := nextInvitationStatus(invitation, actorID, model.InvitationStatus(req.Status))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		ok, err := txRepo.Invitation.UpdateStatus(ctx, invitation.InvitationID, invitation.Status, next, now)
		if err != nil {
			s.logger.Error("更新邀请状态失败", zap.Error(err))
			return err
		}
		if !ok {
			return s.resolveLostUpdate(ctx, txRepo, invitation.InvitationID, next)
		}

		if next != model.InvitationAccepted {
			return nil
		}

		session, err := txRepo.Session.GetByID(ctx, invitation.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			s.logger.Error("查询场次失败", zap.Error(err))
			return err
		}
		_, err = s.teams.EnrollBalanced(ctx, txRepo, session, invitation.ReceiverID)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated := invitation.WithStatus(next)
	updated.UpdatedAt = now

	s.logger.Info("邀请状态已变更",
		zap.String("invitation_id", updated.InvitationID),
		zap.String("from", string(invitation.Status)),
		zap.String("to", string(next)),
		zap.String("operator", actorID),
	)

	resp := toInvitationResponse(&updated)
	target := updated.SenderID
	if actorID == updated.SenderID {
		target = updated.ReceiverID
	}
	s.notifier.Notify(ctx, statusEvent(next), resp, target)
	return resp, nil
}

// locate 定位操作目标邀请
//   - 指定 receiver_id：取该 (session, receiver) 最新一条，操作者须为其发送者或接收者
//   - 未指定且请求 CANCELED：优先取操作者发出的最新一条，其次取其收到的最新一条
//   - 未指定的其他状态：优先取操作者收到的最新一条，其次取其发出的最新一条
func (s *invitationService) locate(ctx context.Context, actorID string, req *dto.UpdateInvitationStatusRequest) (*model.Invitation, error) {
	if req.ReceiverID != "" {
		invitation, err := s.repo.Invitation.GetLatest(ctx, req.SessionID, req.ReceiverID)
		if err != nil {
			return nil, s.mapNotFound(err)
		}
		if invitation.SenderID != actorID && invitation.ReceiverID != actorID {
			return nil, ErrInvitationNotFound
		}
		return invitation, nil
	}

	received := func() (*model.Invitation, error) {
		return s.repo.Invitation.GetLatest(ctx, req.SessionID, actorID)
	}
	sent := func() (*model.Invitation, error) {
		return s.repo.Invitation.GetLatestSent(ctx, req.SessionID, actorID)
	}
	first, second := received, sent
	if model.InvitationStatus(req.Status) == model.InvitationCanceled {
		first, second = sent, received
	}

	invitation, err := first()
	if err == nil {
		return invitation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.mapNotFound(err)
	}

	invitation, err = second()
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return invitation, nil
}

func (s *invitationService) mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvitationNotFound
	}
	s.logger.Error("查询邀请失败", zap.Error(err))
	return err
}

// resolveLostUpdate 条件更新未命中时重新读取，判定并发请求的结果
func (s *invitationService) resolveLostUpdate(ctx context.Context, repo *repository.Repository, id string, want model.InvitationStatus) error {
	current, err := repo.Invitation.GetByID(ctx, id)
	if err != nil {
		return s.mapNotFound(err)
	}
	if current.Status == want {
		return ErrNoStatusChange
	}
	return ErrInvitationClosed
}

// nextInvitationStatus 校验状态迁移，不访问存储
//
//	PENDING → ACCEPTED | REJECTED   （仅接收者）
//	PENDING → CANCELED              （仅发送者）
func nextInvitationStatus(invitation *model.Invitation, actorID string, to model.InvitationStatus) (model.InvitationStatus, error) {
	if to == invitation.Status {
		return "", ErrNoStatusChange
	}

	if actorID == invitation.ReceiverID {
		if to != model.InvitationAccepted && to != model.InvitationRejected {
			return "", ErrIllegalReceiverTransition
		}
	} else if to != model.InvitationCanceled {
		return "", ErrIllegalSenderTransition
	}

	if invitation.Status.IsTerminal() {
		return "", ErrInvitationClosed
	}
	return to, nil
}

func statusEvent(status model.InvitationStatus) string {
	switch status {
	case model.InvitationAccepted:
		return EventInvitationAccepted
	case model.InvitationRejected:
		return EventInvitationRejected
	default:
		return EventInvitationCanceled
	}
}

// ── 游标 ──

// 游标为 "session_id:receiver_id" 的 base64url 编码
func encodeInvitationCursor(sessionID, receiverID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sessionID + ":" + receiverID))
}

func decodeInvitationCursor(raw string) (*repository.InvitationCursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(b), ":", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}
	// 两部分均须为 UUID
	for _, part := range parts {
		if _, err := uuid.Parse(part); err != nil {
			return nil, ErrInvalidCursor
		}
	}
	return &repository.InvitationCursor{SessionID: parts[0], ReceiverID: parts[1]}, nil
}

func toInvitationResponse(i *model.Invitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		ID:         i.InvitationID,
		SessionID:  i.SessionID,
		SenderID:   i.SenderID,
		ReceiverID: i.ReceiverID,
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  i.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
