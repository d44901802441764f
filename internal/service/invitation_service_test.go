package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// ── 测试辅助 ──

// 游标分页要求 ID 为 UUID
const (
	testSessionID = "5e550000-0000-4000-8000-000000000001"
	userSender    = "00000000-0000-4000-8000-0000000000a1"
	userReceiver  = "00000000-0000-4000-8000-0000000000b2"
	userOther     = "00000000-0000-4000-8000-0000000000c3"
)

// pagedReceiver 按序号生成的接收者，字典序与序号一致
func pagedReceiver(i int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-1000000000%02d", i)
}

// seedSession 场次 X：A、B 两队，发送者 S 在 A 队
func seedSession(t *testing.T, repos *testRepos, sessionID string, maxPerTeam int) {
	t.Helper()
	ctx := context.Background()

	repos.session.sessions[sessionID] = &model.Session{
		SessionID:         sessionID,
		FieldID:           testFieldID,
		CreatorID:         userSender,
		Sport:             "football",
		StartDate:         at(tuesday, 10, 0),
		EndDate:           at(tuesday, 12, 0),
		MaxPlayersPerTeam: maxPerTeam,
	}
	teams := []model.Team{
		{TeamID: sessionID + "-a", SessionID: sessionID, Label: model.TeamLabelA, Name: "Team A"},
		{TeamID: sessionID + "-b", SessionID: sessionID, Label: model.TeamLabelB, Name: "Team B"},
	}
	if err := repos.team.BatchCreate(ctx, teams); err != nil {
		t.Fatalf("seed 队伍失败: %v", err)
	}
	if err := repos.player.Create(ctx, &model.SessionPlayer{SessionID: sessionID, TeamID: sessionID + "-a", UserID: userSender}); err != nil {
		t.Fatalf("seed 成员失败: %v", err)
	}
}

func setupTestInvitationService(t *testing.T, maxPerTeam int) (InvitationService, *testRepos, *mockNotifier) {
	t.Helper()
	repos := newTestRepos()
	seedField(repos)
	repos.user.add(userSender, userReceiver, userOther)
	seedSession(t, repos, testSessionID, maxPerTeam)

	repoAgg := repos.toRepository()
	clock := clockwork.NewFakeClockAt(mondayNow)
	logger := zap.NewNop()
	notifier := &mockNotifier{}
	teams := NewTeamService(repoAgg, LeastFilledBalancer{}, clock, logger)
	return NewInvitationService(repoAgg, teams, clock, notifier, logger), repos, notifier
}

func invite(t *testing.T, svc InvitationService, sender, receiver string) *dto.InvitationResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), sender, &dto.CreateInvitationRequest{SessionID: testSessionID, ReceiverID: receiver})
	if err != nil {
		t.Fatalf("邀请 %s 应成功: %v", receiver, err)
	}
	return resp
}

func setStatus(svc InvitationService, actor string, status model.InvitationStatus) (*dto.InvitationResponse, error) {
	return svc.UpdateStatus(context.Background(), actor, &dto.UpdateInvitationStatusRequest{
		SessionID: testSessionID,
		Status:    string(status),
	})
}

// ────────────────────── Create ──────────────────────

func TestInvitationService_Create(t *testing.T) {
	svc, _, notifier := setupTestInvitationService(t, 0)

	resp := invite(t, svc, userSender, userReceiver)
	if resp.Status != string(model.InvitationPending) {
		t.Errorf("新邀请应为 PENDING，实际: %s", resp.Status)
	}
	if resp.SenderID != userSender || resp.ReceiverID != userReceiver {
		t.Errorf("发送者/接收者不符: %+v", resp)
	}

	sent := notifier.events()
	if len(sent) != 1 || sent[0].event != EventInvitationCreated || sent[0].target != userReceiver {
		t.Errorf("应通知接收者，实际: %+v", sent)
	}
}

func TestInvitationService_Create_Preconditions(t *testing.T) {
	svc, _, _ := setupTestInvitationService(t, 0)

	tests := []struct {
		name     string
		sender   string
		session  string
		receiver string
		wantErr  error
	}{
		{"场次不存在", userSender, "session-missing", userReceiver, ErrSessionNotFound},
		{"发送者不在场次中", userOther, testSessionID, userReceiver, ErrSenderNotInSession},
		{"接收者不存在", userSender, testSessionID, "user-missing", ErrReceiverNotFound},
		{"邀请自己", userSender, testSessionID, userSender, ErrCannotInviteSelf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.sender, &dto.CreateInvitationRequest{SessionID: tt.session, ReceiverID: tt.receiver})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestInvitationService_Create_Uniqueness(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		status  model.InvitationStatus
		wantErr error
	}{
		{"PENDING 阻止重复邀请", "", model.InvitationPending, ErrAlreadyInvited},
		{"ACCEPTED 阻止重复邀请", userReceiver, model.InvitationAccepted, ErrAlreadyInvited},
		{"REJECTED 后可重新邀请", userReceiver, model.InvitationRejected, nil},
		{"CANCELED 后可重新邀请", userSender, model.InvitationCanceled, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupTestInvitationService(t, 0)
			invite(t, svc, userSender, userReceiver)
			if tt.actor != "" {
				if _, err := setStatus(svc, tt.actor, tt.status); err != nil {
					t.Fatalf("变更为 %s 应成功: %v", tt.status, err)
				}
			}

			_, err := svc.Create(context.Background(), userSender, &dto.CreateInvitationRequest{SessionID: testSessionID, ReceiverID: userReceiver})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestInvitationService_Create_ConcurrentDuplicate(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 0)
	repos.invitation.createErr = gorm.ErrDuplicatedKey

	_, err := svc.Create(context.Background(), userSender, &dto.CreateInvitationRequest{SessionID: testSessionID, ReceiverID: userReceiver})
	if !errors.Is(err, ErrAlreadyInvited) {
		t.Errorf("唯一索引冲突期望 ErrAlreadyInvited，实际: %v", err)
	}
}

// 已在场次中的用户（如创建者）不可再被邀请
func TestInvitationService_Create_ReceiverAlreadyMember(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)
	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); err != nil {
		t.Fatalf("接受邀请应成功: %v", err)
	}

	before := len(repos.invitation.invitations)
	_, err := svc.Create(context.Background(), userReceiver, &dto.CreateInvitationRequest{SessionID: testSessionID, ReceiverID: userSender})
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("邀请已入队的创建者期望 ErrAlreadyEnrolled，实际: %v", err)
	}
	if after := len(repos.invitation.invitations); after != before {
		t.Errorf("拒绝后不应写入邀请，前 %d 条，后 %d 条", before, after)
	}
}

// ────────────────────── UpdateStatus ──────────────────────

func TestInvitationService_Accept(t *testing.T) {
	svc, repos, notifier := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)

	resp, err := setStatus(svc, userReceiver, model.InvitationAccepted)
	if err != nil {
		t.Fatalf("接受邀请应成功: %v", err)
	}
	if resp.Status != string(model.InvitationAccepted) {
		t.Errorf("状态应为 ACCEPTED，实际: %s", resp.Status)
	}

	// A 队已有发送者，接收者分配到人数更少的 B 队
	players := repos.player.byTeam(testSessionID + "-b")
	if len(players) != 1 || players[0].UserID != userReceiver {
		t.Errorf("接收者应加入 B 队，实际: %+v", players)
	}

	sent := notifier.events()
	last := sent[len(sent)-1]
	if last.event != EventInvitationAccepted || last.target != userSender {
		t.Errorf("应通知发送者已接受，实际: %+v", last)
	}

	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); !errors.Is(err, ErrNoStatusChange) {
		t.Errorf("重复接受期望 ErrNoStatusChange，实际: %v", err)
	}
}

func TestInvitationService_ConcurrentAccept(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := setStatus(svc, userReceiver, model.InvitationAccepted)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("应恰好一次接受成功，实际: %d", success)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrNoStatusChange) {
			t.Errorf("并发失败方期望 ErrNoStatusChange，实际: %v", err)
		}
	}
	if n := repos.player.count(); n != 2 {
		t.Errorf("场次成员应为 2 人（发送者 + 接收者），实际: %d", n)
	}
}

func TestInvitationService_CancelThenReinvite(t *testing.T) {
	svc, _, notifier := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)

	if _, err := setStatus(svc, userSender, model.InvitationCanceled); err != nil {
		t.Fatalf("发送者取消应成功: %v", err)
	}
	sent := notifier.events()
	if last := sent[len(sent)-1]; last.event != EventInvitationCanceled || last.target != userReceiver {
		t.Errorf("应通知接收者已取消，实际: %+v", last)
	}

	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); !errors.Is(err, ErrInvitationClosed) {
		t.Errorf("已取消后接受期望 ErrInvitationClosed，实际: %v", err)
	}

	fresh := invite(t, svc, userSender, userReceiver)
	if fresh.Status != string(model.InvitationPending) {
		t.Errorf("重新邀请应为 PENDING，实际: %s", fresh.Status)
	}

	// 新邀请覆盖旧记录，接收者可以接受
	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); err != nil {
		t.Errorf("接受新邀请应成功: %v", err)
	}
}

func TestInvitationService_TransitionGuards(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		status  model.InvitationStatus
		wantErr error
	}{
		{"接收者取消", userReceiver, model.InvitationCanceled, ErrIllegalReceiverTransition},
		{"接收者设为 PENDING", userReceiver, model.InvitationPending, ErrNoStatusChange},
		{"发送者接受", userSender, model.InvitationAccepted, ErrIllegalSenderTransition},
		{"发送者拒绝", userSender, model.InvitationRejected, ErrIllegalSenderTransition},
		{"第三方操作", userOther, model.InvitationAccepted, ErrInvitationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupTestInvitationService(t, 0)
			invite(t, svc, userSender, userReceiver)

			_, err := setStatus(svc, tt.actor, tt.status)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

// 经邀请入队的成员再邀请他人后，不带 receiver_id 取消的是自己发出的邀请
func TestInvitationService_TransitionGuards_AcceptedMemberAsSender(t *testing.T) {
	svc, _, _ := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)
	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); err != nil {
		t.Fatalf("接受邀请应成功: %v", err)
	}
	invite(t, svc, userReceiver, userOther)

	resp, err := setStatus(svc, userReceiver, model.InvitationCanceled)
	if err != nil {
		t.Fatalf("取消自己发出的邀请应成功: %v", err)
	}
	if resp.ReceiverID != userOther || resp.Status != string(model.InvitationCanceled) {
		t.Errorf("应取消发给 %s 的邀请，实际: %+v", userOther, resp)
	}

	// 其余状态仍以收到的邀请为准
	if _, err := setStatus(svc, userReceiver, model.InvitationRejected); !errors.Is(err, ErrInvitationClosed) {
		t.Errorf("已接受的邀请再拒绝期望 ErrInvitationClosed，实际: %v", err)
	}
	if _, err := setStatus(svc, userOther, model.InvitationAccepted); !errors.Is(err, ErrInvitationClosed) {
		t.Errorf("已取消后接受期望 ErrInvitationClosed，实际: %v", err)
	}
}

func TestInvitationService_UpdateStatus_ByReceiverID(t *testing.T) {
	svc, _, _ := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)
	invite(t, svc, userSender, userOther)

	resp, err := svc.UpdateStatus(context.Background(), userSender, &dto.UpdateInvitationStatusRequest{
		SessionID:  testSessionID,
		Status:     string(model.InvitationCanceled),
		ReceiverID: userReceiver,
	})
	if err != nil {
		t.Fatalf("指定 receiver_id 取消应成功: %v", err)
	}
	if resp.ReceiverID != userReceiver {
		t.Errorf("应取消发给 %s 的邀请，实际: %s", userReceiver, resp.ReceiverID)
	}

	// 无关用户指定 receiver_id 不可见
	_, err = svc.UpdateStatus(context.Background(), "user-stranger", &dto.UpdateInvitationStatusRequest{
		SessionID:  testSessionID,
		Status:     string(model.InvitationCanceled),
		ReceiverID: userOther,
	})
	if !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("期望 ErrInvitationNotFound，实际: %v", err)
	}
}

func TestInvitationService_SessionFull(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 1)
	repos.user.add("user-u")

	// S 在 A 队；R 接受后进入 B 队；两队均满
	invite(t, svc, userSender, userReceiver)
	invite(t, svc, userSender, "user-u")
	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); err != nil {
		t.Fatalf("R 接受应成功: %v", err)
	}

	if _, err := setStatus(svc, "user-u", model.InvitationAccepted); !errors.Is(err, ErrSessionFull) {
		t.Errorf("期望 ErrSessionFull，实际: %v", err)
	}
	if n := repos.player.count(); n != 2 {
		t.Errorf("满员后不应再入队，实际成员数: %d", n)
	}
}

func TestInvitationService_NotFound(t *testing.T) {
	svc, _, _ := setupTestInvitationService(t, 0)
	if _, err := setStatus(svc, userReceiver, model.InvitationAccepted); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("期望 ErrInvitationNotFound，实际: %v", err)
	}
}

// 终态不允许任何迁移
func TestNextInvitationStatus_TerminalClosure(t *testing.T) {
	terminal := []model.InvitationStatus{model.InvitationAccepted, model.InvitationRejected, model.InvitationCanceled}
	targets := []model.InvitationStatus{model.InvitationPending, model.InvitationAccepted, model.InvitationRejected, model.InvitationCanceled}

	for _, from := range terminal {
		inv := &model.Invitation{SenderID: userSender, ReceiverID: userReceiver, Status: from}
		for _, to := range targets {
			for _, actor := range []string{userSender, userReceiver} {
				if _, err := nextInvitationStatus(inv, actor, to); err == nil {
					t.Errorf("%s → %s（%s）不应成功", from, to, actor)
				}
			}
		}
	}
}

// ────────────────────── List ──────────────────────

func TestInvitationService_ListBySession_Pagination(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 0)

	for i := 1; i <= 5; i++ {
		receiver := pagedReceiver(i)
		repos.user.add(receiver)
		invite(t, svc, userSender, receiver)
	}
	// r1 拒绝后被重新邀请，列表中只出现最新一条
	if _, err := setStatus(svc, pagedReceiver(1), model.InvitationRejected); err != nil {
		t.Fatalf("拒绝应成功: %v", err)
	}
	invite(t, svc, userSender, pagedReceiver(1))

	ctx := context.Background()
	var (
		seen   []string
		cursor string
		pages  int
	)
	for {
		page, err := svc.ListBySession(ctx, testSessionID, &dto.InvitationListQuery{Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("ListBySession 应成功: %v", err)
		}
		if page.TotalCount != 5 {
			t.Errorf("total_count 应为 5，实际: %d", page.TotalCount)
		}
		for _, item := range page.Items {
			seen = append(seen, item.ReceiverID)
			if item.ReceiverID == pagedReceiver(1) && item.Status != string(model.InvitationPending) {
				t.Errorf("r1 应展示最新的 PENDING 邀请，实际: %s", item.Status)
			}
		}
		pages++
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	if pages != 3 {
		t.Errorf("应分 3 页，实际: %d", pages)
	}
	want := []string{pagedReceiver(1), pagedReceiver(2), pagedReceiver(3), pagedReceiver(4), pagedReceiver(5)}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("期望 %v，实际: %v", want, seen)
	}
}

func TestInvitationService_List_ScopeAndCursor(t *testing.T) {
	svc, repos, _ := setupTestInvitationService(t, 0)
	seedSession(t, repos, "session-y", 0)

	invite(t, svc, userSender, userReceiver)
	if _, err := svc.Create(context.Background(), userSender, &dto.CreateInvitationRequest{SessionID: "session-y", ReceiverID: userReceiver}); err != nil {
		t.Fatalf("邀请到场次 Y 应成功: %v", err)
	}
	if _, err := setStatus(svc, userReceiver, model.InvitationRejected); err != nil {
		t.Fatalf("拒绝应成功: %v", err)
	}

	ctx := context.Background()
	all, err := svc.ListByReceiver(ctx, userReceiver, &dto.InvitationListQuery{})
	if err != nil {
		t.Fatalf("ListByReceiver 应成功: %v", err)
	}
	if all.TotalCount != 2 || len(all.Items) != 2 || all.NextCursor != nil {
		t.Errorf("应返回 2 条且无下一页，实际: %+v", all)
	}

	pending, err := svc.ListByReceiver(ctx, userReceiver, &dto.InvitationListQuery{Scope: "PENDING"})
	if err != nil {
		t.Fatalf("ListByReceiver 应成功: %v", err)
	}
	if pending.TotalCount != 1 || pending.Items[0].SessionID != "session-y" {
		t.Errorf("PENDING 过滤结果不符: %+v", pending)
	}

	if _, err := svc.ListByReceiver(ctx, userReceiver, &dto.InvitationListQuery{Cursor: "%%%"}); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("期望 ErrInvalidCursor，实际: %v", err)
	}
	if _, err := svc.ListBySession(ctx, "session-missing", &dto.InvitationListQuery{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestInvitationCursor(t *testing.T) {
	raw := encodeInvitationCursor(testSessionID, userReceiver)
	cursor, err := decodeInvitationCursor(raw)
	if err != nil {
		t.Fatalf("解码应成功: %v", err)
	}
	if cursor.SessionID != testSessionID || cursor.ReceiverID != userReceiver {
		t.Errorf("游标内容不符: %+v", cursor)
	}

	bad := []string{
		"not base64!",
		encodeInvitationCursor("", userReceiver),
		encodeInvitationCursor(testSessionID, ""),
		"c2Vzc2lvbg",
		encodeInvitationCursor("a", "b"),
		encodeInvitationCursor(testSessionID, "user-r"),
	}
	for _, raw := range bad {
		if _, err := decodeInvitationCursor(raw); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("%q 期望 ErrInvalidCursor，实际: %v", raw, err)
		}
	}
}

func TestInvitationService_List_NonUUIDCursor(t *testing.T) {
	svc, _, _ := setupTestInvitationService(t, 0)
	invite(t, svc, userSender, userReceiver)

	_, err := svc.ListBySession(context.Background(), testSessionID, &dto.InvitationListQuery{Cursor: encodeInvitationCursor("a", "b")})
	if !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("非 UUID 游标期望 ErrInvalidCursor，实际: %v", err)
	}
}
