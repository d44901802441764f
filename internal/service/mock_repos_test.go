package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
	"github.com/ludora-app/ludora-back-sub000/internal/repository"
	pkgerrors "github.com/ludora-app/ludora-back-sub000/pkg/errors"
)

// ── 测试仓储聚合 ──

type testRepos struct {
	user       *mockUserRepo
	field      *mockFieldRepo
	hours      *mockOpeningHoursRepo
	session    *mockSessionRepo
	team       *mockTeamRepo
	player     *mockSessionPlayerRepo
	invitation *mockInvitationRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		user:       newMockUserRepo(),
		field:      newMockFieldRepo(),
		hours:      newMockOpeningHoursRepo(),
		player:     newMockSessionPlayerRepo(),
		invitation: newMockInvitationRepo(),
	}
	r.session = newMockSessionRepo(r.field, r.player)
	r.team = newMockTeamRepo(r.player)
	return r
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:          r.user,
		Field:         r.field,
		OpeningHours:  r.hours,
		Session:       r.session,
		Team:          r.team,
		SessionPlayer: r.player,
		Invitation:    r.invitation,
	}
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]bool)}
}

func (m *mockUserRepo) add(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.users[id] = true
	}
}

func (m *mockUserRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

// ── Mock FieldRepository ──

type mockFieldRepo struct {
	mu     sync.Mutex
	fields map[string]*model.Field
}

func newMockFieldRepo() *mockFieldRepo {
	return &mockFieldRepo{fields: make(map[string]*model.Field)}
}

func (m *mockFieldRepo) GetByID(_ context.Context, id string) (*model.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.fields[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFieldRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Field, error) {
	return m.GetByID(ctx, id)
}

// ── Mock OpeningHoursRepository ──

type mockOpeningHoursRepo struct {
	mu    sync.Mutex
	hours map[string]*model.OpeningHours // key: partner:weekday
	calls int
}

func newMockOpeningHoursRepo() *mockOpeningHoursRepo {
	return &mockOpeningHoursRepo{hours: make(map[string]*model.OpeningHours)}
}

func (m *mockOpeningHoursRepo) set(h *model.OpeningHours) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hours[fmt.Sprintf("%s:%d", h.PartnerID, h.DayOfWeek)] = h
}

func (m *mockOpeningHoursRepo) GetByPartnerAndWeekday(_ context.Context, partnerID string, weekday int) (*model.OpeningHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if h, ok := m.hours[fmt.Sprintf("%s:%d", partnerID, weekday)]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	mu        sync.Mutex
	seq       int
	sessions  map[string]*model.Session
	fields    *mockFieldRepo
	players   *mockSessionPlayerRepo
	createErr error
	updateErr error
}

func newMockSessionRepo(fields *mockFieldRepo, players *mockSessionPlayerRepo) *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*model.Session),
		fields:   fields,
		players:  players,
	}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if session.SessionID == "" {
		m.seq++
		session.SessionID = fmt.Sprintf("session-%03d", m.seq)
	}
	cp := *session
	cp.Teams = nil
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.sessions[session.SessionID]
	if !ok || stored.Version != session.Version {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version++
	cp := *session
	cp.Teams = nil
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) ListOverlapping(_ context.Context, fieldID string, start, end time.Time, excludeID string) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Session
	for _, s := range m.sessions {
		if s.FieldID != fieldID || s.SessionID == excludeID {
			continue
		}
		if s.Overlaps(start, end) {
			result = append(result, *s)
		}
	}
	sortSessions(result)
	return result, nil
}

func (m *mockSessionRepo) ListByField(_ context.Context, fieldID string, from, to time.Time) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Session
	for _, s := range m.sessions {
		if s.FieldID == fieldID && s.Overlaps(from, to) {
			result = append(result, *s)
		}
	}
	sortSessions(result)
	return result, nil
}

func (m *mockSessionRepo) ListByPlayer(ctx context.Context, userID string, from time.Time) ([]model.Session, error) {
	m.mu.Lock()
	var result []model.Session
	for _, s := range m.sessions {
		if s.EndDate.After(from) && m.players.has(s.SessionID, userID) {
			result = append(result, *s)
		}
	}
	m.mu.Unlock()

	for i := range result {
		if f, err := m.fields.GetByID(ctx, result[i].FieldID); err == nil {
			result[i].Field = f
		}
	}
	sortSessions(result)
	return result, nil
}

func sortSessions(sessions []model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartDate.Before(sessions[j].StartDate)
	})
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	mu      sync.Mutex
	seq     int
	teams   map[string][]model.Team // key: session_id
	players *mockSessionPlayerRepo
}

func newMockTeamRepo(players *mockSessionPlayerRepo) *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string][]model.Team), players: players}
}

func (m *mockTeamRepo) BatchCreate(_ context.Context, teams []model.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range teams {
		if teams[i].TeamID == "" {
			m.seq++
			teams[i].TeamID = fmt.Sprintf("team-%03d", m.seq)
		}
		m.teams[teams[i].SessionID] = append(m.teams[teams[i].SessionID], teams[i])
	}
	return nil
}

func (m *mockTeamRepo) ListBySession(_ context.Context, sessionID string) ([]model.Team, error) {
	m.mu.Lock()
	teams := append([]model.Team(nil), m.teams[sessionID]...)
	m.mu.Unlock()

	sort.Slice(teams, func(i, j int) bool { return teams[i].Label < teams[j].Label })
	for i := range teams {
		teams[i].Players = m.players.byTeam(teams[i].TeamID)
	}
	return teams, nil
}

func (m *mockTeamRepo) LockBySession(_ context.Context, sessionID string) ([]model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	teams := append([]model.Team(nil), m.teams[sessionID]...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].Label < teams[j].Label })
	return teams, nil
}

// ── Mock SessionPlayerRepository ──

// mockSessionPlayerRepo 在 Create 中模拟 (session_id, user_id) 唯一约束
type mockSessionPlayerRepo struct {
	mu      sync.Mutex
	players []model.SessionPlayer
}

func newMockSessionPlayerRepo() *mockSessionPlayerRepo {
	return &mockSessionPlayerRepo{}
}

func (m *mockSessionPlayerRepo) Create(_ context.Context, player *model.SessionPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.SessionID == player.SessionID && p.UserID == player.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	player.SessionPlayerID = fmt.Sprintf("player-%03d", len(m.players)+1)
	m.players = append(m.players, *player)
	return nil
}

func (m *mockSessionPlayerRepo) Exists(_ context.Context, sessionID, userID string) (bool, error) {
	return m.has(sessionID, userID), nil
}

func (m *mockSessionPlayerRepo) CountByTeam(_ context.Context, sessionID string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, p := range m.players {
		if p.SessionID == sessionID {
			counts[p.TeamID]++
		}
	}
	return counts, nil
}

func (m *mockSessionPlayerRepo) has(sessionID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.SessionID == sessionID && p.UserID == userID {
			return true
		}
	}
	return false
}

func (m *mockSessionPlayerRepo) byTeam(teamID string) []model.SessionPlayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SessionPlayer
	for _, p := range m.players {
		if p.TeamID == teamID {
			result = append(result, p)
		}
	}
	return result
}

func (m *mockSessionPlayerRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// ── Mock InvitationRepository ──

// mockInvitationRepo 按插入顺序保存全部历史，UpdateStatus 为原子条件更新
type mockInvitationRepo struct {
	mu          sync.Mutex
	invitations []model.Invitation
	createErr   error
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{}
}

func (m *mockInvitationRepo) Create(_ context.Context, invitation *model.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	invitation.InvitationID = fmt.Sprintf("inv-%03d", len(m.invitations)+1)
	invitation.Seq = int64(len(m.invitations) + 1)
	m.invitations = append(m.invitations, *invitation)
	return nil
}

func (m *mockInvitationRepo) GetByID(_ context.Context, id string) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.InvitationID == id {
			cp := inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) GetLatest(_ context.Context, sessionID, receiverID string) (*model.Invitation, error) {
	return m.latestWhere(func(inv *model.Invitation) bool {
		return inv.SessionID == sessionID && inv.ReceiverID == receiverID
	})
}

func (m *mockInvitationRepo) GetLatestSent(_ context.Context, sessionID, senderID string) (*model.Invitation, error) {
	return m.latestWhere(func(inv *model.Invitation) bool {
		return inv.SessionID == sessionID && inv.SenderID == senderID
	})
}

func (m *mockInvitationRepo) latestWhere(match func(*model.Invitation) bool) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.invitations) - 1; i >= 0; i-- {
		if match(&m.invitations[i]) {
			cp := m.invitations[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) UpdateStatus(_ context.Context, id string, from, to model.InvitationStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invitations {
		inv := &m.invitations[i]
		if inv.InvitationID != id {
			continue
		}
		if inv.Status != from {
			return false, nil
		}
		inv.Status = to
		inv.UpdatedAt = at
		return true, nil
	}
	return false, nil
}

func (m *mockInvitationRepo) List(_ context.Context, filter repository.InvitationFilter) ([]model.Invitation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 每个 (session, receiver) 只保留最新一条
	latest := make(map[string]model.Invitation)
	for _, inv := range m.invitations {
		if filter.SessionID != "" && inv.SessionID != filter.SessionID {
			continue
		}
		if filter.ReceiverID != "" && inv.ReceiverID != filter.ReceiverID {
			continue
		}
		latest[inv.SessionID+"|"+inv.ReceiverID] = inv
	}

	var matched []model.Invitation
	for _, inv := range latest {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		matched = append(matched, inv)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SessionID != matched[j].SessionID {
			return matched[i].SessionID < matched[j].SessionID
		}
		return matched[i].ReceiverID < matched[j].ReceiverID
	})
	total := int64(len(matched))

	var page []model.Invitation
	for _, inv := range matched {
		if filter.After != nil {
			if inv.SessionID < filter.After.SessionID ||
				(inv.SessionID == filter.After.SessionID && inv.ReceiverID <= filter.After.ReceiverID) {
				continue
			}
		}
		page = append(page, inv)
		if filter.Limit > 0 && len(page) == filter.Limit {
			break
		}
	}
	return page, total, nil
}

// ── Mock Notifier ──

type sentNotification struct {
	event  string
	target string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (m *mockNotifier) Notify(_ context.Context, event string, _ interface{}, targetUserID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentNotification{event: event, target: targetUserID})
}

func (m *mockNotifier) events() []sentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentNotification(nil), m.sent...)
}
