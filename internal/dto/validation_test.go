package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func validCreateRequest() CreateSessionRequest {
	start := time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)
	return CreateSessionRequest{
		FieldID:           "6f1c1a56-4a55-4f5b-9b0c-2d7a3b7f0a11",
		StartDate:         start,
		EndDate:           start.Add(2 * time.Hour),
		MaxPlayersPerTeam: 5,
		MinPlayersPerTeam: 3,
	}
}

func TestCreateSessionRequest_Valid(t *testing.T) {
	if err := newValidator().Struct(validCreateRequest()); err != nil {
		t.Fatalf("合法请求不应校验失败: %v", err)
	}
}

func TestCreateSessionRequest_MinAboveMax(t *testing.T) {
	req := validCreateRequest()
	req.MinPlayersPerTeam = 8

	if err := newValidator().Struct(req); err == nil {
		t.Error("min_players_per_team > max_players_per_team 应校验失败")
	}
}

func TestCreateSessionRequest_UnlimitedMax(t *testing.T) {
	req := validCreateRequest()
	req.MaxPlayersPerTeam = 0
	req.MinPlayersPerTeam = 8

	if err := newValidator().Struct(req); err != nil {
		t.Errorf("上限为 0 时不限制下限: %v", err)
	}
}

func TestUpdateSessionRequest_PartialPlayers(t *testing.T) {
	v := newValidator()
	minPlayers := 8
	if err := v.Struct(UpdateSessionRequest{MinPlayersPerTeam: &minPlayers}); err != nil {
		t.Errorf("只更新下限时不做跨字段校验: %v", err)
	}

	maxPlayers := 4
	if err := v.Struct(UpdateSessionRequest{MinPlayersPerTeam: &minPlayers, MaxPlayersPerTeam: &maxPlayers}); err == nil {
		t.Error("同时提供且下限大于上限应校验失败")
	}
}

func TestInvitationListQuery_GetLimit(t *testing.T) {
	q := InvitationListQuery{}
	if q.GetLimit() != 20 {
		t.Errorf("默认 limit 期望 20，实际 %d", q.GetLimit())
	}
	q.Limit = 5
	if q.GetLimit() != 5 {
		t.Errorf("期望 limit=5，实际 %d", q.GetLimit())
	}
}
