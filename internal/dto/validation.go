package dto

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations 注册跨字段校验规则
// 需在路由初始化时注册到 gin 的校验引擎
func RegisterValidations(v *validator.Validate) {
	v.RegisterStructValidation(validateCreateSession, CreateSessionRequest{})
	v.RegisterStructValidation(validateUpdateSession, UpdateSessionRequest{})
}

// 每队人数下限不得超过上限（上限为 0 表示不限）
func validateCreateSession(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateSessionRequest)
	if req.MaxPlayersPerTeam > 0 && req.MinPlayersPerTeam > req.MaxPlayersPerTeam {
		sl.ReportError(req.MinPlayersPerTeam, "MinPlayersPerTeam", "min_players_per_team", "ltefield", "MaxPlayersPerTeam")
	}
}

func validateUpdateSession(sl validator.StructLevel) {
	req := sl.Current().Interface().(UpdateSessionRequest)
	if req.MinPlayersPerTeam == nil || req.MaxPlayersPerTeam == nil {
		return
	}
	if *req.MaxPlayersPerTeam > 0 && *req.MinPlayersPerTeam > *req.MaxPlayersPerTeam {
		sl.ReportError(*req.MinPlayersPerTeam, "MinPlayersPerTeam", "min_players_per_team", "ltefield", "MaxPlayersPerTeam")
	}
}
