package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// 迁移中定义的约束名
const (
	ConstraintSessionOverlap      = "excl_sessions_field_overlap"
	ConstraintActiveInvitation    = "uq_invitations_active"
	ConstraintSessionPlayerUnique = "uq_session_players_session_user"
)

// IsUniqueViolation 判断是否违反唯一约束
// constraint 为空时匹配任意唯一约束
func IsUniqueViolation(err error, constraint string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return matchPgError(err, pgUniqueViolation, constraint)
}

// IsExclusionViolation 判断是否违反排他约束（场次时间重叠）
func IsExclusionViolation(err error, constraint string) bool {
	return matchPgError(err, pgExclusionViolation, constraint)
}

func matchPgError(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
