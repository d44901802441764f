package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	activeInv := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: ConstraintActiveInvitation}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"约束名匹配", activeInv, ConstraintActiveInvitation, true},
		{"包装后仍可识别", fmt.Errorf("insert: %w", activeInv), ConstraintActiveInvitation, true},
		{"不限约束名", activeInv, "", true},
		{"约束名不符", activeInv, ConstraintSessionPlayerUnique, false},
		{"gorm 翻译后的错误", gorm.ErrDuplicatedKey, ConstraintSessionPlayerUnique, true},
		{"其他 SQLSTATE", &pgconn.PgError{Code: "23503"}, "", false},
		{"普通错误", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExclusionViolation(t *testing.T) {
	overlap := &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: ConstraintSessionOverlap}

	if !IsExclusionViolation(overlap, ConstraintSessionOverlap) {
		t.Error("期望识别场次排他约束冲突")
	}
	if IsExclusionViolation(overlap, "other_constraint") {
		t.Error("约束名不符时不应匹配")
	}
	if IsExclusionViolation(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: ConstraintSessionOverlap}, ConstraintSessionOverlap) {
		t.Error("唯一约束冲突不应被识别为排他约束冲突")
	}
}
