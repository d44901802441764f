package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportService_ExportFieldSessions(t *testing.T) {
	sessions, repos := setupTestSessionService()
	ctx := context.Background()
	wednesday := tuesday.AddDate(0, 0, 1)
	wednesdayHours := openingHours(8, 22)
	wednesdayHours.DayOfWeek = int(time.Wednesday)
	repos.hours.set(wednesdayHours)

	for _, r := range [][2]time.Time{
		{at(tuesday, 18, 0), at(tuesday, 19, 0)},
		{at(tuesday, 10, 0), at(tuesday, 11, 30)},
		{at(wednesday, 9, 0), at(wednesday, 10, 0)},
	} {
		if _, err := sessions.Create(ctx, createReq(r[0], r[1]), testCreatorID); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
	}

	svc := NewExportService(repos.toRepository(), time.UTC, zap.NewNop())
	buf, filename, err := svc.ExportFieldSessions(ctx, testFieldID, tuesday, tuesday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ExportFieldSessions 应成功: %v", err)
	}
	if filename != "场次_Five Paris 13_20250107.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应可读取: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "2025-01-07" || sheets[1] != "2025-01-08" {
		t.Fatalf("应按天分 Sheet，实际: %v", sheets)
	}

	rows, err := f.GetRows("2025-01-07")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("周二应有标题、表头与 2 行数据，实际 %d 行", len(rows))
	}
	if rows[2][0] != "10:00" || rows[3][0] != "18:00" {
		t.Errorf("数据行应按开始时间排序，实际: %v / %v", rows[2], rows[3])
	}
	if rows[2][5] != "不限" {
		t.Errorf("人数上限为 0 应显示不限，实际: %s", rows[2][5])
	}
}

func TestExportService_Errors(t *testing.T) {
	_, repos := setupTestSessionService()
	svc := NewExportService(repos.toRepository(), time.UTC, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		fieldID string
		from    time.Time
		to      time.Time
		wantErr error
	}{
		{"无场次", testFieldID, tuesday, tuesday.AddDate(0, 0, 1), ErrExportNoSessions},
		{"场地不存在", "field-missing", tuesday, tuesday.AddDate(0, 0, 1), ErrFieldNotFound},
		{"区间倒置", testFieldID, tuesday, tuesday.AddDate(0, 0, -1), ErrInvalidInterval},
		{"跨度过大", testFieldID, tuesday, tuesday.AddDate(0, 2, 0), ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ExportFieldSessions(ctx, tt.fieldID, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}
