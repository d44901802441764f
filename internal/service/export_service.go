package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
	"github.com/ludora-app/ludora-back-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSessions   = errors.New("该时间范围内场地暂无场次")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// 单次导出的最大跨度
const maxExportSpan = 31 * 24 * time.Hour

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportFieldSessions 导出场地在 [from, to) 内的场次为 Excel，每天一个 Sheet
	ExportFieldSessions(ctx context.Context, fieldID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportFieldSessions 导出场地预约为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet 名为场地时区下的日期（2006-01-02），按日期升序
//   - 第 1 行：场地名 + 日期
//   - 第 2 行：表头
//   - 之后每个场次一行，按开始时间排序

func (s *exportService) ExportFieldSessions(ctx context.Context, fieldID string, from, to time.Time) (*bytes.Buffer, string, error) {
	if !to.After(from) || to.Sub(from) > maxExportSpan {
		return nil, "", ErrInvalidInterval
	}

	// 1. 场地
	field, err := s.repo.Field.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrFieldNotFound
		}
		s.logger.Error("查询场地失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 场次（已按 start_date 排序）
	sessions, err := s.repo.Session.ListByField(ctx, fieldID, from.UTC(), to.UTC())
	if err != nil {
		s.logger.Error("查询场地场次失败", zap.Error(err))
		return nil, "", err
	}
	if len(sessions) == 0 {
		return nil, "", ErrExportNoSessions
	}

	// 3. 按本地日期分组
	var days []string
	byDay := make(map[string][]model.Session)
	for _, session := range sessions {
		day := session.StartDate.In(s.loc).Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], session)
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"开始", "结束", "标题", "运动", "赛制", "每队人数上限", "创建者"}
	for i, day := range days {
		sheet := day
		idx, err := f.NewSheet(sheet)
		if err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		f.SetColWidth(sheet, "A", "B", 10)
		f.SetColWidth(sheet, "C", "C", 36)
		f.SetColWidth(sheet, "D", "F", 14)
		f.SetColWidth(sheet, "G", "G", 38)

		// 标题行
		f.SetCellValue(sheet, "A1", fmt.Sprintf("%s - %s", field.Name, day))
		f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
		f.SetCellStyle(sheet, "A1", "A1", headerStyle)

		// 表头
		for col, h := range headers {
			f.SetCellValue(sheet, cell(colName(col), 2), h)
		}

		// 数据行
		row := 3
		for _, session := range byDay[day] {
			maxPlayers := "不限"
			if session.MaxPlayersPerTeam > 0 {
				maxPlayers = fmt.Sprintf("%d", session.MaxPlayersPerTeam)
			}
			values := []interface{}{
				session.StartDate.In(s.loc).Format("15:04"),
				session.EndDate.In(s.loc).Format("15:04"),
				session.Title,
				session.Sport,
				session.GameMode,
				maxPlayers,
				session.CreatorID,
			}
			for col, v := range values {
				f.SetCellValue(sheet, cell(colName(col), row), v)
			}
			row++
		}
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("场次_%s_%s.xlsx", field.Name, from.In(s.loc).Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
