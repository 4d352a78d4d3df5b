package services

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"task-management-app/tasks-service/domain"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const exportSheet = "Tasks"

var exportHeader = []any{"Title", "Description", "Status", "Priority", "Due Date", "Tags", "Created At", "Updated At"}

type ExportService struct {
	tasks  TaskStore
	tracer trace.Tracer
}

func NewExportService(tasks TaskStore, tracer trace.Tracer) *ExportService {
	return &ExportService{tasks: tasks, tracer: tracer}
}

// Export writes every task of userId matching the list filters into a
// workbook. Pagination parameters are ignored.
func (s *ExportService) Export(ctx context.Context, userId string, params url.Values) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "ExportService.Export")
	defer span.End()

	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	params = cloneValues(params)
	params.Del("page")
	params.Del("limit")
	q, err := domain.ParseTaskQuery(params)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.Find(ctx, q.Filter(userId), q.Sort(), 0, 0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := WriteTasksXlsx(tasks)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

func WriteTasksXlsx(tasks domain.Tasks) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, style); err != nil {
		return nil, err
	}

	for i, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(domain.DateLayout)
		}
		row := []any{
			t.Title,
			t.Description,
			string(t.Status),
			string(t.Priority),
			due,
			strings.Join(t.Tags, ", "),
			t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			t.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "B", 30); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
