package report

import (
	"context"
	"fmt"
	"time"

	"supplynet/pkg/apperror"
)

// Форматы отчётов
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatExcel    = "xlsx"
	FormatPDF      = "pdf"
)

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	Format() string
	Extension() string
}

// NewGenerator возвращает генератор по имени формата
func NewGenerator(format string) (Generator, error) {
	switch format {
	case FormatJSON:
		return NewJSONGenerator(), nil
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatMarkdown, "md":
		return NewMarkdownGenerator(), nil
	case FormatExcel, "excel":
		return NewExcelGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown report format %q", format), "format")
	}
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *ReportData) string {
	if data.Options != nil && data.Options.Title != "" {
		return data.Options.Title
	}
	switch data.Type {
	case TypeComparison:
		return "Algorithm Comparison Report"
	case TypeSweep:
		return "Demand Sweep Report"
	case TypeResilience:
		return "Edge Outage Report"
	default:
		return "Supply Network Flow Report"
	}
}

// GetAuthor возвращает автора отчёта
func (b *BaseGenerator) GetAuthor(data *ReportData) string {
	if data.Options != nil && data.Options.Author != "" {
		return data.Options.Author
	}
	return "supplynet"
}

// GetDescription возвращает описание
func (b *BaseGenerator) GetDescription(data *ReportData) string {
	if data.Options != nil {
		return data.Options.Description
	}
	return ""
}

// ShouldIncludeRawData проверяет нужно ли включать сырые данные
func (b *BaseGenerator) ShouldIncludeRawData(data *ReportData) bool {
	if data.Options == nil {
		return true
	}
	return data.Options.IncludeRawData
}

// RowLimit возвращает ограничение на число строк таблицы
func (b *BaseGenerator) RowLimit(data *ReportData, n int) int {
	if data.Options == nil || data.Options.MaxRows <= 0 || data.Options.MaxRows > n {
		return n
	}
	return data.Options.MaxRows
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует долю как процент
func (b *BaseGenerator) FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время; нулевое время заменяется текущим
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// CellByIndex возвращает адрес ячейки по индексам
func CellByIndex(colIndex, rowIndex int) string {
	return fmt.Sprintf("%s%d", ColName(colIndex), rowIndex)
}

// pathString форматирует маршрут как 1 -> 5 -> 8
func pathString(nodes []int64) string {
	s := ""
	for i, id := range nodes {
		if i > 0 {
			s += " -> "
		}
		s += fmt.Sprintf("%d", id)
	}
	return s
}
