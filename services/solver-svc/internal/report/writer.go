package report

import (
	"context"
	"os"
	"path/filepath"

	"supplynet/pkg/apperror"
)

// WriteAll генерирует отчёты во всех форматах и пишет их в dir.
// Имя файла - base + расширение формата. Возвращает пути записанных файлов.
func WriteAll(ctx context.Context, data *ReportData, formats []string, dir, base string) ([]string, error) {
	if len(formats) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "create report directory")
	}

	seen := make(map[string]bool, len(formats))
	paths := make([]string, 0, len(formats))

	for _, format := range formats {
		gen, err := NewGenerator(format)
		if err != nil {
			return paths, err
		}
		if seen[gen.Format()] {
			continue
		}
		seen[gen.Format()] = true

		if err := ctx.Err(); err != nil {
			return paths, apperror.Wrap(err, apperror.CodeCanceled, "report generation canceled")
		}

		content, err := gen.Generate(ctx, data)
		if err != nil {
			return paths, apperror.Wrap(err, apperror.CodeInternal, "generate "+gen.Format()+" report")
		}

		path := filepath.Join(dir, base+gen.Extension())
		if err := os.WriteFile(path, content, 0644); err != nil {
			return paths, apperror.Wrap(err, apperror.CodeIO, "write report "+path)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
