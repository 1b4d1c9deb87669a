package agent

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// maxResultRows caps how many rows are fed back into the summarization
// prompt. Anything beyond is elided.
const maxResultRows = 50

// sanitizeSQL strips Markdown code fences and a trailing semicolon from a
// model-produced statement.
func sanitizeSQL(raw string) string {
	statement := strings.TrimSpace(raw)

	if strings.HasPrefix(statement, "```") {
		statement = strings.TrimPrefix(statement, "```")
		statement = strings.TrimPrefix(statement, "sql")
		if idx := strings.Index(statement, "```"); idx >= 0 {
			statement = statement[:idx]
		}
		statement = strings.TrimSpace(statement)
	}

	return strings.TrimSpace(strings.TrimSuffix(statement, ";"))
}

// isReadOnlyQuery accepts a single SELECT (or WITH ... SELECT) statement and
// nothing else. The business handle is opened read-only as well; this guard
// just fails fast with a clearer error.
func isReadOnlyQuery(statement string) bool {
	if statement == "" || strings.Contains(statement, ";") {
		return false
	}

	upper := strings.ToUpper(statement)
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}

// runQuery executes the statement against the business database and renders
// the rows as a compact pipe-separated table.
func (s *Service) runQuery(ctx context.Context, statement string) (string, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return renderRows(rows)
}

func renderRows(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("failed to read columns: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if count >= maxResultRows {
			b.WriteString("\n... (结果已截断)")
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, " | "))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate rows: %w", err)
	}

	return b.String(), nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
