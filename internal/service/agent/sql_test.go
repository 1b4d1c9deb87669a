package agent

import (
	"database/sql"
	"strings"
	"testing"
)

func TestSanitizeSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT * FROM products", "SELECT * FROM products"},
		{"trailing semicolon", "SELECT 1;", "SELECT 1"},
		{"fenced", "```sql\nSELECT name FROM departments\n```", "SELECT name FROM departments"},
		{"fenced without language", "```\nSELECT 1\n```", "SELECT 1"},
		{"surrounding whitespace", "  SELECT 1  ", "SELECT 1"},
	}

	for _, tc := range cases {
		if got := sanitizeSQL(tc.in); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsReadOnlyQuery(t *testing.T) {
	allowed := []string{
		"SELECT * FROM sales_records",
		"select count(*) from employees",
		"WITH t AS (SELECT 1) SELECT * FROM t",
	}
	for _, stmt := range allowed {
		if !isReadOnlyQuery(stmt) {
			t.Fatalf("expected %q to be accepted", stmt)
		}
	}

	rejected := []string{
		"",
		"UPDATE products SET price = 0",
		"DELETE FROM sessions",
		"INSERT INTO departments (name) VALUES ('x')",
		"SELECT 1; DROP TABLE products",
	}
	for _, stmt := range rejected {
		if isReadOnlyQuery(stmt) {
			t.Fatalf("expected %q to be rejected", stmt)
		}
	}
}

func TestRenderRows(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open err: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (name TEXT, total REAL)`); err != nil {
		t.Fatalf("create err: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t VALUES ('技术部', 12.5), ('销售部', NULL)`); err != nil {
		t.Fatalf("insert err: %v", err)
	}

	rows, err := db.Query(`SELECT name, total FROM t ORDER BY name = '技术部' DESC`)
	if err != nil {
		t.Fatalf("query err: %v", err)
	}
	defer rows.Close()

	rendered, err := renderRows(rows)
	if err != nil {
		t.Fatalf("renderRows err: %v", err)
	}

	lines := strings.Split(rendered, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", rendered)
	}
	if lines[0] != "name | total" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "技术部") || !strings.Contains(lines[1], "12.5") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "NULL") {
		t.Fatalf("NULL cells must render as NULL: %q", lines[2])
	}
}
