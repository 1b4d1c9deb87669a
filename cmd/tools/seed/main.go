// seed 填充业务数据库的示例数据（200+ 条），供 Agent 查询。
// 已有数据时跳过，不会重复插入。
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const businessSchema = `
CREATE TABLE IF NOT EXISTS departments (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	manager TEXT NOT NULL,
	budget  REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS employees (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	department_id INTEGER NOT NULL REFERENCES departments(id),
	position      TEXT NOT NULL,
	salary        REAL NOT NULL DEFAULT 0,
	hire_date     DATE NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	price    REAL NOT NULL DEFAULT 0,
	stock    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS sales_records (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id  INTEGER NOT NULL REFERENCES products(id),
	employee_id INTEGER NOT NULL REFERENCES employees(id),
	quantity    INTEGER NOT NULL DEFAULT 0,
	amount      REAL NOT NULL DEFAULT 0,
	sale_date   DATE NOT NULL
);
`

var (
	deptNames  = []string{"技术部", "销售部", "市场部", "人事部", "财务部", "运营部"}
	managers   = []string{"张伟", "李娜", "王强", "刘洋", "陈静", "杨帆"}
	positions  = []string{"工程师", "经理", "专员", "主管", "总监", "助理"}
	categories = []string{"电子产品", "办公用品", "生活用品", "食品", "服装"}
	surnames   = []string{"张", "李", "王", "刘", "陈", "杨", "赵", "黄"}
	givenNames = []rune("伟强芳敏静磊娜洋")
)

func main() {
	dbPath := flag.String("db", "data/smart_data.db", "business database path")
	flag.Parse()

	if err := run(*dbPath); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(businessSchema); err != nil {
		return err
	}

	var existing int
	if err := db.QueryRow(`SELECT COUNT(*) FROM departments`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		log.Println("已有数据，跳过 seed")
		return nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deptIDs, err := seedDepartments(tx, rng)
	if err != nil {
		return err
	}
	empIDs, err := seedEmployees(tx, rng, deptIDs)
	if err != nil {
		return err
	}
	prodIDs, err := seedProducts(tx, rng)
	if err != nil {
		return err
	}
	if err := seedSales(tx, rng, prodIDs, empIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Println("Seed 完成：departments, employees, products, sales_records 已填充 200+ 条")
	return nil
}

func seedDepartments(tx *sql.Tx, rng *rand.Rand) ([]int64, error) {
	ids := make([]int64, 0, len(deptNames))
	for i, name := range deptNames {
		budget := round2(rng.Float64()*450_0000 + 50_0000)
		res, err := tx.Exec(`INSERT INTO departments (name, manager, budget) VALUES (?, ?, ?)`,
			name, managers[i], budget)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedEmployees(tx *sql.Tx, rng *rand.Rand, deptIDs []int64) ([]int64, error) {
	ids := make([]int64, 0, 60)
	for i := 0; i < 60; i++ {
		name := surnames[rng.Intn(len(surnames))] + string(givenNames[rng.Intn(len(givenNames))])
		salary := round2(rng.Float64()*42_000 + 8_000)
		hireDate := randomDate(rng, date(2018, 1, 1), date(2024, 6, 1))

		res, err := tx.Exec(
			`INSERT INTO employees (name, department_id, position, salary, hire_date) VALUES (?, ?, ?, ?, ?)`,
			name, deptIDs[rng.Intn(len(deptIDs))], positions[rng.Intn(len(positions))], salary, hireDate)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedProducts(tx *sql.Tx, rng *rand.Rand) ([]int64, error) {
	ids := make([]int64, 0, 40)
	for i := 0; i < 40; i++ {
		category := categories[rng.Intn(len(categories))]
		price := round2(rng.Float64()*1990 + 10)

		res, err := tx.Exec(`INSERT INTO products (name, category, price, stock) VALUES (?, ?, ?, ?)`,
			fmt.Sprintf("%s-%d", category, i+1), category, price, rng.Intn(501))
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedSales(tx *sql.Tx, rng *rand.Rand, prodIDs, empIDs []int64) error {
	for i := 0; i < 220; i++ {
		quantity := rng.Intn(20) + 1
		unitPrice := rng.Float64()*1480 + 20
		saleDate := randomDate(rng, date(2024, 1, 1), date(2025, 2, 14))

		_, err := tx.Exec(
			`INSERT INTO sales_records (product_id, employee_id, quantity, amount, sale_date) VALUES (?, ?, ?, ?, ?)`,
			prodIDs[rng.Intn(len(prodIDs))], empIDs[rng.Intn(len(empIDs))],
			quantity, round2(float64(quantity)*unitPrice), saleDate)
		if err != nil {
			return err
		}
	}
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func randomDate(rng *rand.Rand, start, end time.Time) string {
	days := int(end.Sub(start).Hours() / 24)
	if days > 0 {
		start = start.AddDate(0, 0, rng.Intn(days+1))
	}
	return start.Format("2006-01-02")
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
