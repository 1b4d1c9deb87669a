package agent

import (
	"fmt"
	"strings"

	"github.com/wtwq666/smartdata/internal/model/chat"
)

// 业务库表结构描述，两个阶段的系统提示共用。
const schemaDescription = `数据库表结构：
- departments: 部门表 (id, name, manager, budget)
- employees: 员工表 (id, name, department_id, position, salary, hire_date)
- products: 产品表 (id, name, category, price, stock)
- sales_records: 销售记录表 (id, product_id, employee_id, quantity, amount, sale_date)`

const sqlSystemPrompt = `你是一个 SQLite 数据分析助手。

` + schemaDescription + `

规则：
1. 根据用户问题写出一条正确的 SELECT 查询，只输出 SQL 本身，不要输出解释或 Markdown 代码块。
2. 只允许 SELECT 查询，禁止 INSERT/UPDATE/DELETE 以及任何多语句。
3. 若问题涉及历史对话，请结合上下文推断用户实际想查什么。`

const answerSystemPrompt = `你是一个智能数据分析助手。给定用户问题、执行过的 SQL 和查询结果，请用自然语言总结回答。

规则：
1. 回答要简洁、准确，直接给出结论和关键数字。
2. 若查询结果适合可视化（如对比、趋势、占比），在回答末尾附带 ECharts 图表配置，格式如下：

[CHART]
{
  "title": {"text": "图表标题"},
  "xAxis": {"type": "category", "data": ["A", "B", "C"]},
  "yAxis": {"type": "value"},
  "series": [{"type": "bar", "data": [10, 20, 30]}]
}
[/CHART]

3. 图表 JSON 必须是上述结构的有效 ECharts option，xAxis.data 和 series 的 data 必须来自查询结果。
4. 不适合可视化时不要输出 [CHART] 块。`

// renderPreamble turns prior turns into the labeled context block prepended
// to the question. Empty history renders nothing, so the first turn of a
// session is a plain question.
func renderPreamble(history []chat.Turn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("【历史对话上下文】\n")
	for i, turn := range history {
		role := "用户"
		if turn.Role == chat.RoleAssistant {
			role = "助手"
		}
		fmt.Fprintf(&b, "prior turn %d (%s): %s\n", i+1, role, turn.Content)
	}
	b.WriteString("\n【当前用户问题】\n")
	return b.String()
}

func buildAnswerInput(input, statement, result string) string {
	var b strings.Builder
	b.WriteString(input)
	b.WriteString("\n\n【执行的 SQL】\n")
	b.WriteString(statement)
	b.WriteString("\n\n【查询结果】\n")
	if result == "" {
		b.WriteString("(空结果)")
	} else {
		b.WriteString(result)
	}
	return b.String()
}
