package chart

// Option 是一份 ECharts option 配置。前端直接把它交给 echarts 渲染，
// 后端只保证结构合法（tooltip 存在、每个 series 带 type），不关心具体字段。
type Option map[string]any

// Series returns the series slice if present and well-formed.
func (o Option) Series() []any {
	if o == nil {
		return nil
	}
	s, _ := o["series"].([]any)
	return s
}
