package common

const (
	// TagSoftwareIdea 软件灵感标签，可行性分析只接受带此标签的记录
	TagSoftwareIdea = "软件灵感"
	// TagStoryFragment 故事片段标签
	TagStoryFragment = "故事片段"

	DateLayout = "2006-01-02"
)

// AnalystPrompt 定时分析任务使用的系统角色
const AnalystPrompt = "你是一位温和而专业的心理咨询师，同时也是创意写作与产品设计方面的顾问。" +
	"请根据用户最近记录的幻想、灵感和情绪，给出细致、真诚、积极的分析，避免空泛的套话。"

// AnalysisPromptTemplate 分析报告的结构化模板
const AnalysisPromptTemplate = `以下是用户最近%d天内的%d条幻想记录：

%s
请用Markdown格式输出分析报告，必须包含以下五个部分：
## 情绪趋势
## 创造力评估
## 心理健康状态
## 建议
## 总结
`

// 事件主题
const (
	SubjectAnalysisCompleted = "analysis.completed"
)
