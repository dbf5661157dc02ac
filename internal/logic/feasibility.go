package logic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fantasy-backend/internal/common"
)

// FeasibilityReport 软件灵感的可行性分析，完全由规则表得出
type FeasibilityReport struct {
	RecordTitle             string   `json:"recordTitle"`
	AnalysisDate            string   `json:"analysisDate"`
	CoreUserPainPoint       string   `json:"coreUserPainPoint"`
	TargetUserPersona       string   `json:"targetUserPersona"`
	CoreFunctionModules     []string `json:"coreFunctionModules"`
	MarketFeasibilityScore  int      `json:"marketFeasibilityScore"`
	MarketFeasibilityReason string   `json:"marketFeasibilityReason"`
	TechnicalChallenges     string   `json:"technicalChallenges"`
	SuggestedNextStep       string   `json:"suggestedNextStep"`
}

const maxFeasibilityScore = 95

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Feasibility 对带“软件灵感”标签的记录做可行性分析
func (a *Analytics) Feasibility(ctx context.Context, userID, recordID string) (*FeasibilityReport, error) {
	record, err := a.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, fmt.Errorf("record %s: %w", recordID, common.ErrAccessDenied)
	}
	if !record.Tags.Contains(common.TagSoftwareIdea) {
		return nil, fmt.Errorf("record must have %q tag for feasibility analysis: %w", common.TagSoftwareIdea, common.ErrInvalidInput)
	}

	report := EvaluateFeasibility(record.Content)
	report.RecordTitle = record.Title
	report.AnalysisDate = a.now().Format(time.RFC3339)
	return &report, nil
}

// EvaluateFeasibility 相同的正文总是得到相同的结果
func EvaluateFeasibility(content string) FeasibilityReport {
	text := strings.ToLower(content)

	hasUserInterface := containsAny(text, "界面", "ui", "用户")
	hasDataStorage := containsAny(text, "数据", "存储", "数据库")
	hasSocial := containsAny(text, "社交", "分享", "用户")
	hasAI := containsAny(text, "ai", "人工智能", "智能")
	hasInnovation := containsAny(text, "创新", "新颖")

	report := FeasibilityReport{
		CoreUserPainPoint: "用户需要一个解决特定问题的数字化解决方案。",
		TargetUserPersona: "18-35岁的年轻用户，对新技术有较高接受度。",
	}

	switch {
	case containsAny(text, "时间", "效率"):
		report.CoreUserPainPoint = "用户希望提高时间管理效率，减少重复性工作。"
	case containsAny(text, "社交", "交流"):
		report.CoreUserPainPoint = "用户渴望更好的社交互动和信息交流方式。"
	case containsAny(text, "学习", "教育"):
		report.CoreUserPainPoint = "用户需要更有效的学习和知识获取途径。"
	}

	switch {
	case containsAny(text, "专业", "工作"):
		report.TargetUserPersona = "25-40岁的职场人士，注重工作效率和专业发展。"
	case containsAny(text, "学生", "学习"):
		report.TargetUserPersona = "16-25岁的学生群体，追求高效学习和知识管理。"
	}

	modules := []string{}
	if hasUserInterface {
		modules = append(modules, "用户界面模块")
	}
	if hasDataStorage {
		modules = append(modules, "数据存储模块")
	}
	if hasSocial {
		modules = append(modules, "社交互动模块")
	}
	if hasAI {
		modules = append(modules, "智能分析模块")
	}
	modules = append(modules, "核心业务逻辑模块")
	if len(modules) < 3 {
		modules = append(modules, "用户管理模块", "通知系统模块")
	}
	report.CoreFunctionModules = modules

	score := 70
	if hasAI {
		score += 10
	}
	if hasSocial {
		score += 5
	}
	if hasInnovation {
		score += 10
	}
	if score > maxFeasibilityScore {
		score = maxFeasibilityScore
	}
	report.MarketFeasibilityScore = score

	switch {
	case score >= 80:
		report.MarketFeasibilityReason = "该创意具有较强的市场潜力，概念新颖且有明确的用户需求。"
	case score >= 70:
		report.MarketFeasibilityReason = "该创意有一定的市场可行性，但需要进一步验证用户需求。"
	default:
		report.MarketFeasibilityReason = "该创意的市场可行性有待验证，建议进行更深入的市场调研。"
	}

	switch {
	case hasAI:
		report.TechnicalChallenges = "需要集成AI算法，考虑模型训练和推理性能优化。"
	case hasDataStorage && hasSocial:
		report.TechnicalChallenges = "需要设计可扩展的数据架构，确保高并发下的系统稳定性。"
	case hasDataStorage:
		report.TechnicalChallenges = "需要设计高效的数据存储方案，确保数据安全和访问性能。"
	default:
		report.TechnicalChallenges = "需要考虑系统架构设计和用户体验优化。"
	}

	if score >= 80 {
		report.SuggestedNextStep = "建议立即开始MVP开发，先实现核心功能进行用户测试。"
	} else {
		report.SuggestedNextStep = "建议先进行用户调研和竞品分析，验证核心假设后再开始开发。"
	}
	return report
}
