package logic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader  = "X-User-ID"
	userIDContext = "user_id"
)

// UserEnsurer 保证请求中的用户在库中存在
type UserEnsurer interface {
	EnsureUser(ctx context.Context, userID string) (*db.User, error)
}

// Handlers 路由处理器集合
type Handlers struct {
	users     UserEnsurer
	records   *RecordService
	analytics *Analytics
	job       *AnalysisJob
}

func NewHandlers(users UserEnsurer, records *RecordService, analytics *Analytics, job *AnalysisJob) *Handlers {
	return &Handlers{users: users, records: records, analytics: analytics, job: job}
}

// SetupRouter 路由入口
func SetupRouter(h *Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", UserIDHeader},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api", h.requireUser)

	records := api.Group("/records")
	records.GET("", h.ListRecordsHandler)
	records.POST("", h.CreateRecordHandler)
	records.GET("/tags", h.AllTagsHandler)
	records.GET("/count", h.CountRecordsHandler)
	records.GET("/date-range", h.RecordsByDateRangeHandler)
	records.GET("/mood/:mood", h.RecordsByMoodHandler)
	records.GET("/:id", h.GetRecordHandler)
	records.PUT("/:id", h.UpdateRecordHandler)
	records.DELETE("/:id", h.DeleteRecordHandler)

	api.GET("/categories", h.ListCategoriesHandler)
	api.POST("/categories", h.CreateCategoryHandler)
	api.GET("/categories/:id", h.GetCategoryHandler)
	api.PATCH("/categories/:id", h.UpdateCategoryHandler)
	api.DELETE("/categories/:id", h.DeleteCategoryHandler)

	api.GET("/tags", h.ListTagsHandler)
	api.POST("/tags", h.CreateTagHandler)
	api.GET("/tags/:id", h.GetTagHandler)
	api.PATCH("/tags/:id", h.UpdateTagHandler)
	api.DELETE("/tags/:id", h.DeleteTagHandler)

	analytics := api.Group("/analytics")
	analytics.GET("/mood-trend", h.MoodTrendHandler)
	analytics.GET("/records-summary", h.RecordsSummaryHandler)
	analytics.POST("/mood-analysis", h.CreateMoodAnalysisHandler)
	analytics.GET("/mood-analysis", h.GetMoodAnalysisHandler)

	ai := api.Group("/ai")
	ai.GET("/mental-state-analysis", h.MentalStateHandler)
	ai.POST("/feasibility-analysis", h.FeasibilityHandler)
	ai.POST("/analysis", h.AnalyzeUserHandler)
	ai.POST("/analysis/run", h.RunAnalysisHandler)

	return r
}

// requireUser 从请求头读取用户ID，首次出现的用户自动建档
func (h *Handlers) requireUser(c *gin.Context) {
	userID := c.GetHeader(UserIDHeader)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user id required"})
		return
	}
	if _, err := h.users.EnsureUser(c.Request.Context(), userID); err != nil {
		common.Logger.Errorw("用户建档失败", "user_id", userID, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user error"})
		return
	}
	c.Set(userIDContext, userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDContext)
}

// respondError 把业务错误映射为HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		common.Logger.Errorw("请求处理失败", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) CreateRecordHandler(c *gin.Context) {
	var req RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	record, err := h.records.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, record)
}

func (h *Handlers) ListRecordsHandler(c *gin.Context) {
	var q RecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(400, gin.H{"error": "invalid query"})
		return
	}
	page, err := h.records.List(c.Request.Context(), currentUser(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, page)
}

func (h *Handlers) GetRecordHandler(c *gin.Context) {
	record, err := h.records.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, record)
}

func (h *Handlers) UpdateRecordHandler(c *gin.Context) {
	var req RecordUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	record, err := h.records.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, record)
}

func (h *Handlers) DeleteRecordHandler(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "deleted"})
}

func (h *Handlers) AllTagsHandler(c *gin.Context) {
	tags, err := h.records.AllTags(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"tags": tags})
}

func (h *Handlers) RecordsByMoodHandler(c *gin.Context) {
	records, err := h.records.ByMood(c.Request.Context(), currentUser(c), c.Param("mood"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"records": records})
}

func (h *Handlers) CountRecordsHandler(c *gin.Context) {
	count, err := h.records.Count(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"count": count})
}

// RecordsByDateRangeHandler ?startDate=yyyy-mm-dd&endDate=yyyy-mm-dd，两端都包含
func (h *Handlers) RecordsByDateRangeHandler(c *gin.Context) {
	start, end := c.Query("startDate"), c.Query("endDate")
	if start == "" || end == "" {
		c.JSON(400, gin.H{"error": "startDate and endDate are required"})
		return
	}
	from, err := h.parseDay(start)
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := h.parseDay(end)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.records.DateRange(c.Request.Context(), currentUser(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"records": records})
}

func (h *Handlers) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.records.ListCategories(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"categories": categories})
}

func (h *Handlers) CreateCategoryHandler(c *gin.Context) {
	var req CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	category, err := h.records.CreateCategory(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, category)
}

func (h *Handlers) GetCategoryHandler(c *gin.Context) {
	category, err := h.records.GetCategory(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, category)
}

func (h *Handlers) UpdateCategoryHandler(c *gin.Context) {
	var req CategoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	category, err := h.records.UpdateCategory(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, category)
}

func (h *Handlers) DeleteCategoryHandler(c *gin.Context) {
	if err := h.records.DeleteCategory(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "deleted"})
}

func (h *Handlers) ListTagsHandler(c *gin.Context) {
	tags, err := h.records.ListTags(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"tags": tags})
}

func (h *Handlers) CreateTagHandler(c *gin.Context) {
	var req TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	tag, err := h.records.CreateTag(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, tag)
}

func (h *Handlers) GetTagHandler(c *gin.Context) {
	tag, err := h.records.GetTag(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, tag)
}

func (h *Handlers) UpdateTagHandler(c *gin.Context) {
	var req TagUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	tag, err := h.records.UpdateTag(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, tag)
}

func (h *Handlers) DeleteTagHandler(c *gin.Context) {
	if err := h.records.DeleteTag(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "deleted"})
}

// MoodTrendHandler 心情趋势 ?period=weekly|monthly
func (h *Handlers) MoodTrendHandler(c *gin.Context) {
	trend, err := h.analytics.MoodTrend(c.Request.Context(), currentUser(c), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, trend)
}

func (h *Handlers) RecordsSummaryHandler(c *gin.Context) {
	summary, err := h.analytics.RecordsSummary(c.Request.Context(), currentUser(c), c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, summary)
}

// parseDay 解析 yyyy-mm-dd，为空时取今天
func (h *Handlers) parseDay(date string) (time.Time, error) {
	loc := h.analytics.Location()
	if date == "" {
		return time.Now().In(loc), nil
	}
	day, err := time.ParseInLocation(common.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, common.ErrInvalidInput)
	}
	return day, nil
}

func (h *Handlers) CreateMoodAnalysisHandler(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid body"})
		return
	}
	day, err := h.parseDay(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	analysis, err := h.analytics.CreateMoodAnalysis(c.Request.Context(), currentUser(c), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, analysis)
}

func (h *Handlers) GetMoodAnalysisHandler(c *gin.Context) {
	day, err := h.parseDay(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	analysis, err := h.analytics.GetMoodAnalysis(c.Request.Context(), currentUser(c), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, analysis)
}

// MentalStateHandler 心理状态看板 ?period=7d|30d|90d
func (h *Handlers) MentalStateHandler(c *gin.Context) {
	state, err := h.analytics.MentalState(c.Request.Context(), currentUser(c), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, state)
}

func (h *Handlers) FeasibilityHandler(c *gin.Context) {
	var req struct {
		RecordID string `json:"recordId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RecordID == "" {
		c.JSON(400, gin.H{"error": "recordId required"})
		return
	}
	report, err := h.analytics.Feasibility(c.Request.Context(), currentUser(c), req.RecordID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, report)
}

// AnalyzeUserHandler 手动为当前用户生成一次分析
func (h *Handlers) AnalyzeUserHandler(c *gin.Context) {
	userID := currentUser(c)
	analysis, err := h.job.AnalyzeUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if analysis == nil {
		respondError(c, fmt.Errorf("no records in the last %d days: %w", analysisWindowDays, common.ErrNotFound))
		return
	}
	c.JSON(200, analysis)
}

// RunAnalysisHandler 手动触发一次全量分析
func (h *Handlers) RunAnalysisHandler(c *gin.Context) {
	report, err := h.job.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "分析任务已执行", "report": report})
}
