package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"RSIRadar/pkg/collector"
	"RSIRadar/pkg/database"
)

// Handlers API处理程序
type Handlers struct {
	db     *database.DB
	health *collector.FetchHealth
}

// NewHandlers 创建新的API处理程序
func NewHandlers(db *database.DB, health *collector.FetchHealth) *Handlers {
	return &Handlers{
		db:     db,
		health: health,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Status 运行状态：规则统计与数据源连续失败计数
func (h *Handlers) Status(c *gin.Context) {
	stats, err := h.db.Rule().Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询规则统计失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rules":          stats,
		"fetch_failures": h.health.Snapshot(),
	})
}

// RecentAlerts 某用户最近发出的提醒记录
func (h *Handlers) RecentAlerts(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id参数必须是整数",
		})
		return
	}
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	alerts, err := h.db.Alert().RecentByUser(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询提醒记录失败: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": alerts,
	})
}
