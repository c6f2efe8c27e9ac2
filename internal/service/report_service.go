package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultReportTemperature = 0.7
	defaultReportMaxTokens   = 1000
	maxUpstreamErrorBytes    = 200
)

// ErrAINotConfigured 表示管理员尚未配置外部 AI 端点或 API Key。
var ErrAINotConfigured = errors.New("ai endpoint not configured")

// UpstreamError 表示外部 AI 端点不可达或返回非 2xx。
// Message 已包含截断后的上游响应体，可直接透出给调用方。
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ReportRequest 描述一次报告生成请求。
type ReportRequest struct {
	Type         string
	PeriodOffset int
	MarkViewed   bool
}

// ReportResult 返回生成的报告文本、周期标签与统计。
type ReportResult struct {
	Report string
	Period string
	Stats  ReportStats
}

// PendingReport 表示一个尚未查看的报告周期。
type PendingReport struct {
	Type      string `json:"type"`
	PeriodKey string `json:"periodKey"`
	Label     string `json:"label"`
}

// ReportService 基于打卡数据和外部聊天补全接口生成周期报告。
// AI 接入信息通过 AIConfigService 按次读取并以 ReportConfig 显式传递。
type ReportService struct {
	db     *gorm.DB
	logs   *TakeoffLogService
	config *AIConfigService
	http   httpDoer
}

// NewReportService 构造 ReportService。
// 出站 AI 调用不设置客户端超时，悬挂的端点会阻塞该次请求。
func NewReportService(gdb *gorm.DB, logs *TakeoffLogService, config *AIConfigService) *ReportService {
	return &ReportService{
		db:     gdb,
		logs:   logs,
		config: config,
		http:   &http.Client{},
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *ReportService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{}
		return
	}
	s.http = client
}

// Generate 解析周期、计算统计并调用外部端点生成报告。
// 周期内无记录时直接返回固定文案，不访问外部服务。
func (s *ReportService) Generate(ctx context.Context, userID uint, req ReportRequest, now time.Time) (ReportResult, error) {
	if !IsValidReportType(req.Type) {
		return ReportResult{}, ErrInvalidReportType
	}

	period, err := ResolvePeriod(req.Type, req.PeriodOffset, now)
	if err != nil {
		return ReportResult{}, err
	}

	cfg, err := s.config.GetConfig()
	if err != nil {
		return ReportResult{}, err
	}
	if !cfg.Configured() {
		return ReportResult{}, ErrAINotConfigured
	}

	stats, err := s.statsForPeriod(userID, period)
	if err != nil {
		return ReportResult{}, err
	}

	if stats.RecordedDays == 0 {
		if req.MarkViewed {
			if err := s.MarkViewed(userID, req.Type, period.Key); err != nil {
				return ReportResult{}, err
			}
		}
		return ReportResult{Report: buildEmptyReport(period.Label), Period: period.Label, Stats: stats}, nil
	}

	// 取前 3 个等长周期做趋势对比
	previous := make([]PeriodStats, 0, 3)
	for i := 1; i <= 3; i++ {
		prevPeriod, err := ResolvePeriod(req.Type, req.PeriodOffset-i, now)
		if err != nil {
			return ReportResult{}, err
		}
		prevStats, err := s.statsForPeriod(userID, prevPeriod)
		if err != nil {
			return ReportResult{}, err
		}
		previous = append(previous, PeriodStats{Label: prevPeriod.Label, Stats: prevStats})
	}

	userPrompt := buildReportPrompt(req.Type, period.Label, stats, previous)
	logAIExchange("REPORT", "prompt", userPrompt)

	report, err := s.callChatCompletion(ctx, cfg, takeoffReportSystemPrompt, userPrompt)
	if err != nil {
		return ReportResult{}, err
	}
	logAIExchange("REPORT", "response", report)

	if req.MarkViewed {
		if err := s.MarkViewed(userID, req.Type, period.Key); err != nil {
			return ReportResult{}, err
		}
	}

	return ReportResult{Report: report, Period: period.Label, Stats: stats}, nil
}

// PendingReports 返回各类型上一周期中尚未查看的报告，以及 AI 是否已配置。
func (s *ReportService) PendingReports(userID uint, now time.Time) ([]PendingReport, bool, error) {
	pending := make([]PendingReport, 0, len(ReportTypes))

	for _, reportType := range ReportTypes {
		period, err := ResolvePeriod(reportType, -1, now)
		if err != nil {
			return nil, false, err
		}

		var count int64
		if err := s.db.Model(&db.ReportViewed{}).
			Where("user_id = ? AND report_type = ? AND period_key = ?", userID, reportType, period.Key).
			Count(&count).Error; err != nil {
			return nil, false, fmt.Errorf("check report viewed: %w", err)
		}

		if count == 0 {
			pending = append(pending, PendingReport{Type: reportType, PeriodKey: period.Key, Label: period.Label})
		}
	}

	cfg, err := s.config.GetConfig()
	if err != nil {
		return nil, false, err
	}

	return pending, cfg.Configured(), nil
}

// MarkViewed 幂等写入已读标记，冲突时忽略。
func (s *ReportService) MarkViewed(userID uint, reportType, periodKey string) error {
	marker := db.ReportViewed{UserID: userID, ReportType: reportType, PeriodKey: periodKey}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "report_type"}, {Name: "period_key"}},
		DoNothing: true,
	}).Create(&marker).Error; err != nil {
		return fmt.Errorf("mark report viewed: %w", err)
	}
	return nil
}

func (s *ReportService) statsForPeriod(userID uint, period ReportPeriod) (ReportStats, error) {
	logs, err := s.logs.ListBetween(userID, period.Start, period.End)
	if err != nil {
		return ReportStats{}, err
	}
	return CalculateStats(logs, period.Start, period.End), nil
}

func (s *ReportService) callChatCompletion(ctx context.Context, cfg ReportConfig, systemPrompt, userPrompt string) (string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAIModel
	}

	payload := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: defaultReportTemperature,
		MaxTokens:   defaultReportMaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}

	// 自动补全 chat/completions 路径
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint = strings.TrimRight(endpoint, "/") + "/chat/completions"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建 AI 请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("请求 AI 接口失败: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取 AI 响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(respBody))
		if len(snippet) > maxUpstreamErrorBytes {
			snippet = snippet[:maxUpstreamErrorBytes]
		}
		return "", &UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("AI 服务请求失败 (%d): %s", resp.StatusCode, snippet),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("解析 AI 响应失败: %w", err)
	}

	// 首个 choice 的内容原样作为报告文本，不做内容校验
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "报告生成失败", nil
	}

	return completion.Choices[0].Message.Content, nil
}
