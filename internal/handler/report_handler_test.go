package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
)

// fakeChatDoer 用固定内容应答聊天补全请求，省去真实网络。
type fakeChatDoer struct {
	content string
	path    string
}

func (f *fakeChatDoer) Do(req *http.Request) (*http.Response, error) {
	f.path = req.URL.Path
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": f.content}},
		},
	}
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}, nil
}

func TestGetReportStatusRequiresLogin(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w, c := getRequest(t, "/api/ai-report", "")
	api.GetReportStatus(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestGetReportStatusListsPending(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "alice", false)

	w, c := getRequest(t, "/api/ai-report", cookie)
	api.GetReportStatus(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		PendingReports []struct {
			Type string `json:"type"`
		} `json:"pendingReports"`
		AIConfigured bool `json:"aiConfigured"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AIConfigured {
		t.Fatal("expected AI to be unconfigured")
	}
	if len(resp.PendingReports) != 4 {
		t.Fatalf("expected four pending report types, got %d", len(resp.PendingReports))
	}
}

func TestGenerateReportUnconfigured(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "alice", false)

	w, c := postJSON(t, "/api/ai-report", map[string]any{"type": "week"}, cookie)
	api.GenerateReport(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGenerateReportInvalidType(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "alice", false)

	w, c := postJSON(t, "/api/ai-report", map[string]any{"type": "decade"}, cookie)
	api.GenerateReport(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGenerateReportEndToEnd(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	admin, cookie := seedUser(t, "boss", true)

	svc := service.NewAIConfigService(db.DB)
	if err := svc.UpdateConfig(service.AIConfigInput{
		Endpoint: "https://ai.example.com/v1",
		APIKey:   service.ReplaceAPIKey("sk-test"),
	}, admin.ID); err != nil {
		t.Fatalf("failed to configure AI: %v", err)
	}

	doer := &fakeChatDoer{content: "## 月报\n\n继续保持"}
	api.Reports().SetHTTPClient(doer)

	logSvc := service.NewTakeoffLogService(db.DB)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if err := logSvc.Save(admin.ID, service.SaveInput{DateKey: yesterday, Status: 3}, time.Now()); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	w, c := postJSON(t, "/api/ai-report", map[string]any{"type": "month", "markViewed": true}, cookie)
	api.GenerateReport(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Report string `json:"report"`
		Period string `json:"period"`
		Stats  struct {
			RecordedDays int `json:"recordedDays"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Report == "" || resp.Period == "" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if resp.Stats.RecordedDays > 0 && doer.path != "/v1/chat/completions" {
		t.Fatalf("expected chat completions suffix, got %s", doer.path)
	}
}

// statusDoer 以固定状态码和响应体应答，模拟上游故障。
type statusDoer struct {
	status int
	body   string
}

func (f *statusDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func seedReportContext(t *testing.T) (string, string) {
	t.Helper()

	admin, cookie := seedUser(t, "boss", true)

	svc := service.NewAIConfigService(db.DB)
	if err := svc.UpdateConfig(service.AIConfigInput{
		Endpoint: "https://ai.example.com/v1",
		APIKey:   service.ReplaceAPIKey("sk-test"),
	}, admin.ID); err != nil {
		t.Fatalf("failed to configure AI: %v", err)
	}

	// 用当天日期保证任意周期的统计都有记录
	logSvc := service.NewTakeoffLogService(db.DB)
	today := time.Now().UTC().Format("2006-01-02")
	if err := logSvc.Save(admin.ID, service.SaveInput{DateKey: today, Status: 3}, time.Now()); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	return cookie, today
}

func TestGenerateReportSurfacesUpstreamBody(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	cookie, _ := seedReportContext(t)
	api.Reports().SetHTTPClient(&statusDoer{status: http.StatusBadGateway, body: "upstream exploded"})

	w, c := postJSON(t, "/api/ai-report", map[string]any{"type": "year"}, cookie)
	api.GenerateReport(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "502") || !strings.Contains(resp.Error, "upstream exploded") {
		t.Fatalf("expected upstream status and snippet, got %q", resp.Error)
	}
}

func TestGenerateReportHidesStoreError(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	cookie, _ := seedReportContext(t)
	api.Reports().SetHTTPClient(&fakeChatDoer{content: "## 年报"})

	// 已读标记表缺失时写入失败，属于存储错误而非上游错误
	if err := db.DB.Migrator().DropTable(&db.ReportViewed{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	w, c := postJSON(t, "/api/ai-report", map[string]any{"type": "year", "markViewed": true}, cookie)
	api.GenerateReport(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "生成报告失败" {
		t.Fatalf("expected generic message, got %q", resp.Error)
	}
}
