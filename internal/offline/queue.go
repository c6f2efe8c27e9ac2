// Package offline 在网络边界拦截失败的数据写入请求，
// 将其落盘排队并在连接恢复后按提交顺序重放。
//
// 浏览器端由 web/static/sw.js 的 IndexedDB 队列承担同样职责；
// 本包是其服务端 Go 版本，供非浏览器客户端（脚本、嵌入式调用方）
// 在访问数据接口时获得相同的离线缓冲语义，两边的重放规则保持一致。
package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingRequest 是一条排队等待重放的写入请求。
// Timestamp 为入队毫秒时间戳，重放按其升序执行以保持写入顺序。
type PendingRequest struct {
	ID        string `gorm:"primaryKey;size:36"`
	URL       string `gorm:"not null"`
	Method    string `gorm:"size:10;not null"`
	Headers   string `gorm:"type:text"`
	Body      string `gorm:"type:text"`
	Timestamp int64  `gorm:"index;not null"`
}

// TableName 自定义表名以保持命名一致。
func (PendingRequest) TableName() string {
	return "pending_requests"
}

// SyncResult 汇总一次重放的结果。
type SyncResult struct {
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Queue 包装 HTTP 客户端：请求失败时入队并返回合成的成功响应，
// 之后由 Sync 按时间戳顺序逐条重放。重放串行执行；
// 重放进行中再次触发不会去重，可能出现重叠扫描。
type Queue struct {
	db   *gorm.DB
	http httpDoer

	mu        sync.Mutex
	listeners []func(SyncResult)
}

// NewQueue 构造离线队列并迁移其本地存储表。
func NewQueue(gdb *gorm.DB) (*Queue, error) {
	if err := gdb.AutoMigrate(&PendingRequest{}); err != nil {
		return nil, fmt.Errorf("migrate pending requests: %w", err)
	}
	return &Queue{db: gdb, http: &http.Client{}}, nil
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (q *Queue) SetHTTPClient(client httpDoer) {
	if client == nil {
		q.http = &http.Client{}
		return
	}
	q.http = client
}

// Subscribe 注册重放结果的监听器，对应 service worker 向页面广播的消息。
func (q *Queue) Subscribe(fn func(SyncResult)) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.listeners = append(q.listeners, fn)
	q.mu.Unlock()
}

// Do 尝试发出写入请求。网络层失败时把请求落盘排队，
// 并返回携带 offline:true 的合成成功响应，调用方无需区分失败路径。
func (q *Queue) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := q.http.Do(req)
	if err == nil {
		return resp, nil
	}

	if saveErr := q.save(method, url, headers, body); saveErr != nil {
		return nil, saveErr
	}
	log.Printf("[offline] 请求失败已入队: %s %s", method, url)

	return syntheticOfflineResponse(), nil
}

// Sync 重放全部排队请求：成功出队；401 保留等待重试；
// 其他非 2xx 视为永久无效直接丢弃；网络错误保留。
// 中途崩溃不回滚已处理记录，重放本身按键幂等。
func (q *Queue) Sync(ctx context.Context) (SyncResult, error) {
	var pending []PendingRequest
	if err := q.db.Order("timestamp ASC").Find(&pending).Error; err != nil {
		return SyncResult{}, fmt.Errorf("load pending requests: %w", err)
	}

	result := SyncResult{}
	if len(pending) == 0 {
		q.broadcast(result)
		return result, nil
	}

	for _, item := range pending {
		status, err := q.replay(ctx, item)
		switch {
		case err != nil:
			// 网络错误，保留请求
			result.Failed++
		case status >= 200 && status < 300:
			if err := q.delete(item.ID); err != nil {
				return result, err
			}
			result.Synced++
		case status == http.StatusUnauthorized:
			// 认证失败，保留请求等待重新登录
			result.Failed++
		default:
			// 其他错误视为无效数据，丢弃
			if err := q.delete(item.ID); err != nil {
				return result, err
			}
			result.Failed++
		}
	}

	count, err := q.PendingCount()
	if err != nil {
		return result, err
	}
	result.Remaining = int(count)

	q.broadcast(result)
	return result, nil
}

// PendingCount 返回仍在排队的请求数量。
func (q *Queue) PendingCount() (int64, error) {
	var count int64
	if err := q.db.Model(&PendingRequest{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// Start 在后台监听联网信号并周期性触发重放，直到 ctx 结束。
func (q *Queue) Start(ctx context.Context, online <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-online:
			case <-ticker.C:
			}
			if _, err := q.Sync(ctx); err != nil {
				log.Printf("[offline] 重放失败: %v", err)
			}
		}
	}()
}

func (q *Queue) save(method, url string, headers map[string]string, body []byte) error {
	encoded, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	record := PendingRequest{
		ID:        uuid.NewString(),
		URL:       url,
		Method:    method,
		Headers:   string(encoded),
		Body:      string(body),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := q.db.Create(&record).Error; err != nil {
		return fmt.Errorf("save pending request: %w", err)
	}
	return nil
}

func (q *Queue) replay(ctx context.Context, item PendingRequest) (int, error) {
	headers := map[string]string{}
	if item.Headers != "" {
		if err := json.Unmarshal([]byte(item.Headers), &headers); err != nil {
			return 0, fmt.Errorf("decode headers: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, item.Method, item.URL, bytes.NewReader([]byte(item.Body)))
	if err != nil {
		return 0, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := q.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	return resp.StatusCode, nil
}

func (q *Queue) delete(id string) error {
	if err := q.db.Delete(&PendingRequest{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete pending request: %w", err)
	}
	return nil
}

func (q *Queue) broadcast(result SyncResult) {
	q.mu.Lock()
	listeners := make([]func(SyncResult), len(q.listeners))
	copy(listeners, q.listeners)
	q.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
}

func syntheticOfflineResponse() *http.Response {
	body := `{"success":true,"offline":true,"message":"数据已离线保存，网络恢复后自动同步"}`
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}
