package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/qs3c/salesdash_go_server/config"
)

// Client JobNimbus API 客户端。固定分页大小，不做重试，
// 上游失败直接把错误抛给调用方。
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
}

func NewClient(cfg *config.CRMConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HasToken 是否配置了 API token（未配置时 metrics 走演示数据）
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm api error: %d %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode crm response: %w", err)
	}
	return nil
}

// GetContacts 拉取联系人
func (c *Client) GetContacts(ctx context.Context) ([]APIContact, error) {
	var result struct {
		Results []APIContact `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/contacts?size=%d", c.pageSize), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetJobs 拉取任务
func (c *Client) GetJobs(ctx context.Context) ([]APIJob, error) {
	var result struct {
		Results []APIJob `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/jobs?size=%d", c.pageSize), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetEstimates 拉取报价单
func (c *Client) GetEstimates(ctx context.Context) ([]APIEstimate, error) {
	var result struct {
		Results []APIEstimate `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v2/estimates?size=%d", c.pageSize), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetInvoices 拉取发票
func (c *Client) GetInvoices(ctx context.Context) ([]APIInvoice, error) {
	var result struct {
		Results []APIInvoice `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v2/invoices?size=%d", c.pageSize), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetWorkflows 拉取工作流定义（状态 ID → 名称映射）
func (c *Client) GetWorkflows(ctx context.Context) ([]Workflow, error) {
	var result struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.get(ctx, "/account/settings?field=workflows", &result); err != nil {
		return nil, err
	}
	return result.Workflows, nil
}

// GetJobActivities 拉取指定 job 的 activity（用于回放状态变更）
func (c *Client) GetJobActivities(ctx context.Context, jobID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 100
	}
	filter := fmt.Sprintf(`{"must":[{"term":{"primary.id":%q}}]}`, jobID)
	endpoint := fmt.Sprintf("/activities?filter=%s&size=%d", url.QueryEscape(filter), limit)

	// 这个端点返回 activity 数组而不是 results
	var result struct {
		Activity []Activity `json:"activity"`
		Results  []Activity `json:"results"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if result.Activity != nil {
		return result.Activity, nil
	}
	return result.Results, nil
}

// GetRecentActivities 拉取最近的 activity
func (c *Client) GetRecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	var result struct {
		Activity []Activity `json:"activity"`
		Results  []Activity `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/activities?size=%d", limit), &result); err != nil {
		return nil, err
	}
	if result.Activity != nil {
		return result.Activity, nil
	}
	return result.Results, nil
}
