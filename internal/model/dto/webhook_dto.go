package dto

// WebhookAccepted 入库成功响应（对 CRM 的外部契约，不走统一响应包装）
type WebhookAccepted struct {
	OK    bool   `json:"ok"`
	Stage string `json:"stage"`
}

// WebhookSkipped 忽略载荷响应
type WebhookSkipped struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}
