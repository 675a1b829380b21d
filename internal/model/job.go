package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray 用于 JSON 数组字段
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, s)
}

// RawJSON 保留 CRM 原始报文，向前兼容
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	return []byte(r), nil
}

func (r *RawJSON) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Job CRM 任务快照，按 jnid upsert，只由 webhook / 同步任务写入，不删除
type Job struct {
	ID                   string      `gorm:"primaryKey;size:64" json:"id"`
	Number               string      `gorm:"size:50" json:"number,omitempty"`
	RecordTypeName       string      `gorm:"size:100;index" json:"record_type_name,omitempty"`
	StatusName           string      `gorm:"size:100" json:"status_name,omitempty"`
	Stage                string      `gorm:"size:50;index" json:"stage,omitempty"`
	PrimaryContactID     string      `gorm:"size:64" json:"primary_contact_id,omitempty"`
	SalesRepID           string      `gorm:"size:100" json:"sales_rep_id,omitempty"`
	SourceName           string      `gorm:"size:100" json:"source_name,omitempty"`
	DateCreated          *time.Time  `json:"date_created,omitempty"`
	DateStatusChange     *time.Time  `json:"date_status_change,omitempty"`
	Tags                 StringArray `gorm:"type:json" json:"tags,omitempty"`
	Owners               StringArray `gorm:"type:json" json:"owners,omitempty"`
	Raw                  RawJSON     `gorm:"type:json" json:"raw,omitempty"`
	ApprovedInvoiceTotal float64     `json:"approved_invoice_total,omitempty"`
	UpdatedAt            time.Time   `json:"updated_at"`
	IsWon                bool        `gorm:"index" json:"is_won"`
	IsClosed             bool        `gorm:"index" json:"is_closed"`
	IsLost               bool        `json:"is_lost"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobStatusHistory 状态变更日志，只追加不修改。
// 自增 ID 作为同一时间戳下的稳定排序依据。
type JobStatusHistory struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	JobID      string     `gorm:"size:64;index;not null" json:"job_id"`
	StatusName string     `gorm:"size:100" json:"status_name"`
	Stage      string     `gorm:"size:50" json:"stage"`
	ChangedAt  *time.Time `gorm:"index" json:"changed_at"`
}

func (JobStatusHistory) TableName() string {
	return "job_status_history"
}
