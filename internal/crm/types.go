package crm

import "encoding/json"

// CRM 返回的原始记录在入口处就收敛成带 json tag 的边界类型，
// 不让松散结构继续向下游扩散。

// RelatedRef 关联引用（primary / related 字段通用形态）
type RelatedRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Owner 指派人，载荷里可能是对象也可能是裸 ID 字符串
type Owner struct {
	ID string `json:"id"`
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &o.ID)
	}
	type alias Owner
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	o.ID = a.ID
	return nil
}

// APIContact /contacts 原始记录
type APIContact struct {
	JNID           string `json:"jnid"`
	DisplayName    string `json:"display_name"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	MobilePhone    string `json:"mobile_phone"`
	HomePhone      string `json:"home_phone"`
	WorkPhone      string `json:"work_phone"`
	RecordTypeName string `json:"record_type_name"`
	SourceName     string `json:"source_name"`
	SalesRep       string `json:"sales_rep"`
	SalesRepName   string `json:"sales_rep_name"`
	DateCreated    int64  `json:"date_created"`
}

// APIJob /jobs 原始记录与 webhook 载荷的共同形态
type APIJob struct {
	JNID             string      `json:"jnid"`
	Type             string      `json:"type"`
	Number           string      `json:"number"`
	RecordTypeName   string      `json:"record_type_name"`
	StatusName       string      `json:"status_name"`
	SourceName       string      `json:"source_name"`
	SalesRep         string      `json:"sales_rep"`
	SalesRepName     string      `json:"sales_rep_name"`
	ServiceType      string      `json:"Service Type"`
	Primary          *RelatedRef `json:"primary"`
	Owners           []Owner     `json:"owners"`
	Tags             []string    `json:"tags"`
	DateCreated      int64       `json:"date_created"`
	DateUpdated      int64       `json:"date_updated"`
	DateStatusChange int64       `json:"date_status_change"`
}

// APIEstimate /v2/estimates 原始记录
type APIEstimate struct {
	JNID         string       `json:"jnid"`
	StatusName   string       `json:"status_name"`
	SalesRep     string       `json:"sales_rep"`
	SalesRepName string       `json:"sales_rep_name"`
	Primary      *RelatedRef  `json:"primary"`
	Related      []RelatedRef `json:"related"`
	Total        float64      `json:"total"`
	DateCreated  int64        `json:"date_created"`
}

// APIInvoice /v2/invoices 原始记录
type APIInvoice struct {
	JNID           string       `json:"jnid"`
	SalesRep       string       `json:"sales_rep"`
	SalesRepName   string       `json:"sales_rep_name"`
	Primary        *RelatedRef  `json:"primary"`
	Related        []RelatedRef `json:"related"`
	Total          float64      `json:"total"`
	TotalPaid      float64      `json:"total_paid"`
	DatePaidInFull int64        `json:"date_paid_in_full"`
}

// WorkflowStatus 工作流里的单个状态定义
type WorkflowStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Workflow 状态 ID → 名称的外部定义，只实时拉取不落库
type Workflow struct {
	ID     int64            `json:"id"`
	Name   string           `json:"name"`
	Status []WorkflowStatus `json:"status"`
}

// StatusNameByID 查找状态名，找不到返回空串
func (w Workflow) StatusNameByID(id int64) string {
	for _, s := range w.Status {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

// ActivityPrimary activity 指向的主对象
type ActivityPrimary struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	NewStatus int64  `json:"new_status"`
}

// Activity /activities 原始记录
type Activity struct {
	JNID           string           `json:"jnid"`
	IsStatusChange bool             `json:"is_status_change"`
	DateCreated    int64            `json:"date_created"`
	Primary        *ActivityPrimary `json:"primary"`
}
