package crm

import "time"

// Contact 规范化后的联系人
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Type      string
	Source    string
	SalesRep  string
	CreatedAt time.Time
}

// NormalizedJob 规范化后的任务
type NormalizedJob struct {
	ID           string
	CustomerID   string
	CustomerName string
	Type         string
	Status       string
	SalesRep     string
	Owners       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeContact 原始联系人 → 内部形态
func NormalizeContact(c APIContact) Contact {
	name := c.DisplayName
	if name == "" {
		name = c.FirstName + " " + c.LastName
	}
	phone := c.MobilePhone
	if phone == "" {
		phone = c.HomePhone
	}
	if phone == "" {
		phone = c.WorkPhone
	}
	contactType := c.RecordTypeName
	if contactType == "" {
		contactType = "Homeowner"
	}
	source := c.SourceName
	if source == "" {
		source = "Other"
	}
	salesRep := c.SalesRep
	if salesRep == "" {
		salesRep = c.SalesRepName
	}
	return Contact{
		ID:        c.JNID,
		Name:      name,
		Email:     c.Email,
		Phone:     phone,
		Type:      contactType,
		Source:    source,
		SalesRep:  salesRep,
		CreatedAt: EpochToTime(c.DateCreated),
	}
}

// NormalizeJob 原始任务 → 内部形态。
// job type 优先取 Service Type 自定义字段，再退到 record_type_name。
func NormalizeJob(j APIJob) NormalizedJob {
	jobType := j.ServiceType
	if jobType == "" {
		jobType = j.RecordTypeName
	}
	if jobType == "" {
		jobType = "Roof Replacement"
	}
	salesRep := j.SalesRep
	if salesRep == "" {
		salesRep = j.SalesRepName
	}
	customerID := "unknown"
	customerName := "Unknown"
	if j.Primary != nil {
		if j.Primary.ID != "" {
			customerID = j.Primary.ID
		}
		if j.Primary.Name != "" {
			customerName = j.Primary.Name
		}
	}
	owners := make([]string, 0, len(j.Owners))
	for _, o := range j.Owners {
		if o.ID != "" {
			owners = append(owners, o.ID)
		}
	}
	return NormalizedJob{
		ID:           j.JNID,
		CustomerID:   customerID,
		CustomerName: customerName,
		Type:         jobType,
		Status:       j.StatusName,
		SalesRep:     salesRep,
		Owners:       owners,
		CreatedAt:    EpochToTime(j.DateCreated),
		UpdatedAt:    EpochToTime(j.DateUpdated),
	}
}

// EpochToTime CRM 时间戳（秒）转 time.Time，0 返回零值
func EpochToTime(epochSeconds int64) time.Time {
	if epochSeconds == 0 {
		return time.Time{}
	}
	return time.Unix(epochSeconds, 0).UTC()
}
