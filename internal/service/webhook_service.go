package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/funnel"
	"github.com/qs3c/salesdash_go_server/internal/model"
	"github.com/qs3c/salesdash_go_server/internal/pkg/pubsub"
	"github.com/qs3c/salesdash_go_server/internal/repository"
)

var ErrBadSecret = errors.New("webhook 密钥不匹配")

// WebhookService CRM webhook 入库
type WebhookService struct {
	jobRepo     *repository.JobRepository
	publisher   *pubsub.Publisher // 可为 nil（未接 Redis 时）
	secret      string
	recordTypes map[string]bool
}

func NewWebhookService(jobRepo *repository.JobRepository, publisher *pubsub.Publisher, cfg *config.WebhookConfig) *WebhookService {
	recordTypes := make(map[string]bool, len(cfg.RecordTypes))
	for _, rt := range cfg.RecordTypes {
		recordTypes[rt] = true
	}
	return &WebhookService{
		jobRepo:     jobRepo,
		publisher:   publisher,
		secret:      cfg.Secret,
		recordTypes: recordTypes,
	}
}

// IngestResult webhook 处理结果
type IngestResult struct {
	Skipped bool
	Reason  string
	Stage   string
}

// webhookEnvelope CRM 自动化推送包一层 body，手动重放是裸对象
type webhookEnvelope struct {
	Body json.RawMessage `json:"body"`
}

// Ingest 处理一条 webhook 投递。
// 密钥校验失败在任何数据库访问之前返回 ErrBadSecret；
// 无法入库的载荷（非 job、未跟踪的类型、缺 jnid）按跳过处理，
// CRM 侧重投同一条消息是幂等的。
func (s *WebhookService) Ingest(ctx context.Context, secret string, payload []byte) (*IngestResult, error) {
	if s.secret != "" && secret != s.secret {
		return nil, ErrBadSecret
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return &IngestResult{Skipped: true, Reason: "invalid payload"}, nil
	}
	body := payload
	if len(envelope.Body) > 0 && string(envelope.Body) != "null" {
		body = envelope.Body
	}

	var apiJob crm.APIJob
	if err := json.Unmarshal(body, &apiJob); err != nil {
		return &IngestResult{Skipped: true, Reason: "invalid payload"}, nil
	}

	if apiJob.Type != "job" {
		return &IngestResult{Skipped: true, Reason: "not a job record"}, nil
	}
	if apiJob.JNID == "" {
		return &IngestResult{Skipped: true, Reason: "missing jnid"}, nil
	}
	if len(s.recordTypes) > 0 && !s.recordTypes[apiJob.RecordTypeName] {
		return &IngestResult{Skipped: true, Reason: "record type not tracked"}, nil
	}

	job := BuildJobRecord(apiJob, body)

	changedAt := crm.EpochToTime(apiJob.DateStatusChange)
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}
	entry := &model.JobStatusHistory{
		StatusName: apiJob.StatusName,
		Stage:      job.Stage,
		ChangedAt:  &changedAt,
	}

	if err := s.jobRepo.UpsertWithHistory(job, entry); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		msg := &pubsub.JobUpdateMessage{
			JobID:          job.ID,
			Number:         job.Number,
			RecordTypeName: job.RecordTypeName,
			StatusName:     job.StatusName,
			Stage:          job.Stage,
			ChangedAt:      &changedAt,
		}
		if err := s.publisher.PublishJobUpdate(ctx, msg); err != nil {
			log.Printf("Failed to publish job update for %s: %v", job.ID, err)
		}
	}

	return &IngestResult{Stage: job.Stage}, nil
}

// BuildJobRecord CRM 原始任务 → 快照行，回填同步复用同一套映射
func BuildJobRecord(apiJob crm.APIJob, raw json.RawMessage) *model.Job {
	stage := funnel.StageOf(apiJob.StatusName)

	salesRep := apiJob.SalesRep
	if salesRep == "" {
		salesRep = apiJob.SalesRepName
	}
	var primaryID string
	if apiJob.Primary != nil {
		primaryID = apiJob.Primary.ID
	}
	owners := make(model.StringArray, 0, len(apiJob.Owners))
	for _, o := range apiJob.Owners {
		if o.ID != "" {
			owners = append(owners, o.ID)
		}
	}

	job := &model.Job{
		ID:               apiJob.JNID,
		Number:           apiJob.Number,
		RecordTypeName:   apiJob.RecordTypeName,
		StatusName:       apiJob.StatusName,
		Stage:            stage,
		PrimaryContactID: primaryID,
		SalesRepID:       salesRep,
		SourceName:       apiJob.SourceName,
		Tags:             model.StringArray(apiJob.Tags),
		Owners:           owners,
		Raw:              model.RawJSON(raw),
		IsWon:            funnel.IsWon(stage),
		IsClosed:         funnel.IsClosed(stage),
		IsLost:           funnel.IsLost(stage),
	}
	if t := crm.EpochToTime(apiJob.DateCreated); !t.IsZero() {
		job.DateCreated = &t
	}
	if t := crm.EpochToTime(apiJob.DateStatusChange); !t.IsZero() {
		job.DateStatusChange = &t
	}
	return job
}
