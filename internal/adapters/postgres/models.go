package postgres

import "time"

type submissionModel struct {
	SubmissionID  string    `gorm:"column:submission_id;primaryKey"`
	TenantID      string    `gorm:"column:tenant_id"`
	ActorID       string    `gorm:"column:actor_id"`
	Operation     string    `gorm:"column:operation"`
	InvoiceID     *string   `gorm:"column:invoice_id"`
	InvoiceNumber string    `gorm:"column:invoice_number"`
	ClientID      string    `gorm:"column:client_id"`
	Total         float64   `gorm:"column:total"`
	Outcome       string    `gorm:"column:outcome"`
	FailureReason *string   `gorm:"column:failure_reason"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (submissionModel) TableName() string { return "invoice_submissions" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "invoicing_idempotency" }
