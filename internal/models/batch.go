package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-generator/internal/apperrs"
)

type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

func (s ItemStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BatchItem is one generation request inside a batch. Its status only moves
// forward: pending, processing, then exactly one of completed or failed.
type BatchItem struct {
	ID           string       `json:"id"`
	Fields       PromptFields `json:"fields"`
	Status       ItemStatus   `json:"status"`
	ResultImage  string       `json:"result_image,omitempty"`
	RecordID     string       `json:"record_id,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

func NewBatchItem(fields PromptFields) *BatchItem {
	return &BatchItem{
		ID:     uuid.New().String(),
		Fields: fields,
		Status: StatusPending,
	}
}

func (i *BatchItem) MarkProcessing() error {
	if i.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", apperrs.ErrInvalidTransition, i.Status, StatusProcessing)
	}
	i.Status = StatusProcessing
	return nil
}

func (i *BatchItem) Complete(image string) error {
	if i.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", apperrs.ErrInvalidTransition, i.Status, StatusCompleted)
	}
	i.Status = StatusCompleted
	i.ResultImage = image
	return nil
}

func (i *BatchItem) Fail(message string) error {
	if i.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", apperrs.ErrInvalidTransition, i.Status, StatusFailed)
	}
	i.Status = StatusFailed
	i.ErrorMessage = message
	return nil
}

type BatchSummary struct {
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Total     int  `json:"total"`
	Cancelled bool `json:"cancelled,omitempty"`
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// BatchJob is the session object that owns a batch's items for one run.
type BatchJob struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Type            ImageType    `json:"type"`
	Items           []*BatchItem `json:"items"`
	Status          JobStatus    `json:"status"`
	Summary         BatchSummary `json:"summary"`
	CancelRequested bool         `json:"cancel_requested,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
}

func NewBatchJob(userID string, imageType ImageType, fields []PromptFields) *BatchJob {
	items := make([]*BatchItem, len(fields))
	for i, f := range fields {
		items[i] = NewBatchItem(f)
	}

	return &BatchJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      imageType,
		Items:     items,
		Status:    JobStatusPending,
		Summary:   BatchSummary{Total: len(items)},
		CreatedAt: time.Now(),
	}
}

type CreateBatchRequest struct {
	Type  ImageType      `json:"type" binding:"required,oneof=blog infographic"`
	Items []PromptFields `json:"items" binding:"required,min=1,dive"`
	Async bool           `json:"async"`
}

// PendingItems returns the items that have not started yet.
func (j *BatchJob) PendingItems() []*BatchItem {
	var pending []*BatchItem
	for _, item := range j.Items {
		if item.Status == StatusPending {
			pending = append(pending, item)
		}
	}
	return pending
}

// Recount rebuilds the success and failure counts from the item statuses.
func (j *BatchJob) Recount() {
	j.Summary.Total = len(j.Items)
	j.Summary.Succeeded, j.Summary.Failed = 0, 0
	for _, item := range j.Items {
		switch item.Status {
		case StatusCompleted:
			j.Summary.Succeeded++
		case StatusFailed:
			j.Summary.Failed++
		}
	}
}
