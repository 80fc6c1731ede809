package dto

import (
	"anoa.com/campusfeedback/internal/entity"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	"github.com/google/uuid"
)

// FlagInput carries the reason for a flag. An empty reason is reported as
// MISSING_REASON by the service, so it is not a binding rule here.
type FlagInput struct {
	Reason string `json:"reason" binding:"max=500"`
}

type FlagResult struct {
	FlagID         uuid.UUID         `json:"flagId"`
	FeedbackID     uuid.UUID         `json:"feedbackId"`
	Status         entity.FlagStatus `json:"status"`
	AdminsNotified int               `json:"adminsNotified"`
	NotifyFailed   int               `json:"notifyFailed"`
}

type ResolveInput struct {
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=1000"`
}

type SuspendInput struct {
	Days       *int    `json:"days"`
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=1000"`
}

type FlagIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type PendingFlags struct {
	Flags []anonDto.AdminFlagView `json:"flags"`
	Total int                     `json:"total"`
}

type FeedbackIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
