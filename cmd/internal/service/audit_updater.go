package service

import (
	"time"

	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"
)

// auditUpdater acts as a "Change Set" context.
// It accumulates errors and tracks if a save is actually needed.
type auditUpdater struct {
	target *entity.Audit

	// State
	err   apierror.ErrorResponse
	dirty bool
}

// setStatus overwrites the status with any known value, the transition table
// only guards the moves the system makes on its own.
func (u *auditUpdater) setStatus(newVal *string) {
	if u.err != nil || newVal == nil {
		return
	}

	next := entity.AuditStatus(*newVal)
	if next == u.target.Status {
		return
	}

	u.target.Status = next
	if next == entity.AuditCompleted && u.target.CompletedAt == nil {
		now := utils.NowUTC()
		u.target.CompletedAt = &now
	}
	u.dirty = true
}

func (u *auditUpdater) setCompletedAt(newVal *time.Time) {
	if u.err != nil || newVal == nil {
		return
	}

	millis := utils.ToEpoch(*newVal)
	if u.target.CompletedAt != nil && *u.target.CompletedAt == millis {
		return
	}

	u.target.CompletedAt = &millis
	u.dirty = true
}

// setSignature stores the signature image, an empty string removes it.
func (u *auditUpdater) setSignature(newVal *string) {
	if u.err != nil || newVal == nil {
		return
	}

	if *newVal == "" {
		if u.target.Signature != nil {
			u.target.Signature = nil
			u.dirty = true
		}
		return
	}

	if u.target.Signature != nil && *u.target.Signature == *newVal {
		return
	}

	sig := *newVal
	u.target.Signature = &sig
	u.dirty = true
}
