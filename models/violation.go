package models

import "time"

// Violation is the moderation annotation shared by threads and replies.
// Either all four fields are zero/nil or all are set.
type Violation struct {
	IsViolation     bool       `gorm:"not null;default:false" json:"is_violation"`
	ViolationReason *string    `gorm:"size:500" json:"violation_reason,omitempty"`
	ViolationDate   *time.Time `json:"violation_date,omitempty"`
	ViolatedByAdmin *string    `gorm:"size:50" json:"violated_by_admin,omitempty"`
}

// Mark fills every field of the annotation at once.
func (v *Violation) Mark(reason, admin string, at time.Time) {
	v.IsViolation = true
	v.ViolationReason = &reason
	v.ViolationDate = &at
	v.ViolatedByAdmin = &admin
}

// Clear resets the annotation.
func (v *Violation) Clear() {
	*v = Violation{}
}

// ViolationColumns maps the annotation onto column updates, used for in-place gorm updates.
func (v Violation) ViolationColumns() map[string]interface{} {
	return map[string]interface{}{
		"is_violation":      v.IsViolation,
		"violation_reason":  v.ViolationReason,
		"violation_date":    v.ViolationDate,
		"violated_by_admin": v.ViolatedByAdmin,
	}
}
