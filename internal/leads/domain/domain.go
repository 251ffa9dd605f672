// Package domain holds the enumerations of the leads bounded context,
// shared by its repository, services, and handlers.
package domain

// Lead status values. Transitions are unrestricted: any status can be
// set from any other. Setting StatusConverted additionally stamps the
// lead's converted_at timestamp.
const (
	StatusDraft      = "draft"
	StatusSubmitted  = "submitted"
	StatusInProgress = "in_progress"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusConverted  = "converted"
)

// Lead source values.
const (
	SourceAgentPortal = "agent_portal"
	SourcePublicShare = "public_share"
)

// Activity types recorded on the lead timeline.
const (
	ActivityCreated          = "created"
	ActivityStatusChange     = "status_change"
	ActivityNoteAdded        = "note_added"
	ActivityDocumentUploaded = "document_uploaded"
	ActivityAssigned         = "assigned"
	ActivityContacted        = "contacted"
)

// ValidStatus reports whether s is one of the recognized lead statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusInProgress, StatusApproved, StatusRejected, StatusConverted:
		return true
	}
	return false
}
