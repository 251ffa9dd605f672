package email

const (
	subjectLeadSubmittedFmt = "Application %s received"
	subjectLeadAssignedFmt  = "Lead %s has been assigned to you"
	subjectLeadStatusFmt    = "Lead %s is now %s"
	subjectAgentWelcome     = "Welcome to Bridge"
)
