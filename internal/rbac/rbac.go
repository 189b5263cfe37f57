package rbac

type Role string
type Action string

const (
	RoleCitizen   Role = "citizen"
	RoleVolunteer Role = "volunteer"
	RoleOfficial  Role = "official"
	RoleAdmin     Role = "admin"
)

const (
	ActionSubmitComplaint    Action = "submit_complaint"
	ActionViewOwnComplaints  Action = "view_own_complaints"
	ActionViewAssigned       Action = "view_assigned_complaints"
	ActionViewAllComplaints  Action = "view_all_complaints"
	ActionAssignComplaint    Action = "assign_complaint"
	ActionUpdateStatus       Action = "update_complaint_status"
	ActionRespondComplaint   Action = "respond_complaint"
	ActionCreatePoll         Action = "create_poll"
	ActionVote               Action = "vote_poll"
	ActionViewResults        Action = "view_results"
	ActionViewNotifyLog      Action = "view_notification_log"
	ActionManageUsers        Action = "manage_users"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleOfficial, RoleVolunteer:
		return action == ActionViewAssigned || action == ActionUpdateStatus ||
			action == ActionVote || action == ActionViewResults
	case RoleCitizen:
		return action == ActionSubmitComplaint || action == ActionViewOwnComplaints ||
			action == ActionVote || action == ActionViewResults
	default:
		return false
	}
}

// Admit reports whether role is a member of the allowed set. It backs
// assignee-eligibility checks where the question is "which roles may be the
// target of this action" rather than "may this actor perform it".
func Admit(role Role, allowed ...Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleCitizen, RoleVolunteer, RoleOfficial, RoleAdmin:
		return Role(role)
	default:
		return RoleCitizen
	}
}
