package rbac

// Role constants
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleReviewer    = "reviewer"
	RoleVolunteer   = "volunteer"
)

// Permission constants
const (
	PermManagePipeline   = "manage_pipeline"
	PermReviewApplicants = "review_applicants"
	PermApproveAIActions = "approve_ai_actions"
	PermManageAlerts     = "manage_alerts"
	PermViewAllAlerts    = "view_all_alerts"
	PermManageAnyItem    = "manage_any_item"
	PermRunCronJobs      = "run_cron_jobs"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermManagePipeline, PermReviewApplicants, PermApproveAIActions,
		PermManageAlerts, PermViewAllAlerts, PermManageAnyItem, PermRunCronJobs,
	},
	RoleCoordinator: {
		PermManagePipeline, PermReviewApplicants, PermApproveAIActions,
		PermManageAlerts, PermViewAllAlerts, PermManageAnyItem,
	},
	RoleReviewer: {
		PermReviewApplicants,
	},
	RoleVolunteer: {},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role may act on entities it has no direct
// relationship with (assignee/assigner checks, "all" alert listing).
func IsPrivileged(role string) bool {
	return HasPermission(role, PermManageAnyItem)
}
