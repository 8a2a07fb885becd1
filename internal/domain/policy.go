package domain

// Permission names an action a role may be granted
type Permission string

const (
	PermContractCreate  Permission = "contract:create"
	PermContractUpdate  Permission = "contract:update"
	PermContractDelete  Permission = "contract:delete"
	PermContractSubmit  Permission = "contract:submit"
	PermContractApprove Permission = "contract:approve"
	PermContractReject  Permission = "contract:reject"
	PermUserCreate      Permission = "user:create"
	PermAuditRead       Permission = "audit:read"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermContractCreate, PermContractUpdate, PermContractDelete,
		PermContractSubmit, PermContractApprove, PermContractReject,
		PermUserCreate, PermAuditRead,
	},
	RoleLegal: {
		PermContractCreate, PermContractUpdate,
		PermContractSubmit, PermContractApprove, PermContractReject,
		PermAuditRead,
	},
	// VIEWER reads through CanView only
	RoleViewer: {},
}

var validTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:    {ContractStatusInReview},
	ContractStatusInReview: {ContractStatusApproved, ContractStatusRejected},
	ContractStatusApproved: {},
	ContractStatusRejected: {ContractStatusDraft},
}

// HasPermission reports whether role is granted permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CanView reports whether role may see a contract in status.
// DRAFT is visible only to ADMIN and LEGAL.
func CanView(role Role, status ContractStatus) bool {
	if status == ContractStatusDraft {
		return role == RoleAdmin || role == RoleLegal
	}
	return true
}

// CanEdit reports whether content edits are allowed in status
func CanEdit(status ContractStatus) bool {
	return status == ContractStatusDraft || status == ContractStatusRejected
}

// IsValidTransition reports whether from -> to is in the transition table
func IsValidTransition(from, to ContractStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from from
func AllowedTransitions(from ContractStatus) []ContractStatus {
	targets := validTransitions[from]
	out := make([]ContractStatus, len(targets))
	copy(out, targets)
	return out
}

// CanDelete reports whether role may delete a contract in status.
// APPROVED contracts are never deletable.
func CanDelete(role Role, status ContractStatus) bool {
	return role == RoleAdmin && status != ContractStatusApproved
}

// TransitionPermission returns the permission required to move a contract to target
func TransitionPermission(target ContractStatus) Permission {
	switch target {
	case ContractStatusInReview:
		return PermContractSubmit
	case ContractStatusApproved:
		return PermContractApprove
	case ContractStatusRejected:
		return PermContractReject
	default:
		return PermContractUpdate
	}
}
