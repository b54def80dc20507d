package rbac

import "go-emptrack/internal/token"

const (
	ResourceEmployee = "employee"
	ResourceUpload   = "upload"
)

const (
	ActionRead   = "read"
	ActionList   = "list"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
	ActionSearch = "search"
)

// PolicySource supplies the rows loaded into the enforcer.
type PolicySource interface {
	GetRolePermissions() ([]RolePermissionRow, error)
}

type staticPolicy []RolePermissionRow

func (p staticPolicy) GetRolePermissions() ([]RolePermissionRow, error) {
	return p, nil
}

// DefaultPolicy grants admins the whole record API. Employees get nothing
// here; reading their own record is decided by middleware.SelfOrRoles.
func DefaultPolicy() PolicySource {
	rows := make(staticPolicy, 0, 8)
	for _, act := range []string{ActionRead, ActionList, ActionCreate, ActionUpdate, ActionDelete, ActionExport, ActionSearch} {
		rows = append(rows, RolePermissionRow{Role: token.RoleAdmin, Resource: ResourceEmployee, Action: act})
	}
	rows = append(rows, RolePermissionRow{Role: token.RoleAdmin, Resource: ResourceUpload, Action: ActionCreate})
	return rows
}
