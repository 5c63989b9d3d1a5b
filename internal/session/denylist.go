package session

// DefaultDestructiveOperations lists operations that change or delete state
// and are hidden when destructive operations are denied, unless --yolo is set.
var DefaultDestructiveOperations = []string{
	// Filesystem
	"delete_file",
	"move_file",
	"write_file",
	"edit_file",

	// Git
	"git_push",
	"git_reset",
	"git_commit",

	// Kubernetes manifest operations
	"apply_kubernetes_manifest",
	"delete_kubernetes_resource",
	"kubectl_apply",
	"kubectl_create",
	"kubectl_delete",
	"kubectl_patch",
	"kubectl_scale",

	// Helm operations
	"install_helm_chart",
	"uninstall_helm_chart",
	"upgrade_helm_chart",

	// Other destructive operations
	"cleanup",
	"create_incident",
	"update_dashboard",
}

// Denylist returns the operations to hide. Nothing is hidden when deny is
// false or yolo is true; an empty custom list falls back to the defaults.
func Denylist(deny, yolo bool, custom []string) []string {
	if !deny || yolo {
		return nil
	}
	if len(custom) > 0 {
		return custom
	}
	return DefaultDestructiveOperations
}
