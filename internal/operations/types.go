package operations

import "github.com/France-Nuage/plateforme-sub000/internal/store"

// OpType names one kind of asynchronous external work. It doubles as the
// store.Operation.OpType column value and the key the dispatcher registry
// looks executors up by.
type OpType string

const (
	OpAuthzWriteRel           OpType = "AuthzWriteRel"
	OpAuthzDeleteRel          OpType = "AuthzDeleteRel"
	OpVpnInviteUser           OpType = "VpnInviteUser"
	OpVpnRemoveUser           OpType = "VpnRemoveUser"
	OpVpnUpdateUser           OpType = "VpnUpdateUser"
	OpBastionCreateAgent      OpType = "BastionCreateAgent"
	OpBastionDeleteAgent      OpType = "BastionDeleteAgent"
	OpBastionCreateConnection OpType = "BastionCreateConnection"
	OpBastionDeleteConnection OpType = "BastionDeleteConnection"
	OpK8sGrantNamespace       OpType = "K8sGrantNamespace"
	OpK8sRevokeNamespace      OpType = "K8sRevokeNamespace"
)

// Terminal reports whether status is one no further work can leave.
func Terminal(status store.OperationStatus) bool {
	switch status {
	case store.OperationSucceeded, store.OperationFailed, store.OperationCancelled:
		return true
	default:
		return false
	}
}
