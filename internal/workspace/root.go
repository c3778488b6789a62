package workspace

import "path/filepath"

// AppRoot derives the on-disk root directory for an app workspace,
// deterministically, from the configured storage path and the app's
// (owner, id) pair. Callers must never accept this path from a client;
// it is always computed server-side.
func AppRoot(storagePath, ownerUserID, appID string) string {
	return filepath.Join(storagePath, ownerUserID, appID)
}
