package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Scene errors
	CodeSceneDesync       Code = "SCENE_DESYNC"
	CodeSceneSnapshotBad  Code = "SCENE_SNAPSHOT_INVALID"
	CodeSceneEventInvalid Code = "SCENE_EVENT_INVALID"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeSessionClosed     Code = "SESSION_CLOSED"

	// Auth errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
