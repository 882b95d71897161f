package auth

// Scopes granted to exercise tracker clients.
const (
	ScopeExercisesWrite = "exercises:write"
	ScopeExercisesRead  = "exercises:read"
)
