package api

// CreateUserRequest is the payload for POST /api/users.
type CreateUserRequest struct {
	Username Field `json:"username"`
}

// AddExerciseRequest is the payload for POST /api/users/{id}/exercises.
// Fields accept JSON strings or numbers.
type AddExerciseRequest struct {
	Description Field `json:"description"`
	Duration    Field `json:"duration"`
	Date        Field `json:"date"`
}

// UserView is the public shape of a user.
type UserView struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// ExerciseView answers an add-exercise request. ID is the user's identifier.
type ExerciseView struct {
	Username    string  `json:"username"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
	ID          string  `json:"_id"`
}

// LogEntryView is one exercise inside a log.
type LogEntryView struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}

// LogView answers a log request.
type LogView struct {
	Username string         `json:"username"`
	Count    int            `json:"count"`
	ID       string         `json:"_id"`
	Log      []LogEntryView `json:"log"`
}

// ErrorView is the body of every error response.
type ErrorView struct {
	Error string `json:"error"`
}
