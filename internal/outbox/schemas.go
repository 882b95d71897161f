package outbox

import "example.com/exercisetracker/internal/events"

const userCreatedSchema = `{
  "type": "object",
  "title": "UserCreated",
  "properties": {
    "user_id": {"type": "string"},
    "username": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "username", "created_at"],
  "additionalProperties": false
}`

const exerciseLoggedSchema = `{
  "type": "object",
  "title": "ExerciseLogged",
  "properties": {
    "exercise_id": {"type": "string"},
    "user_id": {"type": "string"},
    "username": {"type": "string"},
    "description": {"type": "string"},
    "duration_min": {"type": "number", "exclusiveMinimum": 0},
    "date": {"type": "string", "format": "date"},
    "logged_at": {"type": "string", "format": "date-time"}
  },
  "required": ["exercise_id", "user_id", "username", "description", "duration_min", "date", "logged_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeUserCreated: {
		Schema: userCreatedSchema,
	},
	events.TypeExerciseLogged: {
		Schema: exerciseLoggedSchema,
	},
}
