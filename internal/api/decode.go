package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"example.com/exercisetracker/internal/domain"
)

const maxBodyBytes = 1 << 20

// Field is a request value that may arrive as a JSON string or number, or
// as a form value. Booleans, objects and arrays decode with Invalid set.
type Field struct {
	Value   string
	Numeric bool
	Invalid bool
}

// UnmarshalJSON accepts any JSON value.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = Field{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field{Value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = Field{Invalid: true}
		return nil
	}
	*f = Field{Value: n.String(), Numeric: true}
	return nil
}

type formRequest interface {
	fromForm(values url.Values)
}

func (r *CreateUserRequest) fromForm(values url.Values) {
	r.Username = Field{Value: values.Get("username")}
}

func (r *AddExerciseRequest) fromForm(values url.Values) {
	r.Description = Field{Value: values.Get("description")}
	r.Duration = Field{Value: values.Get("duration")}
	r.Date = Field{Value: values.Get("date")}
}

// decodeBody fills dst from a JSON or urlencoded/multipart form body. An
// empty body leaves dst untouched so required-field checks report it.
func decodeBody(r *http.Request, dst formRequest) error {
	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return badBody(err)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return badBody(err)
		}
		dst.fromForm(r.PostForm)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return badBody(err)
		}
		dst.fromForm(r.PostForm)
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badBody(err)
	}
	return nil
}

func badBody(error) error {
	return &domain.ValidationError{Field: "body", Message: "Malformed request body"}
}

// checkFields rejects values of a JSON type the field cannot hold.
func checkFields(fields ...namedField) error {
	for _, f := range fields {
		if f.field.Invalid || (f.stringOnly && f.field.Numeric) {
			return &domain.ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("%s must be a %s", f.label, f.kind()),
			}
		}
	}
	return nil
}

type namedField struct {
	name       string
	label      string
	field      Field
	stringOnly bool
}

func (f namedField) kind() string {
	if f.stringOnly {
		return "string"
	}
	return "string or number"
}
