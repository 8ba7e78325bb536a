package validator

import (
	"strconv"
	"strings"
)

// ValidationError is a problem with a single request field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects every field problem of one request. DTO Validate
// methods return it so handlers can answer with all of them at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

// ToMap keys the messages by field. Several messages for one field are joined.
func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v))
	for _, err := range v {
		if prev, ok := result[err.Field]; ok {
			result[err.Field] = prev + "; " + err.Message
			continue
		}
		result[err.Field] = err.Message
	}
	return result
}

func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseID parses a positive decimal identifier. Signs are not accepted.
func ParseID(s string) (int64, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
