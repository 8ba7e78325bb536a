package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/careroute/tour-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// queryParams collects typed query parameters and their validation errors.
type queryParams struct {
	r    *http.Request
	errs validator.ValidationErrors
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{r: r}
}

func (q *queryParams) String(key string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(key))
}

func (q *queryParams) OptionalString(key string) *string {
	v := q.String(key)
	if v == "" {
		return nil
	}
	return &v
}

func (q *queryParams) Int(key string) int {
	v := q.String(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.errs = append(q.errs, validator.ValidationError{
			Field:   key,
			Message: key + " must be a number",
		})
		return 0
	}
	return n
}

func (q *queryParams) OptionalID(key string) *int64 {
	v := q.String(key)
	if v == "" {
		return nil
	}
	id, ok := validator.ParseID(v)
	if !ok {
		q.errs = append(q.errs, validator.ValidationError{
			Field:   key,
			Message: key + " must be a positive number",
		})
		return nil
	}
	return &id
}

func (q *queryParams) Err() error {
	if len(q.errs) > 0 {
		return q.errs
	}
	return nil
}

func parsePathID(value, field string) (int64, error) {
	id, ok := validator.ParseID(value)
	if !ok {
		return 0, validator.ValidationErrors{{
			Field:   field,
			Message: field + " must be a positive number",
		}}
	}
	return id, nil
}
