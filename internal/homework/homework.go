// Package homework implements the review-status domain: validating raw API
// responses, translating submission statuses into notification text, and
// deciding whether a translated message is new.
package homework

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Response field names as published by the review-status API.
const (
	FieldHomeworks    = "homeworks"
	FieldCurrentDate  = "current_date"
	FieldHomeworkName = "homework_name"
	FieldStatus       = "status"
)

// Known review status codes.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

// verdicts maps each known status code to its fixed sentence.
var verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the fixed sentence for a status code.
func Verdict(status string) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// KnownStatuses returns the known status codes in sorted order.
func KnownStatuses() []string {
	codes := make([]string, 0, len(verdicts))
	for code := range verdicts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Record is a single submission entry from the homeworks array.
type Record = any

// ResultStatus tags the outcome of a successful validation.
type ResultStatus int

const (
	// StatusOK means at least one submission record is present.
	StatusOK ResultStatus = iota

	// StatusEmpty means the homeworks array is present but empty:
	// nothing has been submitted in the query window.
	StatusEmpty
)

func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Validate.
type Result struct {
	Status  ResultStatus
	Records []Record
}

// Latest returns the most recent record (index 0) and whether one exists.
func (r Result) Latest() (Record, bool) {
	if r.Status != StatusOK || len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Validate checks that raw has the documented response shape and returns
// the homeworks array unchanged. An empty array is reported as StatusEmpty,
// not as an error.
func Validate(raw any) (Result, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Result{}, &SchemaError{Field: "$", Message: fmt.Sprintf("expected object, got %s", typeName(raw))}
	}

	value, ok := obj[FieldHomeworks]
	if !ok {
		return Result{}, &SchemaError{Field: FieldHomeworks, Message: "key is missing"}
	}

	records, ok := value.([]any)
	if !ok {
		return Result{}, &SchemaError{Field: FieldHomeworks, Message: fmt.Sprintf("expected array, got %s", typeName(value))}
	}

	if len(records) == 0 {
		return Result{Status: StatusEmpty}, nil
	}

	return Result{Status: StatusOK, Records: records}, nil
}

// CurrentDate extracts the server-supplied cursor from raw.
// It reports false when the field is absent, null, or not an integer.
func CurrentDate(raw any) (int64, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return 0, false
	}

	switch v := obj[FieldCurrentDate].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Translate builds the notification text for a submission record.
func Translate(rec Record) (string, error) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return "", &SchemaError{Field: FieldHomeworks + "[0]", Message: fmt.Sprintf("expected object, got %s", typeName(rec))}
	}

	name, err := stringField(obj, FieldHomeworkName)
	if err != nil {
		return "", err
	}

	status, err := stringField(obj, FieldStatus)
	if err != nil {
		return "", err
	}

	verdict, ok := verdicts[status]
	if !ok {
		return "", &UnknownStatusError{Status: status}
	}

	return FormatMessage(name, verdict), nil
}

// FormatMessage renders the notification for a submission name and verdict.
func FormatMessage(name, verdict string) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", name, verdict)
}

// ShouldNotify reports whether candidate differs from the last delivered message.
func ShouldNotify(candidate, state string) bool {
	return candidate != state
}

func stringField(obj map[string]any, field string) (string, error) {
	value, ok := obj[field]
	if !ok || value == nil {
		return "", &MissingFieldError{Field: field}
	}
	s, ok := value.(string)
	if !ok {
		return "", &SchemaError{Field: field, Message: fmt.Sprintf("expected string, got %s", typeName(value))}
	}
	return s, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
	}
}
