// Package validation holds the rule sets run before any catalog mutation.
// Every rule set collects all violations instead of stopping at the first.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors collects violation messages keyed by field, remembering the order
// in which fields first failed.
type Errors struct {
	order  []string
	fields map[string][]string
}

func (e *Errors) Add(field, message string) {
	if e.fields == nil {
		e.fields = map[string][]string{}
	}
	if _, ok := e.fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.fields[field] = append(e.fields[field], message)
}

func (e *Errors) Empty() bool { return len(e.order) == 0 }

func (e *Errors) Has(field string) bool {
	_, ok := e.fields[field]
	return ok
}

// Get returns the messages recorded for field.
func (e *Errors) Get(field string) []string { return e.fields[field] }

// Fields returns the field-keyed messages for the error payload.
func (e *Errors) Fields() map[string][]string {
	if e.fields == nil {
		return map[string][]string{}
	}
	return e.fields
}

// Message summarises the violations: the first message, followed by
// "(and N more errors)" when there are others.
func (e *Errors) Message() string {
	if e.Empty() {
		return ""
	}
	total := 0
	for _, msgs := range e.fields {
		total += len(msgs)
	}
	first := e.fields[e.order[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return first + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}

func (e *Errors) Error() string { return e.Message() }

// label turns a field key into the wording used in messages: category_id -> category id.
func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// present reports whether the field appeared in the JSON body at all.
func present(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) > 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// asNumber accepts a JSON number or a string holding a number.
func asNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if s, ok := asString(raw); ok {
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// asID accepts a positive integer given as a JSON number or a string.
func asID(raw json.RawMessage) (uint, bool) {
	text := strings.TrimSpace(string(raw))
	if s, ok := asString(raw); ok {
		text = strings.TrimSpace(s)
	}
	return parseID(text)
}

func parseID(text string) (uint, bool) {
	n, err := strconv.ParseUint(text, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
