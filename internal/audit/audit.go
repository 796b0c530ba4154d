package audit

import (
	"fmt"
	"strconv"
	"strings"

	"prodnorm/internal/domain"
)

// Issue describes a single audit finding on a normalized row.
type Issue struct {
	Column  string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Column, i.Message)
}

// rule checks one column of a row. check returns an empty string when the
// value passes.
type rule struct {
	column string
	check  func(value string) string
}

// Auditor applies fixed quality rules to normalized rows. Issues are
// informational; rows are never mutated or blocked.
type Auditor struct {
	rules []rule
}

// NewAuditor creates an Auditor with the built-in rule set.
func NewAuditor() *Auditor {
	return &Auditor{rules: []rule{
		{column: "name", check: checkRequired},
		{column: "product ID", check: checkRequired},
		{column: "price", check: checkNumeric},
		{column: "average rating", check: checkRating},
		{column: "number of reviews", check: checkReviewCount},
		{column: "image", check: checkImageURL},
	}}
}

// Check applies every rule whose column exists in the row.
func (a *Auditor) Check(row domain.Row) []Issue {
	var issues []Issue
	for _, r := range a.rules {
		value, ok := row[r.column]
		if !ok {
			continue
		}
		if msg := r.check(value); msg != "" {
			issues = append(issues, Issue{Column: r.column, Message: msg})
		}
	}
	return issues
}

func checkRequired(value string) string {
	if strings.TrimSpace(value) == "" {
		return "missing or empty"
	}
	return ""
}

func checkNumeric(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return fmt.Sprintf("not numeric: %q", value)
	}
	return ""
}

func checkRating(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Sprintf("not numeric: %q", value)
	}
	if f < 0 || f > 5 {
		return fmt.Sprintf("out of range [0,5]: %q", value)
	}
	return ""
}

func checkReviewCount(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Sprintf("not a non-negative integer: %q", value)
	}
	return ""
}

func checkImageURL(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Sprintf("not a URL: %q", value)
	}
	return ""
}
