// Static validation / linting for Job values. Checks are performed on the
// decoded value and returned as a list of issues (errors and warnings) that
// callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"tabular/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.db.table", "fields[2].type").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where convenient.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation of a Job. It does not mutate the
// job; callers decide whether warnings are fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "name",
			Message:  "name must not be empty; it labels runs in logs and metrics",
		})
	}

	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateFields(j)...)
	issues = append(issues, validateStorage(j)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.path", "path is required for the file source"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "kind is required (supported: file)"})
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unsupported kind %q", s.Kind)})
	}
	switch s.Format {
	case "csv", "json":
	case "":
		issues = append(issues, Issue{SeverityError, "source.format", "format is required (csv or json)"})
	default:
		issues = append(issues, Issue{SeverityError, "source.format", fmt.Sprintf("unsupported format %q", s.Format)})
	}
	return issues
}

func validateFields(j Job) []Issue {
	var issues []Issue
	if len(j.Fields) == 0 {
		issues = append(issues, Issue{SeverityError, "fields", "at least one field must be declared"})
		return issues
	}
	if _, err := j.Schema(); err != nil {
		issues = append(issues, Issue{SeverityError, "fields", err.Error()})
	}

	declared := map[string]struct{}{}
	for _, f := range j.Fields {
		declared[f.Name] = struct{}{}
	}
	for i, set := range j.Unique {
		if len(set) == 0 {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("unique[%d]", i), "field set must not be empty"})
			continue
		}
		for _, name := range set {
			if _, ok := declared[name]; !ok {
				issues = append(issues, Issue{
					SeverityError,
					fmt.Sprintf("unique[%d]", i),
					fmt.Sprintf("references undeclared field %q", name),
				})
			}
		}
	}
	return issues
}

func validateStorage(j Job) []Issue {
	var issues []Issue
	s := j.Storage
	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{SeverityError, "storage.kind", "kind is required"})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "table is required"})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityWarning, "storage.db.dsn", "dsn is empty; it must be supplied via environment"})
	}

	policy, err := storage.ParsePolicy(s.Policy)
	if err != nil {
		issues = append(issues, Issue{SeverityError, "storage.policy", err.Error()})
	} else if policy == storage.Upsert && len(s.DB.KeyColumns) == 0 {
		issues = append(issues, Issue{SeverityError, "storage.db.key_columns", "upsert requires key columns"})
	}

	declared := map[string]struct{}{}
	for _, f := range j.Fields {
		declared[f.Name] = struct{}{}
	}
	for _, k := range s.DB.KeyColumns {
		if _, ok := declared[k]; !ok {
			issues = append(issues, Issue{
				SeverityError,
				"storage.db.key_columns",
				fmt.Sprintf("references undeclared field %q", k),
			})
		}
	}
	return issues
}
