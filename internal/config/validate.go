package config

import (
	"errors"
	"fmt"
	"os"
)

// ValidationError aggregates every problem found in one call to
// Validate, so a user fixing their invocation sees all of them at
// once instead of one at a time.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	msg := fmt.Sprintf("%d configuration errors:", len(e.Errs))
	for _, err := range e.Errs {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Unwrap exposes the underlying errors for errors.Is/errors.As.
func (e *ValidationError) Unwrap() []error { return e.Errs }

// Validate checks c as a unit and returns every problem found, or nil
// if c is ready to drive a join run.
func (c Config) Validate() error {
	var errs []error

	if len(c.File1) == 0 {
		errs = append(errs, errors.New("file1: at least one input file is required"))
	} else {
		errs = append(errs, checkFilesExist("file1", c.File1)...)
	}
	if len(c.File2) == 0 {
		errs = append(errs, errors.New("file2: at least one input file is required"))
	} else {
		errs = append(errs, checkFilesExist("file2", c.File2)...)
	}

	if len(c.Separator) != 1 {
		errs = append(errs, fmt.Errorf("separator: must be exactly one character, got %q", c.Separator))
	}
	if c.Field1 < 0 {
		errs = append(errs, fmt.Errorf("field1: must be >= 0, got %d", c.Field1))
	}
	if c.Field2 < 0 {
		errs = append(errs, fmt.Errorf("field2: must be >= 0, got %d", c.Field2))
	}
	if c.OutputFields == "" {
		errs = append(errs, errors.New("output-fields: required"))
	} else if _, err := c.OutputSpec(); err != nil {
		errs = append(errs, fmt.Errorf("output-fields: %w", err))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output: required"))
	} else if info, err := os.Stat(c.Output); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("output: %s is not a directory", c.Output))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs: must be >= 1, got %d", c.Jobs))
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errs: errs}
}

func checkFilesExist(flag string, paths []string) []error {
	var errs []error
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", flag, err))
			continue
		}
		if info.IsDir() {
			errs = append(errs, fmt.Errorf("%s: %s is a directory, want a file", flag, p))
		}
	}
	return errs
}
