package analysis

import (
	"fmt"
	"strings"
)

// custom errors for the analysis package

// SchemaError reports required columns missing from the input table.
// It is returned before any grouping is attempted and is never retried.
type SchemaError struct {
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"job table missing required columns for memory analysis: %s. Available columns: %s",
		strings.Join(e.Missing, ", "),
		strings.Join(e.Available, ", "),
	)
}

func NewSchemaError(missing, available []string) error {
	return &SchemaError{Missing: missing, Available: available}
}

// ConversionError reports a field value that could not be coerced to its
// expected numeric type. It aborts the whole analysis; there is no
// row-skipping.
type ConversionError struct {
	ClusterID int64
	msg       string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cluster %d: %s", e.ClusterID, e.msg)
}

func NewConversionError(clusterID int64, msg string) error {
	return &ConversionError{ClusterID: clusterID, msg: msg}
}
