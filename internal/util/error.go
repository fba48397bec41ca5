package util

import (
	"errors"
	"fmt"
	"strings"
)

// FormatErrorList() is a wrapper function that unifies error list formatting
// and makes printing error lists consistent.
//
// NOTE: The error returned IS NOT an error in itself. It is a single
// condensed error composed of all of the errors included in the errList
// argument, one per line.
func FormatErrorList(errList []error) error {
	if len(errList) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errList {
		fmt.Fprintf(&b, "\t[%d] %v\n", i, e)
	}
	return errors.New(strings.TrimRight(b.String(), "\n"))
}

// HasErrors() is a simple wrapper function to check if an error list contains
// errors.
func HasErrors(errList []error) bool {
	return len(errList) > 0
}
