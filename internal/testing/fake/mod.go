// Package fake provides fake implementations for interfaces commonly used in
// the repository. The implementations offer configuration to return errors
// when it is needed by the unit test.
package fake

import "golang.org/x/xerrors"

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected format of a wrapped fake error.
func Err(msg string) string {
	return msg + ": " + fakeErr.Error()
}
