package test

import "testing"

// MarkAsShort skips the test unless the -test.short flag is set.
func MarkAsShort(t *testing.T) {
	t.Helper()
	if !testing.Short() {
		t.Skip("skipping short tests, to run them use the -test.short flag")
	}
}

// MarkAsLong skips the test when the -test.short flag is set.
func MarkAsLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping long tests, to run them remove the -test.short flag")
	}
}
