// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal prints "error: err" to stderr and exits with status 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// Exit terminates with code without printing. The CLI uses it for
// answers carried in the status itself, such as "session blocked".
func Exit(code int) {
	os.Exit(code)
}
