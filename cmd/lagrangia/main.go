// Command lagrangia runs the field-equation coefficient search from the
// terminal: start a session, stream its progress, checkpoint to SQLite, and
// export finished runs to Parquet.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
