// Command imprint is the creator-side CLI: it manages signing keys,
// registers content, verifies files against records, resolves matches,
// and deletes owned records. It can work against a local on-disk store or
// a remote imprintd.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imprint:", err)
		os.Exit(1)
	}
}
