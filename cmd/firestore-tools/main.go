// Command firestore-tools duplicates Firestore documents and bulk-inserts
// documents from JSON exports.
//
// Usage:
//
//	firestore-tools duplicate   # COLLECTION_PATH, SOURCE_DOC_ID, PREFIX, POSTFIX, NUM_OF_DUPLICATES
//	firestore-tools insert      # COLLECTION_PATH, JSON_FILE_PATH, USE_SLUG_AS_ID
//
// Settings are read from the environment and from a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, root.UsageString())
		}
		return 1
	}
	return 0
}
