// Command jsonld expands JSON-LD documents from files or standard input.
//
// Usage:
//
//	jsonld expand person.jsonld
//	jsonld expand --loader http --format text people/*.jsonld
//	cat people.ndjson | jsonld expand --ndjson -
//	jsonld expand --watch --loader dir --context-dir contexts doc.jsonld
//	jsonld config init
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
