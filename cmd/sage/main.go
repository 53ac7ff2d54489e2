// Package main provides the sage CLI: roster ingestion, the dedupe
// pipeline, registry verification, the review dashboard API, and
// one-shot natural-language queries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
