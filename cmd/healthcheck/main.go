// Package main implements a tiny liveness probe for the ranking engine. It is
// built as a static binary so container HEALTHCHECK directives work in images
// that ship no shell or curl.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultPort = "3001"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "health probe failed: %v\n", err)
		os.Exit(1)
	}
	// os.Exit skips deferred calls, so close the body right away.
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "health probe got status %d\n", resp.StatusCode)
		os.Exit(1)
	}
}
