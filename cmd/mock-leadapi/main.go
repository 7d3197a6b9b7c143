package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leadsmith/leadsmith/internal/mockleadapi"
)

func main() {
	addr := defaultString("MOCK_LEADAPI_ADDR", ":8080")
	dataDir := defaultString("MOCK_LEADAPI_DATA_DIR", "")
	token := defaultString("MOCK_LEADAPI_TOKEN", "")

	fs := flag.NewFlagSet("mock-leadapi", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&dataDir, "data-dir", dataDir, "Directory to persist the lead table (empty = in-memory only)")
	fs.StringVar(&token, "token", token, "Bearer token to require (empty = no auth)")
	_ = fs.Parse(os.Args[1:])

	srv := mockleadapi.New(dataDir)
	srv.RequireBearerToken(token)

	_, _ = fmt.Fprintf(os.Stdout, "mock-leadapi listening on %s (data=%s)\n", addr, dataDir)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
