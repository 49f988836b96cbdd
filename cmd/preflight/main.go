// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hamed0406/httpprobe/internal/config"
	"github.com/hamed0406/httpprobe/internal/probe"
)

// preflight takes the same flags as httpprobe and checks them without probing.
func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load("preflight", os.Args[1:], os.Stderr)
	if err != nil {
		fail(strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	ok(fmt.Sprintf("config: %d iterations, %s between them", cfg.Iterations, cfg.Delay))
	ok("CSV output " + cfg.CSVPath + " (truncated at start)")

	if cfg.ListenAddr == "" {
		warn("no -listen address; status API disabled")
	} else if cfg.APIToken == "" {
		warn("status API on " + cfg.ListenAddr + " without API_TOKEN")
	} else {
		ok("status API on " + cfg.ListenAddr)
	}
	if cfg.DatabaseURL != "" {
		ok("DATABASE_URL present")
	}
	if cfg.SQLitePath != "" {
		ok("SQLite store " + cfg.SQLitePath)
	}

	ctx := context.Background()
	bad := 0
	for i, target := range probe.NormalizeTargets(cfg.URLs) {
		st := probe.CheckDNS(ctx, nil, target)
		line := fmt.Sprintf("target %d %q: %s", i, target, st.Class)
		switch st.Class {
		case probe.DNSResolves, probe.DNSIPLiteral:
			ok(line)
		default:
			bad++
			if st.ResolverError != "" {
				line += " (" + st.ResolverError + ")"
			}
			warn(line + "; every probe of it will fail")
		}
	}

	if bad > 0 {
		warn(fmt.Sprintf("%d target(s) will not resolve", bad))
	}
	ok("preflight passed")
}
