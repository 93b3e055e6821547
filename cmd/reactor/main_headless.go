//go:build !cgo
// +build !cgo

package main

import (
	"flag"
	"fmt"
	"os"
)

// version, commit, date are injected at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.String("config", "", "config file (default ~/.reactor/config.yaml)")
	flag.Int64("seed", 0, "simulation seed")
	flag.Bool("autopilot", false, "start every shift with the autopilot engaged")
	flag.String("scoreboard", "", "sqlite scoreboard path")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Reactor %s (%s) %s\n", version, commit, date)
		return
	}

	fmt.Fprintln(os.Stderr, "The reactor viewer needs a cgo build with raylib. Use reactorsim for headless runs.")
	os.Exit(1)
}
