package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		if err := runREPL(); err != nil {
			fatal(err)
		}
		return
	}
	switch args[0] {
	case "repl":
		if err := runREPL(); err != nil {
			fatal(err)
		}
	case "bench":
		if err := runBench(args[1:]); err != nil {
			fatal(err)
		}
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`latebind - dynamic dispatch playground

Usage:
  latebind [repl]            interactive playground
  latebind bench [flags]     run dispatch workloads
      -n int                 iterations per workload (default 100000)
      -db path               record per-site stats into a SQLite database`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, colorize("error: "+err.Error(), colorRed))
	os.Exit(1)
}

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorDim   = "\033[2m"
	colorReset = "\033[0m"
)

func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func colorize(s, color string) string {
	if !stdoutIsTTY() {
		return s
	}
	return color + s + colorReset
}
