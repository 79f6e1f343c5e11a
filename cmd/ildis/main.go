// Command ildis inspects method bodies described by a TOML symbol file: it
// prints disassembly listings, the expression trees recovered from method
// bodies, and the backing fields of trivial properties.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}
