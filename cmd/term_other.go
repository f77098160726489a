//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package cmd

import "io"

func terminalWidth(io.Writer) int {
	return 0
}
