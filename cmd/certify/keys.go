//go:build !windows

package main

import (
	"os"

	"github.com/jornadaii/certify/internal/logger"
)

// readKeys dispatches raw key presses until quit is requested or stdin closes
func readKeys(adminURL string, appLog logger.Logger, quit func()) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !handleKey(string(buf[0]), adminURL, appLog) {
			quit()
			return
		}
	}
}
