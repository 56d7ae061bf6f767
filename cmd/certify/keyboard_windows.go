//go:build windows

package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/jornadaii/certify/internal/logger"
)

// listenForKeyboard reads line-buffered commands; the console stays in
// cooked mode so each key needs Enter.
func listenForKeyboard(adminURL string, appLog logger.Logger, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			continue
		}
		if !handleKey(key[:1], adminURL, appLog) {
			quit()
			return
		}
	}
}
