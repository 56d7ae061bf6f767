//go:build linux

package main

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/jornadaii/certify/internal/logger"
)

// listenForKeyboard reads single key presses and calls quit on q or Ctrl+C.
// It returns silently when stdin is not a terminal.
func listenForKeyboard(adminURL string, appLog logger.Logger, quit func()) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return
	}

	// Disable canonical mode and echo, keep output processing so \n works
	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &newState); err != nil {
		return
	}
	defer unix.IoctlSetTermios(fd, unix.TCSETS, oldState)

	readKeys(adminURL, appLog, quit)
}
