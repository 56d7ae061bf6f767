//go:build darwin || freebsd || openbsd || netbsd

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
	oldState, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, &newState); err != nil {
		return
	}
	defer unix.IoctlSetTermios(fd, unix.TIOCSETA, oldState)

	readKeys(adminURL, appLog, quit)
}
