//go:build linux

package internal

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho clears ECHO so commands written to the terminal are not copied into its output.
// The descriptor is reached through SyscallConn so the file stays in non-blocking mode.
func disableEcho(f *os.File) error {
	conn, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var ioctlErr error
	err = conn.Control(func(fd uintptr) {
		termios, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
		if err != nil {
			ioctlErr = err
			return
		}
		termios.Lflag &^= unix.ECHO
		ioctlErr = unix.IoctlSetTermios(int(fd), unix.TCSETS, termios)
	})
	if err != nil {
		return err
	}
	return ioctlErr
}
