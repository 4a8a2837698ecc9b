package utils

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"golang.org/x/term"
)

// ReadPassphrase prompts for a passphrase without echoing input. It reads
// from stdin when that is a terminal, and otherwise from /dev/tty (CON on
// Windows), so it still works when stdin is redirected.
func ReadPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		return readHidden(fd, prompt)
	}

	tty, err := os.Open(ttyPath())
	if err != nil {
		return nil, fmt.Errorf("cannot read passphrase: stdin is not a terminal and %s is unavailable: %w", ttyPath(), err)
	}
	defer tty.Close()

	fd = int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("cannot read passphrase: %s is not a terminal", ttyPath())
	}
	return readHidden(fd, prompt)
}

// ReadPassphraseWithConfirm prompts twice and fails with
// ErrPasswordMismatch if the entries differ.
func ReadPassphraseWithConfirm(prompt, confirmPrompt string) ([]byte, error) {
	first, err := ReadPassphrase(prompt)
	if err != nil {
		return nil, err
	}

	second, err := ReadPassphrase(confirmPrompt)
	if err != nil {
		ZeroBytes(first)
		return nil, err
	}
	defer ZeroBytes(second)

	if !bytes.Equal(first, second) {
		ZeroBytes(first)
		return nil, kerrors.ErrPasswordMismatch
	}
	return first, nil
}

func readHidden(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}
