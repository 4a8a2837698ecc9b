package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/ui"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
	"github.com/briandowns/spinner"
)

// PasswordEnvVar is consulted when neither --password nor --password-stdin
// is given.
const PasswordEnvVar = "MIGRATOR_PASSWORD"

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do NOT need trailing newlines; the cleanup function
// adds one before printing.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Cleared so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Printed to stdout for tests to capture.
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// resolvePassword picks the archive password from, in order: the --password
// flag, stdin when --password-stdin is set, the MIGRATOR_PASSWORD environment
// variable, and finally an interactive prompt. With confirm set the prompt
// asks twice.
func resolvePassword(flagValue string, fromStdin, confirm bool) ([]byte, error) {
	if flagValue != "" {
		Logger.Debugf("Using password from --password")
		return []byte(flagValue), nil
	}

	if fromStdin {
		Logger.Debugf("Reading password from stdin")
		return utils.ReadStdin()
	}

	if env := os.Getenv(PasswordEnvVar); env != "" {
		Logger.Debugf("Using password from %s", PasswordEnvVar)
		return []byte(env), nil
	}

	if !utils.IsTerminal() {
		return nil, kerrors.ErrPasswordRequired
	}

	Logger.Debugf("Prompting for password")
	var (
		password []byte
		err      error
	)
	if confirm {
		password, err = utils.ReadPassphraseWithConfirm("Archive password: ", "Confirm password: ")
	} else {
		password, err = utils.ReadPassphrase("Archive password: ")
	}
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, kerrors.ErrPasswordRequired
	}
	return password, nil
}

// passwordHelp is the hint shown when no password could be obtained.
func passwordHelp() string {
	return ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--password") + ", pipe it with " +
		ui.Flag.Sprint("--password-stdin") + ", or set " + ui.Code.Sprint(PasswordEnvVar)
}

// describeError turns a workflow error into the user-facing failure message.
func describeError(action string, err error) string {
	message := ui.Error.Sprint("✗") + " " + action + ": " + err.Error()

	switch {
	case errors.Is(err, kerrors.ErrPasswordRequired):
		message = ui.Error.Sprint("✗") + " No password given\n" + passwordHelp()
	case errors.Is(err, kerrors.ErrPasswordMismatch):
		message = ui.Error.Sprint("✗") + " Passwords do not match"
	case errors.Is(err, kerrors.ErrAuthenticationFailed):
		message = ui.Error.Sprint("✗") + " " + action + ": wrong password or the archive is damaged"
	case errors.Is(err, kerrors.ErrInvalidFormat):
		message += "\n" + ui.Info.Sprint("→") + " Is this a claw-migrator archive?"
	case errors.Is(err, kerrors.ErrNoSources):
		message += "\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--source") +
			" or set export.sources with " + ui.Code.Sprint("claw-migrator config init")
	case errors.Is(err, kerrors.ErrInvalidConfig):
		message += "\n" + ui.Info.Sprint("→") + " Fix the file named above and try again"
	}
	return message
}
