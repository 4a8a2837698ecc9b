// Package logger provides leveled console logging for claw-migrator.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is prefixed with a colored level tag.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows info and debug messages, and echoes returned errors
//
// Warnings and errors are always shown on stderr.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Always shown
//	Logger.Errorf()         // Always shown
//	Logger.ErrorfAndReturn() // Returns a formatted error, echoed with --debug
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Archiving %d sources", len(sources))
//
// Commands create a logger in the root PersistentPreRun and pass it to the
// workflows, which hand it down to the archive and heal packages. Those tag
// their messages with Named:
//
//	log := opts.Logger.Named("heal")
//	log.Warnf("No manifest.json in %s", target) // [warn] heal: No manifest.json ...
//
// Out and ErrOut redirect output, which tests use to assert on warnings.
package logger
