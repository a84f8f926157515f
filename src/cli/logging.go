// Package cli contains helper functions related to flag parsing and logging.
//
// Interactive, window-aware console rendering is deliberately not
// reproduced here: forge's terminal front-end is an external collaborator,
// so this package only owns backend setup, not presentation.
package cli

import (
	"os"
	"path"

	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("cli")

// StdErrIsATerminal is true if the process' stderr is an interactive TTY.
var StdErrIsATerminal = terminal.IsTerminal(int(os.Stderr.Fd()))

// A Verbosity is used as a flag to define logging verbosity.
type Verbosity int

// UnmarshalFlag implements the flags.Unmarshaler interface, accepting either
// a numeric level or one of the named levels.
func (v *Verbosity) UnmarshalFlag(in string) error {
	switch in {
	case "error":
		*v = Verbosity(logging.ERROR)
	case "warning":
		*v = Verbosity(logging.WARNING)
	case "notice":
		*v = Verbosity(logging.NOTICE)
	case "info":
		*v = Verbosity(logging.INFO)
	case "debug":
		*v = Verbosity(logging.DEBUG)
	default:
		return flagsErrorf("unknown verbosity %q", in)
	}
	return nil
}

var fileBackend logging.Backend

// InitLogging initialises the stderr logging backend at the given verbosity.
func InitLogging(verbosity Verbosity) {
	setLogBackend(logging.Level(verbosity), logging.NewLogBackend(os.Stderr, "", 0))
}

// InitFileLogging additionally tees logging output to a file, at its own verbosity.
func InitFileLogging(logFile string, level Verbosity) error {
	if err := os.MkdirAll(path.Dir(logFile), 0775); err != nil {
		return err
	}
	file, err := os.Create(logFile)
	if err != nil {
		return err
	}
	backend := logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), logFormatter(false))
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.Level(level), "")
	fileBackend = leveled
	AtExit(func() { file.Close() })
	return nil
}

func logFormatter(coloured bool) logging.Formatter {
	format := "%{time:15:04:05.000} %{level:7s}: %{message}"
	if coloured {
		format = "%{color}" + format + "%{color:reset}"
	}
	return logging.MustStringFormatter(format)
}

func setLogBackend(level logging.Level, backend logging.Backend) {
	formatted := logging.NewBackendFormatter(backend, logFormatter(StdErrIsATerminal))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	if fileBackend != nil {
		logging.SetBackend(leveled, fileBackend)
	} else {
		logging.SetBackend(leveled)
	}
}
