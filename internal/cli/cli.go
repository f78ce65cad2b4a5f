package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jessevdk/go-flags"
	"github.com/vk/strata/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options are the global options, valid before or after a command.
type Options struct {
	Config          string `short:"c" long:"config" default:"." description:"HCL file or directory holding the build configuration"`
	Out             string `long:"out" default:".strata/out" description:"Output directory for classes and archives"`
	Cache           string `long:"cache" default:".strata/external-modules" description:"Directory external modules are fetched into"`
	JavaHome        string `long:"java-home" env:"JAVA_HOME" description:"JDK whose tools are used when none is configured"`
	LogLevel        string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
	LogFormat       string `long:"log-format" default:"text" choice:"text" choice:"json" description:"Log output format"`
	Workers         int    `long:"workers" default:"0" description:"Concurrent tool runs; 0 uses every CPU"`
	HealthcheckPort int    `long:"healthcheck-port" default:"0" description:"Port for the HTTP health check server; 0 is disabled"`
	EventsURL       string `long:"events-url" description:"socket.io endpoint build events are streamed to"`

	Build   BuildCommand `command:"build" description:"Resolve, compile, archive and test (default)"`
	Resolve struct{}     `command:"resolve" description:"Fetch missing external modules only"`
	Info    struct{}     `command:"info" description:"Describe the project, locators and tools"`
	Clean   CleanCommand `command:"clean" description:"Remove build output"`
}

type BuildCommand struct {
	SkipTests bool `long:"skip-tests" description:"Do not launch tests"`
}

type CleanCommand struct {
	All bool `long:"all" description:"Also remove fetched external modules"`
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "strata"
	parser.SubcommandsOptional = true

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(output, flagsErr.Message)
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if len(rest) > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", rest)}
	}

	command := app.CommandBuild
	if parser.Active != nil {
		command = parser.Active.Name
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	config, err := app.NewConfig(app.Config{
		Command:         command,
		ConfigPath:      opts.Config,
		OutDir:          opts.Out,
		CacheDir:        opts.Cache,
		JavaHome:        opts.JavaHome,
		EventsURL:       opts.EventsURL,
		SkipTests:       opts.Build.SkipTests,
		CleanCache:      opts.Clean.All,
		LogFormat:       opts.LogFormat,
		LogLevel:        opts.LogLevel,
		HealthcheckPort: opts.HealthcheckPort,
		WorkerCount:     opts.Workers,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
