// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/tensorgridgo/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating the program should exit cleanly (help/usage), or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("tensorgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
tensorgridgo - builds optimized inference engines from serialized tensor graphs.

Usage:
  tensorgridgo [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a serialized model file.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the serialized model file.")
	mFlag := flagSet.String("m", "", "Path to the serialized model file (shorthand).")
	profileFlag := flagSet.String("profile", "", "Path to an HCL build profile.")
	fp16Flag := flagSet.Bool("fp16", false, "Request half-precision mode.")
	debugFlag := flagSet.Bool("debug", false, "Enable debug instrumentation in the builder.")
	batchFlag := flagSet.Int("batch", 1, "Maximum batch size.")
	workspaceFlag := flagSet.Int64("workspace-mib", 1024, "Maximum builder workspace in MiB.")
	calibFlag := flagSet.String("calibration-cache", "", "Path to an int8 calibration cache. Supplying it requests int8 mode.")
	severityFlag := flagSet.String("severity", "warning", "Diagnostics severity threshold. Options: 'error', 'warning', 'info', 'verbose'.")
	cacheSizeFlag := flagSet.Int("engine-cache-size", 0, "Size of the in-memory engine cache. 0 disables it.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	versionFlag := flagSet.Bool("version", false, "Print IR and toolkit versions, then exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	modelPath := ""
	if *modelFlag != "" {
		modelPath = *modelFlag
	} else if *mFlag != "" {
		modelPath = *mFlag
	} else if flagSet.NArg() > 0 {
		modelPath = flagSet.Arg(0)
	}

	if modelPath == "" && !*versionFlag {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	explicit := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	config, err := app.NewConfig(app.Config{
		ModelPath:        modelPath,
		ProfilePath:      *profileFlag,
		FP16:             *fp16Flag,
		Debug:            *debugFlag,
		MaxBatchSize:     *batchFlag,
		MaxWorkspaceMiB:  *workspaceFlag,
		Severity:         strings.ToLower(*severityFlag),
		CalibrationCache: *calibFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		EngineCacheSize:  *cacheSizeFlag,
		PrintVersion:     *versionFlag,
		Explicit:         explicit,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
