package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"photofingerprint/fingerprint"
	"photofingerprint/logging"
	"photofingerprint/signalhandler"
	"photofingerprint/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	// Set the optimal number of CPUs to use
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args, err := utils.ParseArguments()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		utils.PrintUsage()
		os.Exit(1)
	}

	command, hasCommand := args["command"]
	if !hasCommand {
		utils.PrintUsage()
		os.Exit(1)
	}

	// Setup debug logging if enabled
	debugMode := false
	if _, ok := args["debug"]; ok {
		debugMode = true
		logPath := "photofingerprint.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
		defer logging.CloseLogger()
	}

	options, err := buildOptions(command, args, debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		utils.PrintUsage()
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Using %d threads of maximum %d\n", options.NumThreads, runtime.NumCPU())

	startTime := time.Now()
	if err := fingerprint.Run(options); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if debugMode {
		logging.DebugLog("%s completed in %v", command, time.Since(startTime))
	}
}

// buildOptions validates the parsed arguments for the selected mode. Any
// failure here is fatal and happens before a single directory is walked.
func buildOptions(command string, args map[string]string, debugMode bool) (fingerprint.WorkerOptions, error) {
	options := fingerprint.WorkerOptions{
		NumThreads: signalhandler.GetOptimalProcs(),
		FuzzFactor: fingerprint.DefaultFuzzFactor,
		DebugMode:  debugMode,
	}

	switch command {
	case "generate-fingerprints":
		options.Mode = fingerprint.ModeGenerate
	case "find-duplicates":
		options.Mode = fingerprint.ModeFindDuplicates
	case "extract-metadata":
		options.Mode = fingerprint.ModeExtractMetadata
	default:
		return options, fmt.Errorf("unknown command: %s", command)
	}

	src, ok := args["src"]
	if !ok || src == "" {
		return options, fmt.Errorf("missing source directory (use --src=PATH)")
	}
	if err := utils.ValidateDirectory(src); err != nil {
		return options, err
	}
	options.SrcDirectory = src

	// Generate and find-duplicates need a second directory
	if options.Mode != fingerprint.ModeExtractMetadata {
		dst, ok := args["dst"]
		if !ok || dst == "" {
			return options, fmt.Errorf("missing destination directory (use --dst=PATH)")
		}
		if err := utils.ValidateDirectory(dst); err != nil {
			return options, err
		}
		options.DstDirectory = dst
	}

	if threadsStr, ok := args["threads"]; ok {
		threads, err := utils.ParseThreads(threadsStr)
		if err != nil {
			return options, err
		}
		options.NumThreads = threads
	}

	if fuzzStr, ok := args["fuzz"]; ok {
		fuzz, err := utils.ParseFuzz(fuzzStr)
		if err != nil {
			return options, err
		}
		options.FuzzFactor = fuzz
	}

	if options.Mode == fingerprint.ModeFindDuplicates {
		options.JSONPath = args["json"]
	}

	return options, nil
}
