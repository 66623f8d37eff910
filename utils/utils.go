package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Commands recognized on the command line, one per pipeline mode.
var commands = []string{"generate-fingerprints", "find-duplicates", "extract-metadata"}

// ParseArguments converts command-line arguments into a map of flags and
// values, with the mode command stored under "command". A second command
// word on the line is a fatal conflict.
func ParseArguments() (map[string]string, error) {
	args := make(map[string]string)

	// First, identify the command
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		for _, c := range commands {
			if os.Args[i] == c {
				if command != "" {
					return nil, fmt.Errorf("conflicting commands: %s and %s", command, c)
				}
				command = c
				commandIndex = i
			}
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				// The next argument is the value
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args, nil
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s generate-fingerprints --src=IMAGE_DIR --dst=FINGERPRINT_DIR [options]\n", os.Args[0])
	fmt.Printf("  %s find-duplicates --src=FINGERPRINT_DIR --dst=SEARCH_DIR [options]\n", os.Args[0])
	fmt.Printf("  %s extract-metadata --src=IMAGE_DIR [options]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --src         : Source directory (images, or fingerprints for find-duplicates)\n")
	fmt.Printf("  --dst         : Destination directory (fingerprint output, or directory to search)\n")
	fmt.Printf("  --threads     : Number of worker threads (default: detected hardware concurrency)\n")
	fmt.Printf("  --fuzz        : Color fuzz tolerance in percent, 0-100 (default: 5)\n")
	fmt.Printf("  --json        : Write find-duplicates matches to FILE as JSON pairs\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: photofingerprint.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s generate-fingerprints --src=/photos --dst=/fingerprints\n", os.Args[0])
	fmt.Printf("  %s find-duplicates --src=/fingerprints --dst=/unsorted --fuzz=10 --json=dupes.json\n", os.Args[0])
}

// ParseFuzz parses and validates the fuzz tolerance percentage.
func ParseFuzz(fuzzStr string) (int, error) {
	fuzz, err := strconv.Atoi(fuzzStr)
	if err != nil || fuzz < 0 || fuzz > 100 {
		return 0, fmt.Errorf("invalid fuzz value '%s', expected 0-100", fuzzStr)
	}
	return fuzz, nil
}

// ParseThreads parses and validates the worker thread count.
func ParseThreads(threadsStr string) (int, error) {
	threads, err := strconv.Atoi(threadsStr)
	if err != nil || threads < 1 {
		return 0, fmt.Errorf("invalid thread count '%s', expected a positive integer", threadsStr)
	}
	return threads, nil
}

// ValidateDirectory verifies that a path exists and is a directory.
func ValidateDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s is not a directory", path)
		}
		return fmt.Errorf("cannot access %s: %v", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
