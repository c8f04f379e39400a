package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"threadscraper/pkg/models"
)

// Color functions for terminal output
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Red    = colorize("\033[31m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
	Dim    = colorize("\033[2m%s\033[0m")
)

var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

var quiet bool

// SetQuiet suppresses all non-error console output.
func SetQuiet(q bool) {
	quiet = q
}

// colorize returns a function that wraps text with ANSI color codes when
// stdout is a terminal, and passes it through otherwise.
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintError prints an error message in red. Errors print even in quiet
// mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a labeled value
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintSummary prints the run outcome: what was collected, what was
// skipped, and where the export landed.
func PrintSummary(result *models.Result, exportPath string) {
	if quiet {
		return
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Scraped @%s", result.Username))
	PrintInfo("New reposts", fmt.Sprintf("%d", result.NewCount))
	if result.DuplicateCount > 0 {
		PrintInfo("Already exported", fmt.Sprintf("%d", result.DuplicateCount))
	}
	if failed := result.FailedCount(); failed > 0 {
		PrintWarning(fmt.Sprintf("%d post(s) were deleted or unreadable", failed))
	}
	if oldest, newest, ok := result.DateRange(); ok {
		PrintInfo("Date range", fmt.Sprintf("%s to %s",
			oldest.Format("2006-01-02"), newest.Format("2006-01-02")))
	}
	if len(result.Errors) > 0 {
		PrintWarning(fmt.Sprintf("%d error(s) during the run; see the export footer", len(result.Errors)))
	}
	if exportPath != "" {
		PrintInfo("Export", exportPath)
	}
}
