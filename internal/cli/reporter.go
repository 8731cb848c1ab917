package cli

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

// ReportError writes err to stderr. Aggregated errors are listed one by one
// with their location and suggestions; verbose output adds context and the
// cause chain.
func (d *DiagnosticSystem) ReportError(title string, err error) {
	if d.level < DiagnosticError || err == nil {
		return
	}

	var list []error
	var multiple *errors.MultipleErrors
	if stderrors.As(err, &multiple) {
		list = multiple.UnwrapAll()
	} else {
		list = []error{err}
	}

	color.New(color.FgRed, color.Bold).Fprintf(d.errorOut, "\n%s (%d %s)\n", title, len(list), plural(len(list), "error"))
	for _, each := range list {
		d.reportOne(each)
	}
	fmt.Fprintln(d.errorOut)
}

func (d *DiagnosticSystem) reportOne(err error) {
	var anchorErr errors.AnchorError
	if !stderrors.As(err, &anchorErr) {
		fmt.Fprintf(d.errorOut, "  %s %s\n", color.RedString("✗"), err.Error())
		return
	}

	code := anchorErr.ErrorCode().String()
	fmt.Fprintf(d.errorOut, "  %s %s %s\n", color.RedString("✗"), color.New(color.Bold).Sprint(code), err.Error())

	for i, suggestion := range anchorErr.Suggestions() {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(d.errorOut, "      %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(d.errorOut, "         %s\n", line)
			}
		}
	}

	if d.level < DiagnosticVerbose {
		return
	}
	if context := anchorErr.Context(); len(context) > 0 {
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(d.errorOut, "      %s: %v\n", formatContextKey(key), context[key])
		}
	}
	level := 1
	for cause := anchorErr.Unwrap(); cause != nil; cause = stderrors.Unwrap(cause) {
		fmt.Fprintf(d.errorOut, "      caused by (%d): %s\n", level, cause.Error())
		level++
	}
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
