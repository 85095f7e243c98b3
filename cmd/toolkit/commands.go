package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/transaction-toolkit/schema"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the library version and missing operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close(ctx)

		info, err := svc.Information(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Library: %s\n", flagWasm)
		fmt.Fprintf(out, "Package version: %s\n", info.PackageVersion)
		if info.LastCommitHash != "" {
			fmt.Fprintf(out, "Last commit: %s\n", info.LastCommitHash)
		}
		if missing := svc.Missing(); len(missing) > 0 {
			fmt.Fprintf(out, "Missing operations: %s\n", joinOps(missing))
		}
		return nil
	},
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the operations and whether the library exports them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close(ctx)

		writeOperations(cmd.OutOrStdout(), svc.Missing())
		return nil
	},
}

var callCmd = &cobra.Command{
	Use:   "call <operation> [file|-]",
	Short: "Send a JSON request to an operation and print the response",
	Long: `Send a JSON request to an operation and print the response.

The request is read from file, or from stdin when file is "-". With no file
the request is an empty object. The response is printed as returned by the
library; it is indented when stdout is a terminal.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := ""
		if len(args) == 2 {
			src = args[1]
		}
		payload, err := readRequest(src, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close(ctx)

		op := schema.Operation(args[0])
		if !op.Known() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a known operation\n", op)
		}
		out, err := svc.CallRaw(ctx, string(op), payload)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out, stdoutIsTerminal())
	},
}

// readRequest returns the request body named by src: a file path, "-" for
// r, or "" for an empty object.
func readRequest(src string, r io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch src {
	case "":
		return []byte("{}"), nil
	case "-":
		data, err = io.ReadAll(r)
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("request is not valid JSON")
	}
	return data, nil
}

// writeJSON writes data followed by a newline, indented when indent is set.
func writeJSON(w io.Writer, data []byte, indent bool) error {
	if indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeOperations(w io.Writer, missing []schema.Operation) {
	absent := make(map[schema.Operation]bool, len(missing))
	for _, op := range missing {
		absent[op] = true
	}
	for _, op := range schema.Operations() {
		mark := "+"
		if absent[op] {
			mark = "-"
		}
		fmt.Fprintf(w, "%s %s\n", mark, op)
	}
}

func joinOps(ops []schema.Operation) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
