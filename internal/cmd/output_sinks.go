package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/output"
)

// outputSink is where a command writes its rendered output. path is "-" for
// stdout.
type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFilename turns free text such as a query into a file name stem.
func sanitizeFilename(value string) string {
	name := unsafeFilenameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	if name = strings.Trim(name, "-."); name != "" {
		return name
	}
	return "output"
}

// addOutputTargetFlags registers --out and --out-dir on cmd.
func addOutputTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "Write output to a file (default stdout)")
	cmd.Flags().String("out-dir", "", "Write output to a directory with a generated file name")
}

// resolveSink opens the destination chosen by --out or --out-dir. Inside
// --out-dir the file is named after stem with the format's extension.
func resolveSink(cmd *cobra.Command, format output.Format, stem string) (*outputSink, error) {
	file, _ := cmd.Flags().GetString("out")
	dir, _ := cmd.Flags().GetString("out-dir")
	file, dir = strings.TrimSpace(file), strings.TrimSpace(dir)

	switch {
	case file != "" && dir != "":
		return nil, fmt.Errorf("--out and --out-dir are mutually exclusive")
	case dir != "":
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
		file = filepath.Join(abs, sanitizeFilename(stem)+"."+format.Extension())
	}
	return openSink(file, cmd.OutOrStdout())
}

func openSink(path string, stdout io.Writer) (*outputSink, error) {
	if path == "" || path == "-" {
		return &outputSink{writer: stdout, close: func() error { return nil }, path: "-"}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &outputSink{writer: f, close: f.Close, path: path}, nil
}
