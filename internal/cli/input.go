package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/crev/internal/submission"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("patch", "p", false, "treat input as a single-file unified diff")
	cmd.Flags().StringP("language", "l", "", "language hint (lexer name or filename)")
	cmd.Flags().String("since", "", "review the file's changes since a git revision, e.g. HEAD~1")
	cmd.Flags().IntP("context", "C", 3, "lines of context around changes with --since")
}

// readRequest builds a review request from the command line. A file
// argument is read as code; "-" or no argument reads stdin. It also returns
// a display name for the input.
func readRequest(cmd *cobra.Command, args []string) (submission.Request, string, error) {
	var req submission.Request
	path := ""
	if len(args) == 1 && args[0] != "-" {
		path = args[0]
	}

	since, _ := cmd.Flags().GetString("since")
	asPatch, _ := cmd.Flags().GetBool("patch")
	req.Language, _ = cmd.Flags().GetString("language")

	switch {
	case since != "":
		if path == "" {
			return req, "", fmt.Errorf("--since needs a file argument")
		}
		contextLines, _ := cmd.Flags().GetInt("context")
		raw, err := gitFileDiff(path, since, contextLines)
		if err != nil {
			return req, "", err
		}
		if strings.TrimSpace(raw) == "" {
			return req, "", fmt.Errorf("no changes to %s since %s", path, since)
		}
		req.Patch = raw
		return req, fmt.Sprintf("%s@%s", path, since), nil

	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return req, "", fmt.Errorf("reading %s: %w", path, err)
		}
		if req.Language == "" && !asPatch {
			req.Language = filepath.Base(path)
		}
		setInput(&req, string(data), asPatch)
		return req, path, nil

	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return req, "", fmt.Errorf("reading stdin: %w", err)
		}
		setInput(&req, string(data), asPatch)
		return req, "stdin", nil
	}
}

func setInput(req *submission.Request, data string, asPatch bool) {
	if asPatch {
		req.Patch = data
		return
	}
	req.Code = data
}

// gitFileDiff returns the diff of one file between rev and the working tree.
func gitFileDiff(path, rev string, contextLines int) (string, error) {
	repoDir, err := gitRepoRoot()
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	cmd := exec.Command("git", "diff", fmt.Sprintf("-U%d", contextLines), rev, "--", abs)
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return string(out), nil
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
