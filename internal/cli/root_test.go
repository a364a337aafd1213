package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/narrative"
	"github.com/sprite-ai/crev/internal/review"
	"github.com/sprite-ai/crev/internal/submission"
)

const sqlCode = `def get_user(uid):
    query = "SELECT * FROM users WHERE id = '" + uid + "'"
    return db.execute(query)
`

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "check", "watch", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(buf.String(), "crev dev") {
		t.Errorf("unexpected version output %q", buf.String())
	}
}

func inputCommand(stdin string) *cobra.Command {
	c := &cobra.Command{Use: "test"}
	addInputFlags(c)
	c.SetIn(strings.NewReader(stdin))
	return c
}

func TestReadRequestStdin(t *testing.T) {
	c := inputCommand(sqlCode)
	req, source, err := readRequest(c, []string{"-"})
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if source != "stdin" || req.Code != sqlCode || req.Patch != "" {
		t.Errorf("unexpected request %+v from %q", req, source)
	}
}

func TestReadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.py")
	if err := os.WriteFile(path, []byte(sqlCode), 0o644); err != nil {
		t.Fatal(err)
	}

	req, source, err := readRequest(inputCommand(""), []string{path})
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if source != path || req.Language != "app.py" || req.Code != sqlCode {
		t.Errorf("unexpected request %+v from %q", req, source)
	}

	c := inputCommand("")
	_ = c.Flags().Set("language", "python3")
	req, _, _ = readRequest(c, []string{path})
	if req.Language != "python3" {
		t.Errorf("--language should win, got %q", req.Language)
	}
}

func TestReadRequestPatch(t *testing.T) {
	patch := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n"
	c := inputCommand(patch)
	_ = c.Flags().Set("patch", "true")

	req, _, err := readRequest(c, nil)
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if req.Patch != patch || req.Code != "" {
		t.Errorf("expected patch input, got %+v", req)
	}
}

func TestReadRequestSinceNeedsFile(t *testing.T) {
	c := inputCommand("")
	_ = c.Flags().Set("since", "HEAD~1")
	if _, _, err := readRequest(c, nil); err == nil {
		t.Error("expected error for --since without a file")
	}
}

func checkReport(t *testing.T, code string) report {
	t.Helper()
	reviews := review.New(narrative.Disabled{}, review.DefaultOptions(), nil)
	ctx := context.Background()
	rep, err := consume(ctx, reviews.Submit(ctx, submission.Request{Code: code, Language: "python"}))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return rep
}

func TestConsumeAndExitCode(t *testing.T) {
	rep := checkReport(t, sqlCode)
	if len(rep.Results) != len(model.Categories) || rep.Summary == nil {
		t.Fatalf("incomplete report: %+v", rep)
	}
	if rep.ReviewID == "" {
		t.Error("expected review id")
	}
	if got := exitCode(rep); got != 2 {
		t.Errorf("expected exit code 2 for SQL injection, got %d", got)
	}

	if got := exitCode(checkReport(t, "")); got != 0 {
		t.Errorf("expected exit code 0 for empty code, got %d", got)
	}

	low := report{Results: []model.AnalysisResult{{
		Category: model.CategoryReadability,
		Findings: []model.Finding{{Severity: model.SeverityLow}},
	}}}
	if got := exitCode(low); got != 1 {
		t.Errorf("expected exit code 1, got %d", got)
	}
}

func TestConsumeRejected(t *testing.T) {
	reviews := review.New(nil, review.DefaultOptions(), nil)
	ctx := context.Background()
	_, err := consume(ctx, reviews.Submit(ctx, submission.Request{Code: "a\x00b"}))
	if err == nil || !strings.Contains(err.Error(), "malformed_input") {
		t.Errorf("expected malformed rejection, got %v", err)
	}
}

func TestOutputFormats(t *testing.T) {
	rep := checkReport(t, sqlCode)

	var text bytes.Buffer
	if err := outputText(&text, "app.py", rep); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"app.py: overall", "SECURITY  60/100", "app.py:2 [sql-concatenation]"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}
	if strings.Contains(text.String(), "unavailable") {
		t.Error("unavailable narratives should be omitted from text output")
	}

	var md bytes.Buffer
	if err := outputMarkdown(&md, "app.py", rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "| security | 60 |") {
		t.Errorf("markdown missing security row:\n%s", md.String())
	}

	var js bytes.Buffer
	if err := outputJSON(&js, "app.py", rep); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Results []struct {
			Category string `json:"category"`
		} `json:"results"`
		Summary struct {
			Level string `json:"level"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Results) != 3 || decoded.Results[0].Category != "security" || decoded.Summary.Level == "" {
		t.Errorf("unexpected json report: %+v", decoded)
	}
}

func TestCategoryFilter(t *testing.T) {
	if _, err := parseCategories([]string{"style"}); err == nil {
		t.Error("expected error for unknown category")
	}

	only, err := parseCategories([]string{"Readability", " performance "})
	if err != nil {
		t.Fatalf("parseCategories: %v", err)
	}
	rep := checkReport(t, sqlCode).only(only)
	if len(rep.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rep.Results))
	}
	for _, r := range rep.Results {
		if r.Category == model.CategorySecurity {
			t.Error("security result should be filtered out")
		}
	}
	if got := exitCode(rep); got == 2 {
		t.Error("filtered-out security findings should not drive the exit code")
	}
	if rep.Summary == nil {
		t.Error("summary should survive filtering")
	}

	full, _ := parseCategories(nil)
	if got := len(checkReport(t, sqlCode).only(full).Results); got != 3 {
		t.Errorf("expected all 3 results without a filter, got %d", got)
	}
}

func TestCommandContext(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	if commandContext(c) == nil {
		t.Fatal("expected a background context for a command without one")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.SetContext(ctx)
	cancel()
	if commandContext(c).Err() == nil {
		t.Error("expected the command's canceled context to be returned")
	}
}
