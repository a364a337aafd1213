// Package submission turns raw request input into a validated
// model.Submission: plain code, or the new side of a single-file patch.
package submission

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/sprite-ai/crev/internal/model"
)

// ErrMalformed is returned for input that cannot be reviewed as text.
var ErrMalformed = errors.New("malformed input")

// DefaultMaxBytes is the submission size limit when none is configured.
const DefaultMaxBytes = 256 << 10

// Request is the wire form of a review request. Patch, when set, takes
// precedence over Code.
type Request struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Patch    string `json:"patch,omitempty"`
}

// Resolve converts a request into a validated submission.
func (r Request) Resolve(maxBytes int) (model.Submission, error) {
	sub := model.Submission{Code: r.Code, Language: r.Language}
	if r.Patch != "" {
		if err := checkSize(len(r.Patch), maxBytes); err != nil {
			return model.Submission{}, err
		}
		var err error
		sub, err = FromPatch(r.Patch)
		if err != nil {
			return model.Submission{}, err
		}
		if r.Language != "" {
			sub.Language = r.Language
		}
	}
	if err := Validate(sub, maxBytes); err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

// Validate rejects submissions that are too large or are not text. Empty
// code is valid.
func Validate(sub model.Submission, maxBytes int) error {
	if err := checkSize(len(sub.Code), maxBytes); err != nil {
		return err
	}
	if !utf8.ValidString(sub.Code) {
		return fmt.Errorf("%w: submission is not valid UTF-8 text", ErrMalformed)
	}
	if strings.IndexByte(sub.Code, 0) >= 0 {
		return fmt.Errorf("%w: submission contains NUL bytes", ErrMalformed)
	}
	return nil
}

func checkSize(n, maxBytes int) error {
	if maxBytes > 0 && n > maxBytes {
		return fmt.Errorf("%w: submission is %d bytes, limit is %d", ErrMalformed, n, maxBytes)
	}
	return nil
}

// FromPatch extracts the post-change text of the single file a unified diff
// touches: added and context lines, in order. The file name becomes the
// language hint.
func FromPatch(patch string) (model.Submission, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return model.Submission{}, fmt.Errorf("%w: parsing patch: %v", ErrMalformed, err)
	}

	switch {
	case len(files) == 0:
		return model.Submission{}, fmt.Errorf("%w: patch contains no file changes", ErrMalformed)
	case len(files) > 1:
		return model.Submission{}, fmt.Errorf("%w: patch touches %d files, only one is reviewed at a time", ErrMalformed, len(files))
	}

	f := files[0]
	switch {
	case f.IsBinary:
		return model.Submission{}, fmt.Errorf("%w: patch changes a binary file", ErrMalformed)
	case f.IsDelete:
		return model.Submission{}, fmt.Errorf("%w: patch deletes %s", ErrMalformed, f.OldName)
	}

	var b strings.Builder
	for _, frag := range f.TextFragments {
		for _, line := range frag.Lines {
			if line.Op == gitdiff.OpDelete {
				continue
			}
			b.WriteString(line.Line)
		}
	}

	name := f.NewName
	if name == "" {
		name = f.OldName
	}
	return model.Submission{Code: b.String(), Language: name}, nil
}
