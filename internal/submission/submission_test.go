package submission

import (
	"errors"
	"strings"
	"testing"

	"github.com/sprite-ai/crev/internal/model"
)

const singleFilePatch = `diff --git a/app.py b/app.py
index abc1234..def5678 100644
--- a/app.py
+++ b/app.py
@@ -1,4 +1,5 @@
 import db
 import os
-def get_user(uid):
+def get_user(uid):
+    query = "SELECT * FROM users WHERE id = '" + uid + "'"
     return db.run(query)
`

const twoFilePatch = `diff --git a/a.go b/a.go
index abc1234..def5678 100644
--- a/a.go
+++ b/a.go
@@ -1 +1 @@
-package a
+package b
diff --git a/b.go b/b.go
index abc1234..def5678 100644
--- a/b.go
+++ b/b.go
@@ -1 +1 @@
-package a
+package b
`

func TestFromPatch(t *testing.T) {
	sub, err := FromPatch(singleFilePatch)
	if err != nil {
		t.Fatalf("FromPatch failed: %v", err)
	}
	if sub.Language != "app.py" {
		t.Errorf("expected language hint app.py, got %q", sub.Language)
	}

	want := "import db\nimport os\ndef get_user(uid):\n    query = \"SELECT * FROM users WHERE id = '\" + uid + \"'\"\n    return db.run(query)\n"
	if sub.Code != want {
		t.Errorf("unexpected code:\n%s\nwant:\n%s", sub.Code, want)
	}
}

func TestFromPatchRejectsMultipleFiles(t *testing.T) {
	_, err := FromPatch(twoFilePatch)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 files") {
		t.Errorf("expected file count in error, got %q", err)
	}
}

func TestFromPatchRejectsEmptyPatch(t *testing.T) {
	if _, err := FromPatch("just some text\n"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		max     int
		wantErr bool
	}{
		{"empty", "", 10, false},
		{"plain", "x = 1\n", 10, false},
		{"unlimited", strings.Repeat("a", 1000), 0, false},
		{"too large", strings.Repeat("a", 11), 10, true},
		{"invalid utf8", "x = \xff\xfe", 0, true},
		{"nul byte", "ELF\x00\x01", 0, true},
	}
	for _, tt := range tests {
		err := Validate(model.Submission{Code: tt.code}, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
		}
	}
}

func TestRequestResolve(t *testing.T) {
	sub, err := Request{Patch: singleFilePatch, Language: "python"}.Resolve(DefaultMaxBytes)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sub.Language != "python" {
		t.Errorf("explicit language should override the patch file name, got %q", sub.Language)
	}
	if !strings.Contains(sub.Code, "SELECT") {
		t.Errorf("expected patched code, got %q", sub.Code)
	}

	sub, err = Request{Code: "print(1)"}.Resolve(DefaultMaxBytes)
	if err != nil || sub.Code != "print(1)" {
		t.Errorf("plain request: got %+v, %v", sub, err)
	}

	if _, err := (Request{Patch: singleFilePatch}).Resolve(10); !errors.Is(err, ErrMalformed) {
		t.Errorf("oversized patch: expected ErrMalformed, got %v", err)
	}
}
