package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.rules")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing rules file: %v", err)
	}
	return path
}

func TestLoadMissingFileIsPassThrough(t *testing.T) {
	t.Parallel()

	n, err := Load(filepath.Join(t.TempDir(), "absent.rules"), 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	got, err := n.Apply("hay proton")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "hay proton" {
		t.Fatalf("expected pass-through, got %q", got)
	}
}

func TestLiteralRulesFixMishearings(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# common wake phrase mishearings
hay proton => hey proton
hey protein => hey proton
angree => angry
`)
	n, err := Load(path, 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cases := map[string]string{
		"Hay Proton":            "hey proton",
		"hey protein, it's me":  "hey proton, it's me",
		"i am really angree":    "i am really angry",
		"nothing to fix in это": "nothing to fix in это",
	}
	for input, want := range cases {
		got, err := n.Apply(input)
		if err != nil {
			t.Fatalf("apply(%q) failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("apply(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSedRuleFirstMatchOnlyWithoutGlobalFlag(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `s/umm+/um/`)
	n, err := Load(path, 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, err := n.Apply("ummm well ummm")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "um well ummm" {
		t.Fatalf("expected first match only, got %q", got)
	}
}

func TestSedRuleGlobalFlagReplacesAll(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `s/\s+/ /g`)
	n, err := Load(path, 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, err := n.Apply("hey   proton\thow are  you")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "hey proton how are you" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestChainedRulesConvergeWithinPassLimit(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
hi protein => hay proton
hay proton => hey proton
`)
	n, err := Load(path, 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, err := n.Apply("hi protein")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "hey proton" {
		t.Fatalf("expected chained rewrite to converge, got %q", got)
	}
}

func TestLoadRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unsupported format":  "this line has no arrow",
		"unterminated regex":  "s/open",
		"bad flag":            "s/a/b/x",
		"empty literal source": " => something",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeRules(t, contents)
			if _, err := Load(path, 0); err == nil {
				t.Fatalf("expected parse error for %q", contents)
			}
		})
	}
}
