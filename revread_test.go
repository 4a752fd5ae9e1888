package mdwatch

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func scannerLines(Te *testing.T, s string) []string {
	Te.Helper()
	var ret []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		ret = append(ret, sc.Text())
	}
	return ret
}

func reverseAll(Te *testing.T, name string) []string {
	Te.Helper()
	R, err := NewReverseReader(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	var ret []string
	for {
		l, err := R.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			Te.Fatal(err)
		}
		ret = append(ret, l)
	}
	return ret
}

func TestReverseRoundTrip(Te *testing.T) {
	long := strings.Repeat("0123456789", 1000) //longer than a block
	var many strings.Builder
	for i := 0; i < 2000; i++ {
		many.WriteString(" NSTEP =   ")
		many.WriteString(strings.Repeat("x", i%37))
		many.WriteString("\n")
	}
	cases := map[string]string{
		"empty":       "",
		"newline":     "\n",
		"one":         "one line",
		"one-nl":      "one line\n",
		"trailing":    "a\nb\nc\n",
		"no-trailing": "a\nb\nc",
		"blank-lines": "a\n\n\nb\n\n",
		"crlf":        "a\r\nb\r\n",
		"long":        "first\n" + long + "\nlast",
		"many":        many.String(),
		"many-no-nl":  strings.TrimSuffix(many.String(), "\n"),
	}
	dir := Te.TempDir()
	for name, content := range cases {
		fname := filepath.Join(dir, name)
		if err := os.WriteFile(fname, []byte(content), 0o644); err != nil {
			Te.Fatal(err)
		}
		got := reverseAll(Te, fname)
		for i, j := 0, len(got)-1; i < j; i, j = i+1, j-1 {
			got[i], got[j] = got[j], got[i]
		}
		want := scannerLines(Te, content)
		if len(got) != len(want) {
			Te.Errorf("%s: got %d lines, want %d", name, len(got), len(want))
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				Te.Errorf("%s: line %d is %q, want %q", name, i, got[i], want[i])
				break
			}
		}
	}
}

func TestScanBackLimit(Te *testing.T) {
	var b strings.Builder
	b.WriteString(" NSTEP =     500   TIME(PS) =       1.000\n")
	for i := 0; i < 200; i++ {
		b.WriteString(" ------------------------------------------------------------------------------\n")
	}
	fname := filepath.Join(Te.TempDir(), "md.out")
	if err := os.WriteFile(fname, []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
	isStep := func(s string) bool { return strings.Contains(s, "NSTEP") }
	if _, ok, err := ScanBack(fname, 150, isStep); err != nil || ok {
		Te.Errorf("the step line is 201 lines from the end, it should not be found with a limit of 150 (found: %v, err: %v)", ok, err)
	}
	line, ok, err := ScanBack(fname, 0, isStep)
	if err != nil || !ok || !strings.Contains(line, "500") {
		Te.Errorf("expected the step line without limit, got %q, %v, %v", line, ok, err)
	}
}

func TestReverseTruncated(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "md.out")
	var b strings.Builder
	for b.Len() < 3*revBlock {
		b.WriteString(" NSTEP =      500   TIME(PS) =    1001.000\n")
	}
	if err := os.WriteFile(name, []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
	R, err := NewReverseReader(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	//a restart overwrites the report while we read it.
	if err := os.Truncate(name, 100); err != nil {
		Te.Fatal(err)
	}
	for {
		l, err := R.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			Te.Fatal(err)
		}
		if strings.ContainsRune(l, 0) {
			Te.Fatalf("a line with bytes that were never in the file: %q", l)
		}
	}
	if err := os.Truncate(name, 0); err != nil {
		Te.Fatal(err)
	}
	if l := reverseAll(Te, name); len(l) != 0 {
		Te.Errorf("an empty file has no lines, got %q", l)
	}
}

func TestReverseReaderMissing(Te *testing.T) {
	_, err := NewReverseReader(filepath.Join(Te.TempDir(), "nope"))
	if !errors.Is(err, ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
}
