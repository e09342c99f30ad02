package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/file.txt", "file.txt"},
		{"https://example.com/file.txt?param=value", "file.txt"},
		{"https://example.com/file.txt#fragment", "file.txt"},
		{"https://example.com/file.txt?param=value#fragment", "file.txt"},
		{"https://example.com/", "example_com"},
		{"https://example.com/page/1/", "example_com_page_1"},
		{"https://example.com/page/1/?param=value#fragment", "example_com_page_1_param_value_fragment"},
		{"https://example.com/my%20file.tar.gz", "my_20file.tar.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := FilenameFromURL(tt.url); got != tt.want {
				t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFilenameFromURLTruncates(t *testing.T) {
	name := FilenameFromURL("https://example.com/" + strings.Repeat("a", 250))
	if len(name) != MaxFilenameLength {
		t.Errorf("len = %d, want %d", len(name), MaxFilenameLength)
	}
}

func TestFilenameFromURLFallback(t *testing.T) {
	if got := FilenameFromURL("https://example.com/???"); got != "example_com" {
		t.Errorf("got %q, want example_com", got)
	}
	if got := FilenameFromURL("/"); got != "download" {
		t.Errorf("got %q, want download", got)
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"http://example.com/file",
		"https://127.0.0.1:8080/a/b?c=d",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
	invalid := []string{
		"",
		"   ",
		"not a url",
		"ftp://example.com/file",
		"http://",
		"://missing-scheme",
	}
	for _, u := range invalid {
		err := ValidateURL(u)
		if err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
			continue
		}
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("ValidateURL(%q) = %v, want ErrInvalidURL", u, err)
		}
	}
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	url := "https://example.com/data.bin"

	if got := ResolveOutputPath("", url); got != "data.bin" {
		t.Errorf("empty target: got %q", got)
	}
	if got := ResolveOutputPath(dir, url); got != filepath.Join(dir, "data.bin") {
		t.Errorf("existing dir: got %q", got)
	}
	missing := filepath.Join(dir, "new") + string(os.PathSeparator)
	if got := ResolveOutputPath(missing, url); got != filepath.Join(dir, "new", "data.bin") {
		t.Errorf("trailing separator: got %q", got)
	}
	file := filepath.Join(dir, "explicit.out")
	if got := ResolveOutputPath(file, url); got != file {
		t.Errorf("file target: got %q", got)
	}
}

func TestReadURLList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# mirrors\nhttps://example.com/a\n\n  https://example.com/b  \n#https://example.com/c\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	urls, err := ReadURLList(path)
	if err != nil {
		t.Fatalf("ReadURLList: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(urls) != len(want) {
		t.Fatalf("got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	if _, err := ReadURLList(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAsTaskError(t *testing.T) {
	task := DownloadTask{URL: "https://example.com/x", OutputPath: "x"}
	te := NewTaskError(PhaseStream, task, errors.New("reset"))
	if got := AsTaskError(task, te); got != te {
		t.Error("AsTaskError should return an existing TaskError unchanged")
	}

	foreign := errors.New("boom")
	got := AsTaskError(task, foreign)
	if got.Phase != PhaseUnknown {
		t.Errorf("phase = %s, want %s", got.Phase, PhaseUnknown)
	}
	if !errors.Is(got, foreign) {
		t.Error("wrapped error should unwrap to the original")
	}
	if got.URL != task.URL || got.OutputPath != task.OutputPath {
		t.Errorf("task fields not carried: %+v", got)
	}
}
