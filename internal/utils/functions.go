package utils

import (
	"bufio"
	"fmt"
	u "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func NewTaskID() string {
	return uuid.NewString()
}

func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := u.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidURL, parsed.Scheme, rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// FilenameFromURL derives a local file name from the last path segment of
// rawURL. URLs ending in "/" fall back to the host and path joined with "_".
func FilenameFromURL(rawURL string) string {
	clean := queryFragmentRegex.ReplaceAllString(rawURL, "")
	base := clean[strings.LastIndex(clean, "/")+1:]
	special := nameSpecialRegex
	if base == "" {
		base = rawURL
		if _, rest, found := strings.Cut(rawURL, "://"); found {
			base = rest
		}
		special = hostSpecialRegex
	}
	name := strings.Trim(special.ReplaceAllString(base, "_"), "_")
	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	if name == "" {
		return "download"
	}
	return name
}

// ResolveOutputPath returns target when it names a file, or target joined
// with the derived file name when it is empty or an existing directory.
func ResolveOutputPath(target, rawURL string) string {
	if target == "" {
		return FilenameFromURL(rawURL)
	}
	if strings.HasSuffix(target, string(os.PathSeparator)) {
		return filepath.Join(target, FilenameFromURL(rawURL))
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, FilenameFromURL(rawURL))
	}
	return target
}

// ReadURLList reads one URL per non-blank line, skipping "#" comments.
func ReadURLList(filePath string) ([]string, error) {
	log := GetLogger("config")
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening URL list: %w", err)
	}
	defer f.Close()
	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading URL list: %w", err)
	}
	log.Debug().Int("count", len(urls)).Str("file", filePath).Msg("URLs loaded from list")
	return urls, nil
}
