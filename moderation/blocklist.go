package moderation

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/abadojack/whatlanggo"
)

//go:embed blocklists/*.txt
var blocklists embed.FS

// LoadBlocklist merges the embedded per-language block lists into one
// deduplicated slice. One file per ISO 639-1 code, one term per line,
// '#' starts a comment.
func LoadBlocklist() ([]string, []string, error) {
	var languages []string
	seen := make(map[string]struct{})
	var words []string

	entries, err := fs.ReadDir(blocklists, "blocklists")
	if err != nil {
		return nil, nil, fmt.Errorf("reading embedded blocklists: %w", err)
	}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		languages = append(languages, lang)

		f, err := blocklists.Open("blocklists/" + entry.Name())
		if err != nil {
			return nil, nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		if err := scanner.Err(); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		_ = f.Close()
	}
	return words, languages, nil
}

// DetectLanguage returns the ISO 639-1 code of the message content, or
// "" when detection is unreliable. Used for moderation telemetry only.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
