package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SubRip format, one block per word
type SRTWriter struct{}

// word array as JSON
type JSONWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{Group: DefaultGroupOptions()}, nil
	case FormatASS:
		return NewASSWriter(PresetBottom), nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// writes the words to an SRT file
func (w *SRTWriter) Write(words []Word, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(WordsToSRT(words)), 0644)
}

// writes the words to a JSON file
func (w *JSONWriter) Write(words []Word, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := WordsToJSON(words)
	if err != nil {
		return fmt.Errorf("failed to encode words: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatSRT, FormatVTT, FormatASS, FormatJSON:
		return f, nil
	case "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, ass, or json", s)
	}
}

// caption format based on file extension
func GetFormatFromExtension(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatSRT
	}
	return f
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT, FormatVTT, FormatASS, FormatJSON:
		return "." + string(format)
	default:
		return ".srt"
	}
}

// MIME type used when serving a format over HTTP
func ContentType(format Format) string {
	switch format {
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatASS:
		return "text/x-ssa; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "application/x-subrip; charset=utf-8"
	}
}
