package subtitle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open reads a caption file into words. The format is taken from the
// extension: .srt, .vtt or .json.
func Open(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return SRTToWords(string(data)), nil
	case ".vtt":
		return VTTToWords(bytes.NewReader(data))
	case ".json":
		return WordsFromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported caption format: %s", ext)
	}
}
