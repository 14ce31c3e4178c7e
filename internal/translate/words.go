package translate

import (
	"context"
	"fmt"

	"github.com/mgpai22/capgen/internal/subtitle"
)

// TranslateWords groups words into caption cues, translates the cue texts
// and spreads each translation evenly back over its cue's time range. Word
// boundaries inside a cue are therefore approximate after translation.
func TranslateWords(
	ctx context.Context,
	tr ConcurrentTranslator,
	words []subtitle.Word,
	group subtitle.GroupOptions,
	concurrency int,
) ([]subtitle.Word, error) {
	cues := subtitle.Group(words, group)
	if len(cues) == 0 {
		return []subtitle.Word{}, nil
	}

	items := make([]TranslationItem, len(cues))
	for i, cue := range cues {
		items[i] = TranslationItem{Index: i, Text: cue.Text()}
	}

	results, err := tr.TranslateWithConcurrency(ctx, items, concurrency)
	if err != nil {
		return nil, err
	}

	translated := make(map[int]string, len(results))
	for _, r := range results {
		translated[r.Index] = r.Text
	}

	out := make([]subtitle.Word, 0, len(words))
	for i, cue := range cues {
		text, ok := translated[i]
		if !ok {
			return nil, fmt.Errorf("missing translation for cue %d", i)
		}
		split := subtitle.Split(text, cue.Start, cue.End)
		if len(split) == 0 {
			// model returned nothing for this cue, keep the source words
			split = cue.Words
		}
		out = append(out, split...)
	}
	return out, nil
}
