/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"
	"os"
)

//go:embed words.json
var defaultWords []byte

// seedWordCatalog makes sure the "Current" word list exists and is non-empty
// before any game can start. An already-populated catalog is left alone so
// curated lists survive restarts; otherwise the list from --words-file (or
// the embedded default) is stored.
func seedWordCatalog(ctx context.Context, cfg *Config, store Store) error {
	list, err := store.WordList(ctx, currentWordList)
	if err != nil && !errors.Is(err, ErrWordListNotFound) {
		return err
	}

	if list != nil && len(list.Words) > 0 {
		logf(cfg, "WORDS: Current word list already present (%d pairs)", len(list.Words))
		return nil
	}

	raw := defaultWords
	source := "embedded defaults"

	if cfg.wordsFile != "" {
		raw, err = os.ReadFile(cfg.wordsFile)
		if err != nil {
			return fmt.Errorf("failed to read words file: %w", err)
		}
		source = cfg.wordsFile
	}

	var words []WordPair
	if err := json.Unmarshal(raw, &words); err != nil {
		return fmt.Errorf("failed to parse word list: %w", err)
	}
	if len(words) == 0 {
		return errors.New("word list is empty")
	}

	if err := store.SaveWordList(ctx, &WordList{Name: currentWordList, Words: words}); err != nil {
		return err
	}

	logf(cfg, "WORDS: Seeded current word list from %s (%d pairs)", source, len(words))

	return nil
}
