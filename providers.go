/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/llm"
	"github.com/Seednode/hitbox/internal/narration"
	"github.com/Seednode/hitbox/internal/songs"
)

// minSuggestedSongs is the shortest suggestion list accepted before falling
// back to the catalog.
const minSuggestedSongs = 10

// searchTimeout bounds a single preview lookup.
const searchTimeout = 5 * time.Second

func newCompleter(cfg *Config, logger *zap.Logger) llm.Completer {
	if a := llm.NewAnthropic(cfg.anthropicAPIKey, cfg.anthropicModel, logger.Named("llm")); a != nil {
		return a
	}

	return nil
}

func newSongProvider(cfg *Config, completer llm.Completer, logger *zap.Logger) (songs.Provider, error) {
	catalog, err := songs.LoadCatalog(cfg.catalog,
		songs.WithSize(cfg.catalogSize),
		songs.WithCatalogLogger(logger.Named("catalog")),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("START: song catalog loaded", zap.Int("songs", catalog.Len()), zap.String("path", cfg.catalog))

	var provider songs.Provider = catalog
	if completer == nil {
		logger.Info("START: no api key set, songs come from the catalog only")
	} else {
		provider = &songs.Fallback{
			Primary:   songs.NewSuggester(completer, logger.Named("suggest")),
			Secondary: catalog,
			MinSongs:  minSuggestedSongs,
			Logger:    logger,
		}
	}

	if !cfg.previewLookup {
		logger.Info("START: preview lookup disabled, songs play without audio unless the catalog has it")

		return provider, nil
	}

	return &songs.Resolver{
		Provider:  provider,
		SearchURL: cfg.searchURL,
		Country:   cfg.searchCountry,
		MinSongs:  minSuggestedSongs,
		Client:    &http.Client{Timeout: searchTimeout},
		Logger:    logger.Named("resolve"),
	}, nil
}

func newNarrator(cfg *Config, completer llm.Completer, logger *zap.Logger) narration.Narrator {
	switch cfg.narration {
	case narrationOff:
		return narration.Nop{}
	case narrationLLM:
		if completer != nil {
			return narration.NewLLM(completer, logger.Named("narration"))
		}

		logger.Warn("START: llm narration needs an api key, using templates")
	}

	return narration.Templates{}
}
