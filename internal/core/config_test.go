package core

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.App.Language != DefaultLanguage {
		t.Errorf("Expected default language to be %s, got %s", DefaultLanguage, config.App.Language)
	}

	if config.Deck.WarmStartTarget != DefaultWarmStartTarget {
		t.Errorf("Expected warm start target %d, got %d", DefaultWarmStartTarget, config.Deck.WarmStartTarget)
	}

	if config.Deck.TopUpThreshold != 5 {
		t.Errorf("Expected top-up threshold 5, got %d", config.Deck.TopUpThreshold)
	}

	if config.Store.Debounce != DefaultPersistDebounce {
		t.Errorf("Expected debounce %v, got %v", DefaultPersistDebounce, config.Store.Debounce)
	}

	if config.Server.RemovalsPerMinute != DefaultRemovalsPerMinute {
		t.Errorf("Expected removal cap %d, got %d", DefaultRemovalsPerMinute, config.Server.RemovalsPerMinute)
	}

	if config.App.Mode != "saved" {
		t.Errorf("Expected default mode saved, got %s", config.App.Mode)
	}
}

func TestConfigConstants(t *testing.T) {
	if DefaultPreviewTimeout >= DefaultRequestTimeout {
		t.Error("Preview timeout should be shorter than the total request timeout")
	}

	if DefaultServerPort <= 0 || DefaultServerPort > 65535 {
		t.Error("DefaultServerPort should be a valid port number")
	}

	if MaxHistory != 500 {
		t.Errorf("MaxHistory should be 500, got %d", MaxHistory)
	}
}
