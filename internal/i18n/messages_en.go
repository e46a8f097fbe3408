package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Error messages
	"error.generic":               "Something went wrong. Please try again.",
	"error.auth":                  "Your Spotify session has expired. Please sign in again.",
	"error.rate_limited":          "Spotify is busy right now. Loading paused, try again in a moment.",
	"error.network":               "Couldn't reach Spotify. Check your connection.",
	"error.load_failed":           "Couldn't load your tracks.",
	"error.remove_failed":         "Couldn't remove %s. The card was skipped.",
	"error.revert_failed":         "Some tracks could not be restored.",
	"error.no_card":               "There are no cards left.",
	"error.no_preview":            "No preview available for this track.",
	"error.playlist.not_found":    "That playlist isn't in your library.",
	"error.playlist.not_sortable": "Only your own playlists with tracks can be sorted.",
	"error.playlist.invalid_link": "That doesn't look like a Spotify playlist link.",
	"error.too_fast":              "Slow down! Too many removals in a short time.",
	"error.invalid_request":       "The request could not be understood.",

	// Success messages
	"success.removed_saved":    "Removed from Liked Songs: %s",
	"success.removed_playlist": "Removed from %s: %s",
	"success.reverted":         "Restored %d tracks.",
	"success.undo":             "Back one card.",
	"success.deck_complete":    "All done! Every track has been reviewed.",
	"success.mode_saved":       "Sorting your Liked Songs.",
	"success.mode_playlist":    "Sorting %s.",

	// Status messages
	"status.loading":     "Loading your tracks...",
	"status.paused":      "Loading paused. Keep swiping to retry.",
	"status.duplicates":  "%d tracks appear more than once in this playlist.",
	"status.no_history":  "Nothing removed yet.",
	"status.no_playlist": "You have no playlists that can be sorted.",

	// Format helpers
	"format.track":    "%s - %s",
	"format.playlist": "%s (%d tracks)",
	"format.removal":  "%s  %s  %s",
}
