package i18n

// berneseGermanMessages contains all Bernese Swiss German (Bärndütsch) translations
var berneseGermanMessages = map[string]string{
	// Error messages
	"error.generic":               "Öppis isch schief gloffe. Probier's haut nomau, bitte.",
	"error.auth":                  "Dini Spotify-Aamäudig isch abgloffe. Bitte mäud di nomau aa.",
	"error.rate_limited":          "Spotify het grad z'viu z'tüe. Lade isch pausiert, probier's gli nomau.",
	"error.network":               "Ha Spotify nid chönne erreiche. Lueg mau dini Verbindig aa.",
	"error.load_failed":           "Ha dini Lieder nid chönne lade.",
	"error.remove_failed":         "Ha %s nid chönne useneh. D Charte isch übersprunge worde.",
	"error.revert_failed":         "Es paar Lieder hei nid chönne zrüggholt wärde.",
	"error.no_card":               "Es het kener Charte meh.",
	"error.no_preview":            "Für das Lied git's ke Vorschou.",
	"error.playlist.not_found":    "Die Playlist isch nid i dire Bibliothek.",
	"error.playlist.not_sortable": "Nume eigeti Playlists mit Lieder chöi sortiert wärde.",
	"error.playlist.invalid_link": "Das gseht nid us wie ne Spotify-Playlist-Link.",
	"error.too_fast":              "Nid so schnäu! Z'viu Lieder ufs Mau usegno.",
	"error.invalid_request":       "D Aafrag isch nid verständlich.",

	// Success messages
	"success.removed_saved":    "Us de Lieblingslieder gnoh: %s",
	"success.removed_playlist": "Us %s gnoh: %s",
	"success.reverted":         "%d Lieder zrüggholt.",
	"success.undo":             "E Charte zrügg.",
	"success.deck_complete":    "Fertig! Aui Lieder sy aagluegt.",
	"success.mode_saved":       "Sortiere dini Lieblingslieder.",
	"success.mode_playlist":    "Sortiere %s.",

	// Status messages
	"status.loading":     "Lade dini Lieder...",
	"status.paused":      "Lade isch pausiert. Wiiter swipe probiert's nomau.",
	"status.duplicates":  "%d Lieder chöme i dere Playlist mehrmaus vor.",
	"status.no_history":  "No nüt usegno.",
	"status.no_playlist": "Du hesch kener Playlists, wo sortiert chöi wärde.",

	// Format helpers
	"format.track":    "%s - %s",
	"format.playlist": "%s (%d Lieder)",
	"format.removal":  "%s  %s  %s",
}
