package meta

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Suggestion holds tag-derived defaults for the audiobook title and
// author fields. Both may be empty; the UI treats them as prefills
// only and never submits them without user confirmation.
type Suggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Probe reads the audio tags of the given file and derives defaults for
// the audiobook fields. Album is preferred over track title because a
// multi-file audiobook usually shares one album name, and album artist
// over track artist for the same reason. When the file carries no tags
// the title falls back to a cleaned-up file name.
func Probe(path string) Suggestion {
	suggestion := Suggestion{Title: fallbackTitle(path)}

	f, err := os.Open(path)
	if err != nil {
		return suggestion
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return suggestion
	}

	if album := strings.TrimSpace(m.Album()); album != "" {
		suggestion.Title = album
	} else if title := strings.TrimSpace(m.Title()); title != "" {
		suggestion.Title = title
	}

	if albumArtist := strings.TrimSpace(m.AlbumArtist()); albumArtist != "" {
		suggestion.Author = albumArtist
	} else if artist := strings.TrimSpace(m.Artist()); artist != "" {
		suggestion.Author = artist
	}

	return suggestion
}

// fallbackTitle derives a readable title from the file name.
func fallbackTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
