package model

import "fmt"

// DefaultAlbum is the album tag written for files sourced from the hosting
// platform.
const DefaultAlbum = "YouTube"

// Tag is a single key/value metadata pair in encoder naming.
type Tag struct {
	Key   string
	Value string
}

// AudioMetadata is an optional tag set passed through to the encoder
// invocation and discarded after use.
type AudioMetadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	Track       string
	Comment     string
	EncodedBy   string
}

// MetadataFromVideo derives a tag set from a fetched video snapshot.
func MetadataFromVideo(info *VideoInfo) AudioMetadata {
	return AudioMetadata{
		Title:     info.Title,
		Artist:    info.Uploader,
		Album:     DefaultAlbum,
		Genre:     DefaultAlbum,
		Comment:   fmt.Sprintf("Downloaded from YouTube: %s", info.URL),
		EncodedBy: "yt-mp3",
	}
}

// Tags returns the non-empty tags in a fixed order, using the key names the
// encoder understands.
func (m *AudioMetadata) Tags() []Tag {
	var tags []Tag
	add := func(key, value string) {
		if value != "" {
			tags = append(tags, Tag{Key: key, Value: value})
		}
	}
	add("title", m.Title)
	add("artist", m.Artist)
	add("album", m.Album)
	add("album_artist", m.AlbumArtist)
	add("genre", m.Genre)
	if m.Year > 0 {
		add("date", fmt.Sprintf("%d", m.Year))
	}
	add("track", m.Track)
	add("comment", m.Comment)
	add("encoded_by", m.EncodedBy)
	return tags
}
