package model

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
		{-3, "0:00"},
	}

	for _, test := range tests {
		result := FormatDuration(test.seconds)
		if result != test.expected {
			t.Errorf("FormatDuration(%d) = %s, expected %s", test.seconds, result, test.expected)
		}
	}
}

func TestVideoInfo_DurationString(t *testing.T) {
	info := &VideoInfo{Title: "Test", Duration: 212}
	if got := info.DurationString(); got != "3:32" {
		t.Errorf("DurationString() = %s, expected 3:32", got)
	}
}

func TestMetadataFromVideo(t *testing.T) {
	info := &VideoInfo{
		Title:    "Some Song",
		URL:      "https://www.youtube.com/watch?v=abc12345678",
		Uploader: "Some Channel",
	}

	meta := MetadataFromVideo(info)

	if meta.Title != "Some Song" {
		t.Errorf("Expected title 'Some Song', got '%s'", meta.Title)
	}
	if meta.Artist != "Some Channel" {
		t.Errorf("Expected artist 'Some Channel', got '%s'", meta.Artist)
	}
	if meta.Album != DefaultAlbum {
		t.Errorf("Expected album '%s', got '%s'", DefaultAlbum, meta.Album)
	}
}

func TestAudioMetadata_Tags(t *testing.T) {
	meta := AudioMetadata{
		Title:  "Song",
		Artist: "Channel",
		Album:  "YouTube",
		Year:   2024,
	}

	tags := meta.Tags()
	if len(tags) != 4 {
		t.Fatalf("Expected 4 tags, got %d", len(tags))
	}

	// Order is fixed: title, artist, album, date.
	expected := []Tag{
		{Key: "title", Value: "Song"},
		{Key: "artist", Value: "Channel"},
		{Key: "album", Value: "YouTube"},
		{Key: "date", Value: "2024"},
	}
	for i, want := range expected {
		if tags[i] != want {
			t.Errorf("Tags()[%d] = %+v, expected %+v", i, tags[i], want)
		}
	}
}

func TestAudioMetadata_TagsEmpty(t *testing.T) {
	var meta AudioMetadata
	if tags := meta.Tags(); len(tags) != 0 {
		t.Errorf("Expected no tags for empty metadata, got %d", len(tags))
	}
}
