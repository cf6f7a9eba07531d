package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UploadResult is the JSON body returned by /ingest.
type UploadResult struct {
	Message         string `json:"message"`
	ProcessedTracks int    `json:"processed_tracks"`
	TotalTracks     int    `json:"total_tracks"`
}

// Validate checks the track counts are non-negative and processed never exceeds total.
func (u UploadResult) Validate() error {
	if u.ProcessedTracks < 0 || u.TotalTracks < 0 {
		return fmt.Errorf("track counts must not be negative")
	}
	if u.ProcessedTracks > u.TotalTracks {
		return fmt.Errorf("processed tracks (%d) exceed total tracks (%d)", u.ProcessedTracks, u.TotalTracks)
	}
	return nil
}

// Summary is the one-line human readable form shown after an upload.
func (u UploadResult) Summary() string {
	return fmt.Sprintf("Successfully processed %d out of %d tracks", u.ProcessedTracks, u.TotalTracks)
}

// Bucket is one label of a distribution with its count.
type Bucket struct {
	Label string
	Count int
}

// Distribution is a label to count mapping that keeps the order the server sent.
type Distribution []Bucket

// UnmarshalJSON decodes a JSON object, keeping key order.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("distribution must be a JSON object")
	}

	buckets := Distribution{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("distribution key must be a string")
		}

		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("distribution count for %q: %w", label, err)
		}
		buckets = append(buckets, Bucket{Label: label, Count: count})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = buckets
	return nil
}

// MarshalJSON encodes the distribution as a JSON object in its stored order.
func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", b.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the count for label.
func (d Distribution) Get(label string) (int, bool) {
	for _, b := range d {
		if b.Label == label {
			return b.Count, true
		}
	}
	return 0, false
}

// Labels returns labels in server order.
func (d Distribution) Labels() []string {
	labels := make([]string, len(d))
	for i, b := range d {
		labels[i] = b.Label
	}
	return labels
}

// ArtistCount is one ranked entry of the top artists list.
type ArtistCount struct {
	Artist string `json:"artist"`
	Count  int    `json:"count"`
}

// LibraryStats is the JSON body returned by /stats.
//
// Distribution sums need not equal TotalTracks; TotalTracks is only used as the bar denominator.
type LibraryStats struct {
	TotalTracks int           `json:"total_tracks"`
	Genres      Distribution  `json:"genres"`
	Moods       Distribution  `json:"moods"`
	TopArtists  []ArtistCount `json:"top_artists"`
}

// Share returns count as a fraction of the library size.
func (s LibraryStats) Share(count int) float64 {
	return Fraction(count, s.TotalTracks)
}

// TopArtistsN returns the first n ranked artists without re-sorting.
func (s LibraryStats) TopArtistsN(n int) []ArtistCount {
	if n < 0 || len(s.TopArtists) <= n {
		return s.TopArtists
	}
	return s.TopArtists[:n]
}

// Fraction returns count/total, or 0 when total is not positive.
func Fraction(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// HealthStatus is the JSON body returned by the backend root endpoint.
type HealthStatus struct {
	Message string `json:"message"`
}
