package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported still image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Supported audio extensions.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// DiscoverImages lists the stills directly inside dir, sorted
// lexicographically so segment order is deterministic.
func DiscoverImages(dir string) ([]string, error) {
	return discover(dir, imageExtensions)
}

// DiscoverAudio lists the audio files directly inside dir, sorted.
func DiscoverAudio(dir string) ([]string, error) {
	return discover(dir, audioExtensions)
}

func discover(dir string, exts map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if exts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// AssignImages returns n stills, repeating images cyclically when there
// are fewer images than segments and dropping the surplus otherwise.
func AssignImages(images []string, n int) []string {
	if len(images) == 0 || n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = images[i%len(images)]
	}
	return out
}
