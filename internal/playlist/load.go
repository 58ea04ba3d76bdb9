package playlist

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/satindergrewal/beatsync/internal/audio"
)

// audioExtensions are the file types picked up when scanning a directory.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".aac":  true,
}

// Load resolves a music location into tracks. location is either a directory,
// scanned recursively for audio files, or a comma separated list of files
// and http(s) URLs.
func Load(location string) ([]audio.TrackInfo, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("no music location configured")
	}

	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return scanDir(location)
	}

	var locs []string
	for _, part := range strings.Split(location, ",") {
		if part = strings.TrimSpace(part); part != "" {
			locs = append(locs, part)
		}
	}
	return tracksFor(locs), nil
}

func scanDir(dir string) ([]audio.TrackInfo, error) {
	var locs []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && audioExtensions[strings.ToLower(filepath.Ext(p))] {
			locs = append(locs, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("no audio files in %s", dir)
	}
	slices.Sort(locs)
	return tracksFor(locs), nil
}

func tracksFor(locs []string) []audio.TrackInfo {
	tracks := make([]audio.TrackInfo, len(locs))
	for i, loc := range locs {
		tracks[i] = audio.TrackInfo{
			ID:   strconv.Itoa(i + 1),
			Path: loc,
			Name: Title(loc),
		}
	}
	return tracks
}

// Title derives a display name from a path or URL: the last path segment,
// unescaped, without its extension.
func Title(loc string) string {
	name := loc
	if u, err := url.Parse(loc); err == nil && u.Scheme != "" && u.Host != "" {
		name = path.Base(u.Path)
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	} else {
		name = filepath.Base(loc)
	}
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
