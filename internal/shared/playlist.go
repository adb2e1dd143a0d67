package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	playlistURLPattern = regexp.MustCompile(`playlist/([a-zA-Z0-9]+)`)
	playlistURIPattern = regexp.MustCompile(`^spotify:playlist:([a-zA-Z0-9]+)$`)
	bareIDPattern      = regexp.MustCompile(`^[a-zA-Z0-9]{22}$`)
)

// ParsePlaylistID extracts the playlist id from a share URL (".../playlist/<id>?si=..."),
// a "spotify:playlist:<id>" URI, or a bare 22 character base62 id.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: playlist reference is empty", ErrInvalidInput)
	}

	if m := playlistURIPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}

	if m := playlistURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}

	if bareIDPattern.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: invalid playlist URL %q", ErrInvalidInput, ref)
}
