package media

import "fmt"

// Kind identifies the remote provider a media item comes from.
// The string form doubles as the cache subdirectory and the history key.
type Kind string

const (
	KindYouTube    Kind = "youtube"
	KindSoundCloud Kind = "soundcloud"
)

// Kinds lists every supported provider in a stable order.
var Kinds = []Kind{KindYouTube, KindSoundCloud}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindYouTube, KindSoundCloud:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// Color is the accent colour used when rendering items of this kind.
func (k Kind) Color() int {
	switch k {
	case KindYouTube:
		return 0xFF0000
	case KindSoundCloud:
		return 0xF26F23
	default:
		return 0x9F7FED
	}
}
