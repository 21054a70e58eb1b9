package session

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
)

// Word pools for session IDs. Three short words are memorable enough to
// read over a call and the pool is large enough that collisions are not a
// practical concern for a relay holding a handful of live sessions.
var adjectives = []string{
	"amber", "brisk", "calm", "dusty", "eager", "fuzzy", "gentle", "hazy",
	"ivory", "jolly", "keen", "lively", "mellow", "nimble", "oaken", "plucky",
	"quiet", "rosy", "snug", "tidy", "umber", "vivid", "warm", "zesty",
}

var nouns = []string{
	"badger", "comet", "dune", "ember", "fjord", "grove", "harbor", "inlet",
	"jetty", "knoll", "lagoon", "meadow", "nebula", "orchid", "prairie",
	"quartz", "ridge", "summit", "thicket", "umbra", "valley", "wharf",
}

var suffixes = []string{
	"arrow", "beacon", "cipher", "drift", "echo", "flare", "glide", "halo",
	"iris", "jumper", "kite", "lumen", "mosaic", "nova", "orbit", "pylon",
	"quill", "rocket", "spark", "tracer", "vector", "zephyr",
}

// NewID generates a fresh random session ID of the form word-word-word.
// The sender creates it and registers it with the relay; uniqueness is
// probabilistic, which is acceptable at this scale.
func NewID() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		nouns[randomIndex(len(nouns))],
		suffixes[randomIndex(len(suffixes))],
	)
}

func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand failing means the platform is broken; a zero
		// index keeps the ID well-formed regardless.
		slog.Error("random source failure", "error", err)
		return 0
	}
	return int(n.Int64())
}
