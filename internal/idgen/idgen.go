// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Per-resource ID prefixes.
const (
	PrefixOrganization = "org-"
	PrefixFlow         = "flw-"
	PrefixTrunk        = "trk-"
	PrefixInbound      = "inb-"
	PrefixAudio        = "aud-"
	PrefixSurvey       = "srv-"
	PrefixQuestion     = "qst-"
	PrefixResponse     = "rsp-"
	PrefixEvent        = "evt-"
	PrefixExecution    = "exe-"
)

// Generate returns a new unique ID with the given prefix.
func Generate(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// Slug returns a random lowercase token of length n, suitable for public
// survey links.
func Slug(n int) (string, error) {
	s, err := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", n)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return s, nil
}
