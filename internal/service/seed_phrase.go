package service

import (
	"strings"

	"jetwallet/internal/core/domain"

	"lukechampine.com/frand"
)

// SeedPhraseLength is the number of words in a recovery phrase.
const SeedPhraseLength = 12

// GenerateSeedPhrase draws n distinct words from the seed dictionary.
func GenerateSeedPhrase(n int) []string {
	words := domain.SeedPhraseWords
	if n > len(words) {
		n = len(words)
	}
	perm := frand.Perm(len(words))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = words[perm[i]]
	}
	return out
}

// JoinSeedPhrase renders words in the form they are encrypted at rest.
func JoinSeedPhrase(words []string) string {
	return strings.Join(words, " ")
}
