package usecase

import "strings"

// wakePhrases trigger a new mood-elicitation cycle from any dialogue state.
var wakePhrases = []string{"hi", "hey", "hello", "hyy", "hey babe", "hey proton"}

// MatchesWake reports whether a transcript is a wake phrase. A transcript
// matches on exact equality or when it starts with the phrase followed by a
// space ("hey proton what's up" matches, "heyproton" does not).
func MatchesWake(transcript string) bool {
	t := strings.ToLower(strings.TrimSpace(transcript))
	for _, phrase := range wakePhrases {
		if t == phrase || strings.HasPrefix(t, phrase+" ") {
			return true
		}
	}
	return false
}
