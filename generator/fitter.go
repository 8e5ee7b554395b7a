package generator

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// fitEllipsis signals that main content was truncated.
	fitEllipsis = "..."
	// reservedMainMin guarantees hashtags can never crowd out the whole
	// main content.
	reservedMainMin = 50
)

// trailingHashtagRun matches a maximal run of #tokens at the end of a line.
var trailingHashtagRun = regexp.MustCompile(`(?:#[^\s#]+[ \t]*)+$`)

// Fit deterministically shrinks content to the platform budget without
// splitting hashtags or cutting mid-sentence when it can avoid it. It is
// idempotent: fitting already-fit content returns it unchanged.
func Fit(content string, limit Limit) string {
	if limit.Characters <= 0 || len(content) <= limit.Characters {
		return content
	}

	main, tags := splitTrailingHashtags(content)

	// Keep hashtags greedily, in order, while the budget still leaves
	// room for the reserved main minimum and the ellipsis.
	var kept []string
	keptLen := 0 // includes the separator before each kept tag
	for _, tag := range tags {
		if limit.Hashtags > 0 && len(kept) >= limit.Hashtags {
			break
		}
		candidate := keptLen + 1 + len(tag)
		if reservedMainMin+len(fitEllipsis)+candidate > limit.Characters {
			break
		}
		kept = append(kept, tag)
		keptLen = candidate
	}

	maxMain := limit.Characters - keptLen - len(fitEllipsis)
	if maxMain < 0 {
		maxMain = 0
	}

	trimmed := main
	truncated := false
	if len(main) > maxMain {
		trimmed = truncateMain(main, maxMain)
		truncated = true
	}

	var b strings.Builder
	b.WriteString(trimmed)
	if truncated {
		b.WriteString(fitEllipsis)
	}
	for _, tag := range kept {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tag)
	}
	return b.String()
}

// splitTrailingHashtags separates the trailing hashtag cluster on the last
// line from the main content. Tags are returned byte-identical to the
// input; hashtags embedded mid-text stay part of the main content.
func splitTrailingHashtags(content string) (string, []string) {
	lineStart := strings.LastIndexByte(content, '\n') + 1
	lastLine := content[lineStart:]

	loc := trailingHashtagRun.FindStringIndex(lastLine)
	if loc == nil {
		return content, nil
	}
	tags := strings.Fields(lastLine[loc[0]:loc[1]])
	main := strings.TrimRight(content[:lineStart+loc[0]], " \t\n")
	return main, tags
}

// truncateMain cuts main to at most max bytes, preferring the last
// sentence boundary past the half-way mark, then the last word boundary,
// then a hard cut on a rune boundary.
func truncateMain(main string, max int) string {
	if max <= 0 {
		return ""
	}
	window := main[:runeBoundary(main, max)]
	half := max / 2

	if cut := lastSentenceEnd(window); cut > half {
		return strings.TrimRight(window[:cut], " ")
	}
	if cut := strings.LastIndexByte(window, ' '); cut > half {
		return strings.TrimRight(window[:cut], " ")
	}
	return window
}

// lastSentenceEnd returns the index just past the last sentence-ending
// punctuation followed by a space or newline, or -1.
func lastSentenceEnd(s string) int {
	best := -1
	for _, term := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(s, term); idx >= 0 && idx+1 > best {
			best = idx + 1
		}
	}
	return best
}

// runeBoundary backs max off to the nearest UTF-8 rune start so a hard cut
// never corrupts a character.
func runeBoundary(s string, max int) int {
	if max >= len(s) {
		return len(s)
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return max
}

// FitCaptions fits every draft caption against its own platform budget and
// returns the posts in stable platform order.
func FitCaptions(captions map[Platform]string) []PlatformPost {
	platforms := make([]Platform, 0, len(captions))
	for p := range captions {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	posts := make([]PlatformPost, 0, len(platforms))
	for _, p := range platforms {
		limit := LimitFor(p)
		posts = append(posts, PlatformPost{
			Platform: p,
			Content:  Fit(captions[p], limit),
			Limit:    limit,
		})
	}
	return posts
}
