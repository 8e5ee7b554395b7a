package generator

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The model is instructed to wrap each output section in literal sentinel
// markers, e.g. |||TITLE|||. Section names used by the pipeline:
const (
	SectionTitle        = "TITLE"
	SectionSubtitle     = "SUBTITLE"
	SectionContent      = "CONTENT"
	SectionImagePrompts = "IMAGE_PROMPTS"
)

// Marker renders the sentinel for a section name.
func Marker(name string) string {
	return "|||" + name + "|||"
}

// SectionSchema declares the sections a response must carry, in order.
// Primary is the section the response is useless without; when its marker
// is missing the whole raw text becomes the primary section and Defaults
// fill the rest, so a formatting miss by the model never fails a request.
type SectionSchema struct {
	Order    []string
	Primary  string
	Defaults map[string]string
}

// Parse splits raw into sections. The second return value reports whether
// the raw-fallback path was taken. A missing non-primary marker yields an
// empty string for that section, never an error.
func (s SectionSchema) Parse(raw string) (map[string]string, bool) {
	type span struct {
		name         string
		markerStart  int
		contentStart int
	}

	var present []span
	primaryFound := false
	for _, name := range s.Order {
		m := Marker(name)
		if idx := strings.Index(raw, m); idx >= 0 {
			present = append(present, span{name: name, markerStart: idx, contentStart: idx + len(m)})
			if name == s.Primary {
				primaryFound = true
			}
		}
	}

	out := make(map[string]string, len(s.Order))
	if !primaryFound {
		for _, name := range s.Order {
			out[name] = s.Defaults[name]
		}
		out[s.Primary] = strings.TrimSpace(raw)
		return out, true
	}

	for _, name := range s.Order {
		out[name] = ""
	}
	for _, p := range present {
		// A section runs until the next marker found in the text.
		end := len(raw)
		for _, q := range present {
			if q.markerStart >= p.contentStart && q.markerStart < end {
				end = q.markerStart
			}
		}
		out[p.name] = strings.TrimSpace(raw[p.contentStart:end])
	}
	return out, false
}

// ParseError is a recoverable decode failure: the caller substitutes a
// placeholder instead of aborting the pipeline.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse model response: " + e.Reason
}

// DecodeModelJSON decodes a JSON-shaped model response that may be wrapped
// in a Markdown code fence (``` or ```json). The decoded document is
// untrusted input: callers read fields through gjson and substitute
// defaults field by field.
func DecodeModelJSON(raw string) (gjson.Result, error) {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "```") {
		if nl := strings.IndexByte(t, '\n'); nl >= 0 {
			t = t[nl+1:]
		} else {
			t = ""
		}
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	t = strings.TrimSpace(t)

	if t == "" || !gjson.Valid(t) {
		return gjson.Result{}, &ParseError{Reason: "response is not valid JSON"}
	}
	return gjson.Parse(t), nil
}

// DefaultTitle synthesizes a usable title from content when the model
// omitted one: the first non-empty line, clipped at a word boundary.
func DefaultTitle(content string, limit int) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line == "" {
			continue
		}
		if len(line) <= limit {
			return line
		}
		cut := line[:limit]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		return cut
	}
	return "Untitled post"
}
