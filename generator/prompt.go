package generator

import (
	"fmt"
	"strings"
)

// sourceInstruction phrases the per-source analysis step of a plan prompt.
func sourceInstruction(src Source) string {
	switch src.Kind {
	case SourceURL:
		return fmt.Sprintf("Search for and analyze the page at %s. Base every slide and caption on its actual content.", src.Value)
	case SourceText:
		return fmt.Sprintf("Analyze the following text and base every slide and caption on it:\n\n%s", src.Value)
	default:
		return fmt.Sprintf("Research the topic %q and base every slide and caption on what you find.", src.Value)
	}
}

// BuildPlanPrompt produces the single planning call for a carousel: one
// JSON document holding the slide outline and one caption per platform.
func BuildPlanPrompt(req CarouselRequest) (system, user string) {
	var sb strings.Builder
	sb.WriteString(sourceInstruction(req.Source))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Plan a carousel of exactly %d slides.\n", req.SlideCount))
	if req.Tone != "" {
		sb.WriteString(fmt.Sprintf("Write all copy in a %s tone.\n", req.Tone))
	}
	if req.Language != "" {
		sb.WriteString(fmt.Sprintf("Write all text in language %q.\n", req.Language))
	}
	sb.WriteString("Write one caption per platform, within these hard limits:\n")
	for _, p := range req.Platforms {
		limit := LimitFor(p)
		sb.WriteString(fmt.Sprintf("- %s: at most %d characters, at most %d hashtags\n", p, limit.Characters, limit.Hashtags))
	}
	sb.WriteString("\nRespond with JSON only, no prose, in this shape:\n")
	sb.WriteString(`{"slides":[{"brief":"what to render","title":"overlay title","body":"overlay body"}],"captions":{`)
	names := make([]string, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		names = append(names, fmt.Sprintf("%q:\"...\"", string(p)))
	}
	sb.WriteString(strings.Join(names, ","))
	sb.WriteString("}}")

	return "You are a social media content strategist. Output strictly valid JSON.", sb.String()
}

// BuildSlidePrompt asks for one rendered carousel slide image.
func BuildSlidePrompt(unit RenderUnit, style Style, language Language) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Render slide %d of a social media carousel.\n", unit.Index+1))
	sb.WriteString("Scene: " + unit.Brief + "\n")
	if unit.Title != "" {
		sb.WriteString(fmt.Sprintf("Overlay the title text %q prominently.\n", unit.Title))
	}
	if unit.Body != "" {
		sb.WriteString(fmt.Sprintf("Overlay the supporting text %q in a smaller size.\n", unit.Body))
	}
	if style != "" {
		sb.WriteString(fmt.Sprintf("Visual style: %s.\n", style))
	}
	if language != "" {
		sb.WriteString(fmt.Sprintf("All overlaid text must be in language %q.\n", language))
	}
	ratio := unit.AspectRatio
	if ratio == "" {
		ratio = "4:5"
	}
	sb.WriteString(fmt.Sprintf("Aspect ratio %s, no watermark, no border.", ratio))
	return sb.String()
}

// BuildVisualPrompt asks for one standalone article visual.
func BuildVisualPrompt(brief string, style Style) string {
	var sb strings.Builder
	sb.WriteString("Render an illustration for a long-form post.\n")
	sb.WriteString("Scene: " + brief + "\n")
	if style != "" {
		sb.WriteString(fmt.Sprintf("Visual style: %s.\n", style))
	}
	sb.WriteString("No text overlay, no watermark.")
	return sb.String()
}

// BuildArticlePrompt produces the long-form generation call. The response
// is demarcated with sentinel markers so it parses without guessing.
func BuildArticlePrompt(req ArticleRequest) (system, user string) {
	var sb strings.Builder
	sb.WriteString(sourceInstruction(req.Source))
	sb.WriteString("\n\nWrite a complete long-form post.\n")
	switch req.Length {
	case LengthShort:
		sb.WriteString("Target length: around 400 words.\n")
	case LengthLong:
		sb.WriteString("Target length: around 1500 words.\n")
	default:
		sb.WriteString("Target length: around 800 words.\n")
	}
	if req.Language != "" {
		sb.WriteString(fmt.Sprintf("Write in language %q.\n", req.Language))
	}
	if req.Instructions != "" {
		sb.WriteString("Additional instructions: " + req.Instructions + "\n")
	}
	if req.ImageCount > 0 {
		sb.WriteString(fmt.Sprintf("Also propose %d image briefs, one per line, in the %s section.\n",
			req.ImageCount, Marker(SectionImagePrompts)))
	}
	sb.WriteString("\nStructure the response with these exact markers, in this order:\n")
	sb.WriteString(Marker(SectionTitle) + " the title\n")
	sb.WriteString(Marker(SectionSubtitle) + " a one-line subtitle\n")
	sb.WriteString(Marker(SectionContent) + " the full post in Markdown\n")
	if req.ImageCount > 0 {
		sb.WriteString(Marker(SectionImagePrompts) + " one image brief per line\n")
	}

	return "You are a long-form content writer. Echo the requested markers literally.", sb.String()
}

// BuildRevisionPrompt asks for a minimal rewrite of one platform caption
// based on user feedback.
func BuildRevisionPrompt(platform Platform, current, feedback string, tone Tone) (system, user string) {
	limit := LimitFor(platform)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Current %s caption:\n%s\n\n", platform, current))
	sb.WriteString("Feedback: " + feedback + "\n\n")
	sb.WriteString(fmt.Sprintf("Rewrite the caption with the smallest change that addresses the feedback. Stay under %d characters and %d hashtags. Output only the caption text.",
		limit.Characters, limit.Hashtags))
	sys := "You are a social media editor. Keep the author's voice."
	if tone != "" {
		sys = fmt.Sprintf("You are a social media editor. Keep a %s tone.", tone)
	}
	return sys, sb.String()
}
