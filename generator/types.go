package generator

// SourceKind identifies how the user supplied the subject of a generation.
type SourceKind string

const (
	SourceURL   SourceKind = "url"
	SourceText  SourceKind = "text"
	SourceTopic SourceKind = "topic"
)

// Source is the subject a generation is built from: a link to analyze,
// a pasted text blob, or a free-form topic to research.
type Source struct {
	Kind  SourceKind
	Value string
}

// Style controls the visual direction of rendered slides and visuals.
type Style string

const (
	StylePhotorealistic Style = "photorealistic"
	StyleIllustration   Style = "illustration"
	StyleMinimal        Style = "minimal"
	StyleBold           Style = "bold"
)

// Tone controls the voice of generated copy.
type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneCasual        Tone = "casual"
	ToneEnthusiastic  Tone = "enthusiastic"
	ToneEducational   Tone = "educational"
	ToneInspirational Tone = "inspirational"
)

// Length selects the target size of a long-form article.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Language is the output language passed through to prompts.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
)

// ProgressFunc receives coarse stage-transition notices from the pipeline.
// A nil ProgressFunc is legal and means no reporting.
type ProgressFunc func(stage string)

// RenderUnit is one planned, independently renderable piece of output.
// Index is a stable ordering key; the renderer never re-derives count
// or order from anything but the plan.
type RenderUnit struct {
	Index int
	Brief string

	// Optional overlay hints from the plan.
	Title       string
	Body        string
	AspectRatio string
}

// ContentPlan is the contract between planner and renderer: the ordered
// units to render plus one draft caption per requested platform.
type ContentPlan struct {
	Units    []RenderUnit
	Captions map[Platform]string
}

// ArtifactStatus marks whether a unit rendered or degraded to nothing.
type ArtifactStatus string

const (
	ArtifactComplete ArtifactStatus = "complete"
	ArtifactError    ArtifactStatus = "error"
)

// Artifact is the realized (or failed) output of a RenderUnit. Data is
// nil when Status is ArtifactError; the rest of the batch is unaffected.
type Artifact struct {
	Index  int
	Brief  string
	Data   []byte
	MIME   string
	Status ArtifactStatus
}

// PlatformPost is a caption after fitting against its platform budget.
type PlatformPost struct {
	Platform Platform
	Content  string
	Limit    Limit
}

// CarouselRequest asks for a slide carousel plus per-platform captions.
type CarouselRequest struct {
	Source     Source
	Image      []byte // optional reference image
	Platforms  []Platform
	SlideCount int
	Style      Style
	Tone       Tone
	Language   Language
	OnProgress ProgressFunc
}

// CarouselResult carries the rendered slides, the fitted captions, and a
// single fallback caption for callers that only understand one platform.
type CarouselResult struct {
	Slides   []Artifact
	Captions []PlatformPost
	Caption  string
}

// ArticleRequest asks for a long-form post with optional inline visuals.
type ArticleRequest struct {
	Source       Source
	Instructions string
	Length       Length
	ImageCount   int
	Style        Style
	Language     Language
	OnProgress   ProgressFunc
}

// ArticleResult is the finished long-form post.
type ArticleResult struct {
	Title    string
	Subtitle string
	Content  string
	Visuals  []Artifact
}

func emit(fn ProgressFunc, stage string) {
	if fn != nil {
		fn(stage)
	}
}
