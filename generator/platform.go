package generator

// Platform identifies a posting target.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
)

// Limit is a platform's hard caption budget: a character ceiling and the
// maximum number of hashtags worth keeping.
type Limit struct {
	Characters int
	Hashtags   int
}

// platformLimits holds the published caption constraints per platform.
var platformLimits = map[Platform]Limit{
	PlatformTwitter:   {Characters: 280, Hashtags: 5},
	PlatformLinkedIn:  {Characters: 3000, Hashtags: 10},
	PlatformInstagram: {Characters: 2200, Hashtags: 30},
	PlatformFacebook:  {Characters: 63206, Hashtags: 30},
	PlatformTikTok:    {Characters: 2200, Hashtags: 20},
}

// defaultLimit is used for platforms this table does not know about.
var defaultLimit = Limit{Characters: 2000, Hashtags: 10}

// LimitFor returns the caption budget for a platform.
func LimitFor(p Platform) Limit {
	if l, ok := platformLimits[p]; ok {
		return l
	}
	return defaultLimit
}
