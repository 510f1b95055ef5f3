package content

import "strings"

// Icon is the category tag shown next to a pillar.
type Icon string

const (
	IconCode        Icon = "code"
	IconScience     Icon = "science"
	IconHistory     Icon = "history"
	IconArt         Icon = "art"
	IconBusiness    Icon = "business"
	IconHealth      Icon = "health"
	IconLanguage    Icon = "language"
	IconMath        Icon = "math"
	IconMusic       Icon = "music"
	IconNature      Icon = "nature"
	IconTechnology  Icon = "technology"
	IconPhilosophy  Icon = "philosophy"
	IconEngineering Icon = "engineering"
	IconSocial      Icon = "social"
	IconGeneral     Icon = "general"
)

// AllIcons lists the valid icon tags in display order.
var AllIcons = []Icon{
	IconCode, IconScience, IconHistory, IconArt, IconBusiness,
	IconHealth, IconLanguage, IconMath, IconMusic, IconNature,
	IconTechnology, IconPhilosophy, IconEngineering, IconSocial, IconGeneral,
}

// NormalizeIcon maps s onto the icon set. Unknown or empty tags become
// IconGeneral.
func NormalizeIcon(s string) Icon {
	tag := Icon(strings.ToLower(strings.TrimSpace(s)))
	for _, ic := range AllIcons {
		if ic == tag {
			return ic
		}
	}
	return IconGeneral
}

// Difficulty is the level of a lesson path.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// ParseDifficulty matches s case-insensitively. ok is false for values
// outside the three levels.
func ParseDifficulty(s string) (d Difficulty, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, true
	case "intermediate":
		return Intermediate, true
	case "advanced":
		return Advanced, true
	}
	return "", false
}

// Pillar is one of the thirty topic areas a subject is split into.
type Pillar struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

// Path is a focused course inside a pillar.
type Path struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Difficulty    Difficulty `json:"difficulty"`
	EstimatedTime string     `json:"estimatedTime"`
}

// SubLesson is one unit of a curriculum. Sub-lessons are referenced by
// their index in Curriculum.SubLessons.
type SubLesson struct {
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	GeneralConcepts   string   `json:"generalConcepts"`
	UseCases          []string `json:"useCases"`
	CaseStudies       []string `json:"caseStudies"`
	References        []string `json:"references"`
	Example           string   `json:"example"`
	VisualDescription string   `json:"visualDescription"`
	ActionItem        string   `json:"actionItem"`
}

// CaseStudy is the worked scenario attached to a curriculum.
type CaseStudy struct {
	Title    string `json:"title"`
	Scenario string `json:"scenario"`
	Outcome  string `json:"outcome"`
}

// Curriculum is the full course content for one path.
type Curriculum struct {
	PathTitle         string      `json:"pathTitle"`
	Introduction      string      `json:"introduction"`
	Objectives        []string    `json:"objectives"`
	KeyConcepts       []string    `json:"keyConcepts"`
	RealWorldUseCases []string    `json:"realWorldUseCases"`
	CaseStudy         CaseStudy   `json:"caseStudy"`
	SubLessons        []SubLesson `json:"subLessons"`
	Resources         []string    `json:"resources"`

	// AudioData is the Base64 PCM overview, filled in lazily on first play.
	AudioData string `json:"audioData,omitempty"`
}

// HasAudio reports whether the spoken overview has been generated.
func (c *Curriculum) HasAudio() bool {
	return c != nil && c.AudioData != ""
}
