// Package prompt composes generation instructions from persona, slot, time,
// mood, energy, and today's narrative. Composition has no side effects on state.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/state"
)

//go:embed templates/*.tpl.md
var templateFS embed.FS

// Template names a prompt template.
type Template string

const (
	SystemTemplate     Template = "system.tpl.md"
	PostTemplate       Template = "post.tpl.md"
	MorningTemplate    Template = "morning.tpl.md"
	NightShortTemplate Template = "night_short.tpl.md"
	SelfReplyTemplate  Template = "self_reply.tpl.md"
)

// requiredSample bounds how many domain terms are listed in a prompt.
const requiredSample = 5

// Prompt is a composed instruction.
type Prompt struct {
	System    string
	User      string
	Template  Template
	SelfReply bool
}

// Input is everything a single composition reads.
type Input struct {
	Slot        proto.SlotID
	State       *state.AgentState
	Now         clock.Snapshot
	Weather     string
	WeatherHint string // how the weather weighs on the shift; empty when mild
	HasImage    bool
	SelfReply   bool
}

// Data is the template context.
type Data struct {
	Persona config.Persona
	Moods   string

	TimeOfDay string
	Season    string
	Weekday   string
	Energy    string
	MoodColor string
	SlotTone  string
	Examples  []string

	Theme      string
	MicroEvent string
	Numbers    []string
	Quirk      string
	Weather    string
	WeatherFx  string
	Narrative  string
	HasImage   bool
	Recent     []string

	Punctuation string
	Ending      string
	Casual      bool
	Typo        bool

	RequireVocabulary bool
	Required          []string
	MaxLength         int
	MaxEmoji          int
	ShortMax          int

	PreviousPost string
}

// Composer renders prompts.
type Composer struct {
	cfg       *config.Config
	rng       randx.Source
	templates map[Template]*template.Template
}

// NewComposer parses the embedded templates.
func NewComposer(cfg *config.Config, rng randx.Source) (*Composer, error) {
	c := &Composer{
		cfg:       cfg,
		rng:       rng,
		templates: make(map[Template]*template.Template),
	}
	funcs := template.FuncMap{"join": strings.Join}
	for _, name := range []Template{SystemTemplate, PostTemplate, MorningTemplate, NightShortTemplate, SelfReplyTemplate} {
		content, err := templateFS.ReadFile("templates/" + string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		tmpl, err := template.New(string(name)).Funcs(funcs).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		c.templates[name] = tmpl
	}
	return c, nil
}

// RequiresVocabulary reports whether validation demands a domain term for slot.
// Short-form slots never do.
func (c *Composer) RequiresVocabulary(slot proto.SlotID) bool {
	if slot.ShortForm() {
		return false
	}
	sc := c.cfg.SlotByID(slot)
	return sc != nil && sc.RequiresVocabulary
}

// Compose builds the prompt for in. A self-reply is only honored when there is
// a previous post to reply to, and never in short-form slots.
func (c *Composer) Compose(in Input) (Prompt, error) {
	data := c.baseData(in)

	var name Template
	switch {
	case in.SelfReply && !in.Slot.ShortForm() && in.State.LatestPost() != nil:
		name = SelfReplyTemplate
		data.PreviousPost = in.State.LatestPost().Text
	case in.Slot == proto.SlotMorning:
		name = MorningTemplate
	case in.Slot == proto.SlotNightShort:
		name = NightShortTemplate
	default:
		name = PostTemplate
		c.decorate(&data, in)
	}

	system, err := c.render(SystemTemplate, &data)
	if err != nil {
		return Prompt{}, err
	}
	user, err := c.render(name, &data)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: user, Template: name, SelfReply: name == SelfReplyTemplate}, nil
}

func (c *Composer) baseData(in Input) Data {
	t := &c.cfg.Tuning
	st := in.State

	data := Data{
		Persona:           c.cfg.Persona,
		Moods:             strings.Join(proto.MoodLabels(), ", "),
		TimeOfDay:         TimeOfDayTone(in.Now.Hour),
		Season:            Season(in.Now.Month()),
		Weekday:           WeekdayMood(in.Now.Weekday()),
		Energy:            EnergyInstruction(st.Energy),
		MoodColor:         MoodColor(st.Mood),
		Weather:           in.Weather,
		WeatherFx:         in.WeatherHint,
		RequireVocabulary: c.RequiresVocabulary(in.Slot),
		MaxLength:         t.MaxTextLength,
		MaxEmoji:          t.MaxEmoji,
		ShortMax:          t.ShortFormMaxChars,
	}
	if sc := c.cfg.SlotByID(in.Slot); sc != nil {
		data.SlotTone = sc.Tone
		data.Examples = sc.Examples
	}
	if data.RequireVocabulary {
		data.Required = randx.Shuffled(c.rng, c.cfg.Vocabulary.Required)
		if len(data.Required) > requiredSample {
			data.Required = data.Required[:requiredSample]
		}
	}
	return data
}

// decorate adds the randomized theme, flavor, and style lines of a full post.
func (c *Composer) decorate(data *Data, in Input) {
	t := &c.cfg.Tuning
	st := in.State

	data.Theme = randx.Pick(c.rng, c.cfg.Themes.Words(in.Slot.Theme()))
	if randx.Chance(c.rng, t.MicroEventChance) {
		data.MicroEvent = randx.Pick(c.rng, c.cfg.Themes.MicroEvents)
	}
	data.Numbers = ConcreteNumbers(c.rng)
	if randx.Chance(c.rng, t.QuirkChance) {
		if categories := c.cfg.Quirks.Categories(); len(categories) > 0 {
			data.Quirk = randx.Pick(c.rng, randx.Pick(c.rng, categories))
		}
	}

	data.Punctuation = PunctuationStyle(c.rng)
	data.Casual = st.Energy < t.CasualEnergyBelow
	data.Ending = SentenceEnding(c.rng)
	data.Typo = randx.Chance(c.rng, t.TypoChance)

	if st.TodayPostCount >= 2 {
		data.Narrative = st.TodayNarrative
	}
	data.HasImage = in.HasImage
	data.Recent = proto.Texts(st.RecentPosts)
}

func (c *Composer) render(name Template, data *Data) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
