package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/fallback"
	"poster/pkg/generate"
	"poster/pkg/logx"
	"poster/pkg/pacing"
	"poster/pkg/persistence"
	"poster/pkg/prompt"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/slot"
	"poster/pkg/state"
	"poster/pkg/validate"
	"poster/pkg/weather"
)

// Generator produces a post candidate from a prompt.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt, opts generate.Options) (generate.Result, error)
}

// Publisher sends posts and media to the platform.
type Publisher interface {
	UploadMedia(ctx context.Context, path string) (string, error)
	CreatePost(ctx context.Context, text string) (string, error)
	CreatePostWithMedia(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// WeatherSource returns current conditions, or nil when unavailable.
type WeatherSource interface {
	Current(ctx context.Context) *weather.Report
}

// MediaFinder picks an image for a slot.
type MediaFinder interface {
	Pick(slot proto.SlotID) (string, bool)
}

// RunRecorder observes finished runs (history store, metrics).
type RunRecorder interface {
	RecordRun(ctx context.Context, run *persistence.Run) error
}

// Deps are the collaborators of an Engine. Generator, Publisher, Weather, and
// Media may be nil: the capability is then treated as unavailable.
type Deps struct {
	Config    *config.Config
	Clock     clock.Clock
	Rand      randx.Source
	Store     *state.Store
	Generator Generator
	Publisher Publisher
	Weather   WeatherSource
	Media     MediaFinder
	Recorders []RunRecorder
	// DryRun is recorded in history only; the caller supplies a dry-run Publisher.
	DryRun bool
}

// Engine executes posting runs.
type Engine struct {
	cfg       *config.Config
	clock     clock.Clock
	rng       randx.Source
	store     *state.Store
	slots     *slot.Selector
	pacer     *pacing.Pacer
	composer  *prompt.Composer
	validator *validate.Validator
	fallback  *fallback.Selector
	gen       Generator
	pub       Publisher
	weather   WeatherSource
	media     MediaFinder
	recorders []RunRecorder
	dryRun    bool
	logger    *logx.Logger
}

// New wires an engine. All randomness flows from d.Rand.
func New(d Deps) (*Engine, error) {
	if d.Config == nil || d.Clock == nil || d.Rand == nil || d.Store == nil {
		return nil, fmt.Errorf("engine requires config, clock, rand, and store")
	}
	composer, err := prompt.NewComposer(d.Config, d.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt composer: %w", err)
	}
	return &Engine{
		cfg:       d.Config,
		clock:     d.Clock,
		rng:       d.Rand,
		store:     d.Store,
		slots:     slot.NewSelector(d.Config, d.Rand),
		pacer:     pacing.New(&d.Config.Tuning, d.Rand),
		composer:  composer,
		validator: validate.New(validate.RulesFromConfig(d.Config)),
		fallback:  fallback.NewSelector(d.Config, d.Rand),
		gen:       d.Generator,
		pub:       d.Publisher,
		weather:   d.Weather,
		media:     d.Media,
		recorders: d.Recorders,
		dryRun:    d.DryRun,
		logger:    logx.NewLogger("engine"),
	}, nil
}

// Run performs one posting decision and records it with every recorder. The
// run ID carried by ctx (logx.WithRunID) is reused for the history row.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	now := e.clock.Now()
	res, err := e.run(ctx, now)
	e.record(ctx, now, res, err)
	return res, err
}

func (e *Engine) run(ctx context.Context, now clock.Snapshot) (Result, error) {
	st, info := e.store.Load(now)

	if st.QuotaReached() {
		e.logger.Info("Daily quota reached (%d/%d), nothing to do", st.TodayPostCount, st.TodayMaxPosts)
		res := Result{Outcome: OutcomeQuotaReached, Mood: st.Mood, Energy: st.Energy}
		if info.Changed() {
			if err := e.store.Save(st, now); err != nil {
				return res, err
			}
		}
		return res, nil
	}

	slotID := e.slots.Determine(now.Hour, st)
	e.logger.Info("Slot %s at %s (posts %d/%d, energy %d, mood %s)",
		slotID, now.Timestamp, st.TodayPostCount, st.TodayMaxPosts, st.Energy, st.Mood)

	if e.pacer.ShouldSkip(st, slotID, now.Time) {
		state.RecordSkip(st)
		e.logger.Info("Pacing skip for %s (skip #%d today)", slotID, st.TodaySkipCount)
		res := Result{Outcome: OutcomeSkipped, Slot: slotID, Mood: st.Mood, Energy: st.Energy}
		return res, e.store.Save(st, now)
	}

	report := e.currentWeather(ctx)
	imagePath := e.pickImage(st, slotID)

	res := Result{Slot: slotID, HadImage: imagePath != ""}
	recent := proto.Texts(st.RecentPosts)

	cand := e.generateText(ctx, st, slotID, now, report, imagePath != "", recent)
	res.Attempts = cand.attempts
	res.Model = cand.model
	text, mood := cand.text, cand.mood
	res.Source = proto.SourceGenerated

	if text == "" {
		sel, ok := e.fallback.Select(slotID, recent)
		if !ok {
			e.logger.Warn("No generated or fallback text for %s, not posting", slotID)
			res.Outcome = OutcomeNoContent
			res.Source = ""
			res.Mood, res.Energy = st.Mood, st.Energy
			return res, e.store.Save(st, now)
		}
		st.FallbackUsedCount++
		text, mood = sel.Text, ""
		res.Source = proto.SourceFallback
		e.logger.Info("Using fallback text for %s (degraded=%v)", slotID, sel.Degraded)
	}

	res.Text = e.decorate(text)

	if e.pub == nil {
		e.logger.Info("Publisher unavailable, would post [%s%s]: %s", slotID, imageNote(imagePath), res.Text)
		res.Outcome = OutcomeWouldPost
		res.Mood, res.Energy = st.Mood, st.Energy
		return res, e.store.Save(st, now)
	}

	postID, err := e.publish(ctx, res.Text, imagePath)
	if err != nil {
		res.Outcome = OutcomePublishFailed
		res.Mood, res.Energy = st.Mood, st.Energy
		if saveErr := e.store.Save(st, now); saveErr != nil {
			e.logger.Error("Failed to persist state after publish failure: %v", saveErr)
		}
		return res, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	e.store.ApplyPostResult(st, text, slotID, res.HadImage, now)
	if mood != "" {
		st.Mood = mood
	}
	res.Outcome = OutcomePosted
	res.PostID = postID
	res.Mood, res.Energy = st.Mood, st.Energy
	e.logger.Info("Posted %s [%s, %s]: %s", postID, slotID, res.Source, res.Text)

	if err := e.store.Save(st, now); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) currentWeather(ctx context.Context) *weather.Report {
	if e.weather == nil {
		return nil
	}
	return e.weather.Current(ctx)
}

// pickImage decides on an image and finds one. A missing file downgrades the
// post to text only.
func (e *Engine) pickImage(st *state.AgentState, slotID proto.SlotID) string {
	if !e.pacer.ShouldPostImage(st, slotID) {
		return ""
	}
	if e.media == nil {
		e.logger.Debug("Image wanted for %s but no media finder configured", slotID)
		return ""
	}
	path, ok := e.media.Pick(slotID)
	if !ok {
		return ""
	}
	return path
}

type candidate struct {
	text     string
	mood     proto.Mood
	model    string
	attempts int
}

// generateText runs the bounded generation loop. An empty text means the
// caller must fall back.
func (e *Engine) generateText(ctx context.Context, st *state.AgentState, slotID proto.SlotID,
	now clock.Snapshot, report *weather.Report, hasImage bool, recent []string,
) candidate {
	var c candidate
	if e.gen == nil {
		e.logger.Warn("Generator unavailable, using fallback")
		return c
	}

	t := &e.cfg.Tuning
	maxAttempts := 1 + t.MaxRetries
	requireVocab := e.composer.RequiresVocabulary(slotID)
	opts := generate.Options{
		Slot:        slotID,
		MaxTokens:   e.cfg.Generator.MaxTokens,
		Temperature: e.cfg.Generator.Temperature,
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		selfReply := attempt == 1 && !slotID.ShortForm() && st.LatestPost() != nil &&
			randx.Chance(e.rng, t.SelfReplyChance)

		p, err := e.composer.Compose(prompt.Input{
			Slot:        slotID,
			State:       st,
			Now:         now,
			Weather:     report.Line(),
			WeatherHint: report.Hint(),
			HasImage:    hasImage,
			SelfReply:   selfReply,
		})
		if err != nil {
			e.logger.Error("Prompt composition failed: %v", err)
			return c
		}

		c.attempts++
		out, err := e.gen.Generate(ctx, p, opts)
		if err != nil {
			if errors.Is(err, generate.ErrUnavailable) {
				e.logger.Warn("Generator unavailable: %v", err)
				return c
			}
			e.logger.Warn("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
			continue
		}

		v := e.validator.Validate(out.Text, requireVocab, recent)
		if !v.Valid {
			st.NGRetryCount++
			e.logger.Warn("Attempt %d/%d rejected: %s", attempt, maxAttempts, strings.Join(v.Errors, "; "))
			continue
		}

		logx.Debug(ctx, "engine", "accepted attempt %d (self-reply=%v, similarity %.2f)", attempt, p.SelfReply, v.MaxSimilarity)
		c.text, c.mood, c.model = out.Text, out.Mood, out.Model
		return c
	}
	e.logger.Warn("No valid text after %d attempts", c.attempts)
	return c
}

// decorate appends the mandatory hashtag and, by chance, one from the pool,
// as long as the result stays within the publish limit.
func (e *Engine) decorate(text string) string {
	tags := e.cfg.Hashtags
	var extra []string
	if tags.Mandatory != "" {
		extra = append(extra, tags.Mandatory)
	}
	if len(tags.Pool) > 0 && randx.Chance(e.rng, e.cfg.Tuning.HashtagPoolChance) {
		extra = append(extra, randx.Pick(e.rng, tags.Pool))
	}
	if len(extra) == 0 {
		return text
	}
	decorated := text + "\n" + strings.Join(extra, " ")
	if validate.Length(decorated) > e.cfg.Tuning.MaxPublishChars {
		return text
	}
	return decorated
}

func (e *Engine) publish(ctx context.Context, text, imagePath string) (string, error) {
	if imagePath == "" {
		return e.pub.CreatePost(ctx, text)
	}
	mediaID, err := e.pub.UploadMedia(ctx, imagePath)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	return e.pub.CreatePostWithMedia(ctx, text, []string{mediaID})
}

func (e *Engine) record(ctx context.Context, started clock.Snapshot, res Result, runErr error) {
	if len(e.recorders) == 0 {
		return
	}
	finished := e.clock.Now()
	runID := logx.RunID(ctx)
	if runID == "-" {
		runID = persistence.NewRunID()
	}
	run := &persistence.Run{
		ID:         runID,
		StartedAt:  started.Time,
		FinishedAt: finished.Time,
		Outcome:    string(res.Outcome),
		Slot:       string(res.Slot),
		Attempts:   res.Attempts,
		Source:     string(res.Source),
		Energy:     res.Energy,
		DryRun:     e.dryRun,
		Model:      res.Model,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if res.Outcome == OutcomePosted {
		run.Post = &persistence.Post{
			PostID:   res.PostID,
			Text:     res.Text,
			Slot:     string(res.Slot),
			Mood:     string(res.Mood),
			HadImage: res.HadImage,
			PostedAt: finished.Time,
		}
	}
	for _, r := range e.recorders {
		if err := r.RecordRun(ctx, run); err != nil {
			e.logger.Warn("Failed to record run %s: %v", run.ID, err)
		}
	}
}

func imageNote(path string) string {
	if path == "" {
		return ""
	}
	return ", image " + path
}
