package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golf-concierge-be/internal/dto"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/course"
	"golf-concierge-be/pkg/events"
	"golf-concierge-be/pkg/intent"
	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/preference"
	"golf-concierge-be/pkg/quiz"
	"golf-concierge-be/pkg/render"
	"golf-concierge-be/pkg/retrieval"
	"golf-concierge-be/pkg/store"
	"golf-concierge-be/pkg/synth"

	"golang.org/x/sync/errgroup"
)

const chatModule = "ChatService"

var ErrMissingSession = errors.New("request has no session")

const (
	msgTryAgain        = "Sorry, the course quiz isn't responding right now. Please try again in a moment."
	msgQuizExpired     = "That quiz has expired, so I've cleared it. Say \"quiz\" to start a new one."
	msgSearchDown      = "Sorry, our site search isn't available right now. Please try again shortly."
	msgAskLocation     = "Where are you planning to play? Tell me a city or town, or share your location."
	msgAskWhen         = "When would you like to play? For example today, this weekend, next week or a date like 2026-11-02."
	msgWhenUnclear     = "I didn't catch a date there. Try today, tomorrow, this weekend, a weekday or a date like 2026-11-02."
	msgCancelled       = "No problem, I've stopped the quiz. Ask me anything, or say \"quiz\" to start again."
	msgNoLinks         = "I haven't shared any pages yet. Ask me a question first."
	msgLinksHeading    = "Here are the pages I mentioned:"
	msgProfileIntro    = "Thanks! Here's your golfer profile."
	msgNoCourses       = "I couldn't find a matching course nearby yet. Try a different location and take the quiz again."
	msgCoursesHeading  = "Courses that suit your game:"
	msgHelp            = "Ask me anything about our courses, or say \"quiz\" and I'll match you with a course that suits your game."
	msgPickOutOfRange  = "Please reply with a number between 1 and %d."
	msgAnswerQuestion  = "Reply with the number of your answer, or say \"cancel\" to stop."
	msgLocationNoted   = "Got it, I'll use %s as your location."
	msgWindowNoted     = "Got it, I'll plan for %s."
	maxHistoryMessages = 12
)

// Retriever finds passages and links for a free-text query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Composer turns retrieval output into a reply, applying the fallback policy.
type Composer interface {
	Compose(ctx context.Context, query string, history []llm.Message, res *retrieval.Result) *render.Response
}

type CourseMatcher interface {
	Match(ctx context.Context, vec preference.Vector, geo *course.GeoFilter) []course.Match
}

// Geocoder resolves a cached place name to coordinates for the geo filter.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (*store.Location, error)
}

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	Reset(ctx context.Context) error
}

// questionLimiter is implemented by quiz clients that know the most
// questions a single quiz asks.
type questionLimiter interface {
	MaxQuestions() int
}

type chatService struct {
	sessions  store.SessionStore
	quiz      quiz.Client
	maxSteps  int
	retriever Retriever
	composer  Composer
	matcher   CourseMatcher
	geocoder  Geocoder
	sidecar   SidecarRenderer
	publisher IPublisherService
	logger    logger.ILogger
	now       func() time.Time
}

func NewChatService(
	sessions store.SessionStore,
	quizClient quiz.Client,
	retriever Retriever,
	composer Composer,
	matcher CourseMatcher,
	geocoder Geocoder,
	sidecar SidecarRenderer,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	cs := &chatService{
		sessions:  sessions,
		quiz:      quizClient,
		retriever: retriever,
		composer:  composer,
		matcher:   matcher,
		geocoder:  geocoder,
		sidecar:   sidecar,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
	if l, ok := quizClient.(questionLimiter); ok {
		cs.maxSteps = l.MaxQuestions()
	}
	return cs
}

// turn is the outcome of one chat message before rendering.
type turn struct {
	response *render.Response
	profile  *quiz.Profile
	// plain, when set, is returned verbatim instead of rendered HTML.
	plain string
}

func reply(paragraphs ...string) *turn {
	return &turn{response: render.Text(paragraphs...)}
}

func (cs *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sid, ok := store.SessionIDFrom(ctx)
	if !ok {
		return nil, ErrMissingSession
	}

	state := cs.loadState(ctx, sid)
	text, _ := req.LatestUserMessage()
	text = strings.TrimSpace(text)

	in := intent.Classify(text, state)
	if in.Kind == intent.KindFreeText {
		cs.rememberContext(state, text)
	}

	cs.logger.Debug(chatModule, "Intent classified", map[string]interface{}{
		"session_id": sid,
		"intent":     in.String(),
		"stage":      string(state.Stage),
	})

	var t *turn
	switch in.Kind {
	case intent.KindCancel:
		state.ResetQuiz()
		t = reply(msgCancelled)
	case intent.KindStart:
		t = cs.startQuiz(ctx, state)
	case intent.KindPick:
		t = cs.answer(ctx, state, in.Index)
	case intent.KindLocation:
		t = cs.captureLocation(ctx, state, in.Location)
	case intent.KindDate:
		t = cs.captureWindow(ctx, state, in.When)
	case intent.KindShowLinks:
		t = cs.showLinks(state)
	case intent.KindFreeText:
		t = cs.answerQuery(ctx, state, in.Text, history(req.Messages))
	default:
		t = cs.help(state)
	}

	cs.saveState(ctx, state)

	if t.plain != "" {
		return &dto.ChatResponse{HTML: t.plain, Profile: t.profile}, nil
	}
	html, err := t.response.HTML()
	if err != nil {
		return nil, err
	}
	return &dto.ChatResponse{HTML: html, Profile: t.profile}, nil
}

func (cs *chatService) Reset(ctx context.Context) error {
	sid, ok := store.SessionIDFrom(ctx)
	if !ok {
		return ErrMissingSession
	}
	if err := cs.sessions.Clear(ctx, sid); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	cs.logger.Info(chatModule, "Session reset", map[string]interface{}{"session_id": sid})
	return nil
}

// loadState never fails: an unreadable store starts the session afresh.
func (cs *chatService) loadState(ctx context.Context, sid string) *store.ConversationState {
	state, found, err := cs.sessions.Get(ctx, sid)
	if err != nil {
		cs.logger.Warn(chatModule, "Session store read failed", map[string]interface{}{
			"session_id": sid,
			"error":      err.Error(),
		})
	}
	if err != nil || !found || state == nil {
		return store.NewConversationState(sid)
	}
	return state
}

func (cs *chatService) saveState(ctx context.Context, state *store.ConversationState) {
	if err := cs.sessions.Set(ctx, state); err != nil {
		cs.logger.Warn(chatModule, "Session store write failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}
}

// rememberContext caches a place or date mentioned in passing so a later
// quiz can skip those onboarding steps.
func (cs *chatService) rememberContext(state *store.ConversationState, text string) {
	if place, ok := intent.ExtractLocation(text); ok {
		if state.CachedLocation == nil || !strings.EqualFold(state.CachedLocation.Name, place) {
			state.CachedLocation = &store.Location{Name: place}
		}
	}
	if w, ok := intent.ExtractWindow(text, cs.now()); ok {
		state.CachedAvailability = w
	}
}

func (cs *chatService) startQuiz(ctx context.Context, state *store.ConversationState) *turn {
	req := quiz.StartRequest{}
	if state.CachedLocation != nil {
		req.Location = state.CachedLocation.Name
	}
	if state.CachedAvailability != nil {
		req.When = state.CachedAvailability.Label
	}

	res, err := cs.quiz.Start(ctx, req)
	if err != nil {
		cs.logger.Error(chatModule, "Quiz start failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
		return reply(msgTryAgain)
	}

	switch {
	case res.Question != nil:
		if err := state.AskQuestion(res.SessionID, res.Question); err != nil {
			cs.logger.Error(chatModule, "Quiz start returned no session", map[string]interface{}{
				"session_id": state.SessionID,
			})
			return reply(msgTryAgain)
		}
		state.AnsweredQuestions = map[string]int{}
		state.Scores = preference.Neutral()
		cs.publish(ctx, events.QuizStarted, map[string]interface{}{
			"quiz_session_id": res.SessionID,
			"location":        req.Location,
			"when":            req.When,
		})
		return &turn{response: &render.Response{Question: cs.renderQuestion(res.Question, 1)}}
	case res.NeedsLocation:
		state.Stage = store.StageAwaitingLocation
		return reply(msgAskLocation)
	case res.NeedsWhen:
		state.Stage = store.StageAwaitingAvailability
		return reply(msgAskWhen)
	default:
		cs.logger.Error(chatModule, "Quiz start response was empty", map[string]interface{}{
			"session_id": state.SessionID,
		})
		return reply(msgTryAgain)
	}
}

func (cs *chatService) answer(ctx context.Context, state *store.ConversationState, index int) *turn {
	q := state.CurrentQuestion
	if !state.AwaitingAnswer() {
		return cs.help(state)
	}
	if index < 0 || index >= len(q.Options) {
		return &turn{response: &render.Response{
			Paragraphs: []string{fmt.Sprintf(msgPickOutOfRange, len(q.Options))},
			Question:   cs.renderQuestion(q, len(state.AnsweredQuestions)+1),
		}}
	}

	res, err := cs.quiz.SubmitAnswer(ctx, quiz.AnswerRequest{
		SessionID:    state.QuizSessionID,
		QuestionID:   q.ID,
		OptionIndex:  index,
		PriorAnswers: state.AnsweredQuestions,
		PriorScores:  state.Scores.Map(),
	})
	if err != nil {
		cs.logger.Error(chatModule, "Quiz answer failed", map[string]interface{}{
			"session_id":  state.SessionID,
			"question_id": q.ID,
			"error":       err.Error(),
		})
		if quizGone(err) {
			state.ResetQuiz()
			return reply(msgQuizExpired)
		}
		return reply(msgTryAgain)
	}

	if !res.Complete {
		if res.Question == nil {
			return reply(msgTryAgain)
		}
		if _, repeated := res.Answers[res.Question.ID]; repeated {
			cs.logger.Error(chatModule, "Quiz repeated an answered question", map[string]interface{}{
				"session_id":  state.SessionID,
				"question_id": res.Question.ID,
			})
			return reply(msgTryAgain)
		}
		state.RecordAnswers(res.Answers, res.Scores)
		if err := state.AskQuestion(state.QuizSessionID, res.Question); err != nil {
			return reply(msgTryAgain)
		}
		return &turn{response: &render.Response{Question: cs.renderQuestion(res.Question, len(state.AnsweredQuestions)+1)}}
	}

	state.RecordAnswers(res.Answers, res.Scores)
	return cs.complete(ctx, state, res)
}

// quizGone reports answer errors that retrying cannot fix: the quiz session
// expired or the stored question no longer matches it.
func quizGone(err error) bool {
	return errors.Is(err, quiz.ErrUnknownSession) ||
		errors.Is(err, quiz.ErrUnknownQuestion) ||
		errors.Is(err, quiz.ErrAlreadyAnswered)
}

func (cs *chatService) complete(ctx context.Context, state *store.ConversationState, res *quiz.AnswerResponse) *turn {
	profile := res.Profile
	if profile == nil {
		profile = quiz.BuildProfile(state.Scores)
	}
	vec := preference.FromMap(profile.Scores)

	geo := cs.geoFilter(ctx, state)
	matches := cs.matcher.Match(ctx, vec, geo)

	cs.publish(ctx, events.QuizCompleted, map[string]interface{}{
		"quiz_session_id": state.QuizSessionID,
		"archetype":       profile.Archetype,
		"answers":         len(res.Answers),
	})
	cs.publish(ctx, events.CoursesMatched, map[string]interface{}{
		"count":   len(matches),
		"has_geo": geo != nil,
	})

	state.LastProfile = profile
	state.ResetQuiz()

	resp := &render.Response{
		Paragraphs: []string{msgProfileIntro},
		Profile:    &render.ProfileSummary{Archetype: profile.Archetype, Top: profile.TopDimensions},
	}
	if len(matches) == 0 {
		resp.Paragraphs = append(resp.Paragraphs, msgNoCourses)
	} else {
		resp.Paragraphs = append(resp.Paragraphs, msgCoursesHeading)
		resp.Courses = renderCourses(matches)
		links := make([]store.Link, 0, len(matches))
		for _, m := range matches {
			links = append(links, store.Link{URL: m.URL, Title: m.Name})
		}
		state.RememberLinks(links)
	}
	return &turn{response: resp, profile: profile}
}

// geoFilter centres the course search on the cached location, geocoding it
// if needed. Without coordinates the search is not restricted by distance.
func (cs *chatService) geoFilter(ctx context.Context, state *store.ConversationState) *course.GeoFilter {
	loc := state.CachedLocation
	if loc == nil {
		return nil
	}
	if !loc.HasCoords && cs.geocoder != nil && loc.Name != "" {
		resolved, err := cs.geocoder.Geocode(ctx, loc.Name)
		if err != nil {
			cs.logger.Warn(chatModule, "Geocoding cached location failed", map[string]interface{}{
				"place": loc.Name,
				"error": err.Error(),
			})
			return nil
		}
		resolved.Name = loc.Name
		state.CachedLocation = resolved
		loc = resolved
	}
	if !loc.HasCoords {
		return nil
	}
	return &course.GeoFilter{Latitude: loc.Latitude, Longitude: loc.Longitude}
}

func (cs *chatService) captureLocation(ctx context.Context, state *store.ConversationState, loc *store.Location) *turn {
	if loc == nil || (loc.Name == "" && !loc.HasCoords) {
		return reply(msgAskLocation)
	}
	if loc.Name == "" {
		loc.Name = fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	}
	state.CachedLocation = loc

	if state.Stage == store.StageAwaitingLocation {
		return cs.startQuiz(ctx, state)
	}
	return reply(fmt.Sprintf(msgLocationNoted, loc.Name))
}

func (cs *chatService) captureWindow(ctx context.Context, state *store.ConversationState, when string) *turn {
	w, ok := intent.ExtractWindow(when, cs.now())
	if !ok {
		return reply(msgWhenUnclear)
	}
	state.CachedAvailability = w

	if state.Stage == store.StageAwaitingAvailability {
		return cs.startQuiz(ctx, state)
	}
	return reply(fmt.Sprintf(msgWindowNoted, w.Label))
}

func (cs *chatService) showLinks(state *store.ConversationState) *turn {
	if len(state.LastShownLinks) == 0 {
		return reply(msgNoLinks)
	}
	links := make([]render.Link, len(state.LastShownLinks))
	for i, l := range state.LastShownLinks {
		links[i] = render.Link{URL: l.URL, Title: l.Title}
	}
	return &turn{response: &render.Response{LinksHeading: msgLinksHeading, Links: links}}
}

func (cs *chatService) help(state *store.ConversationState) *turn {
	switch {
	case state.AwaitingAnswer():
		return &turn{response: &render.Response{
			Paragraphs: []string{msgAnswerQuestion},
			Question:   cs.renderQuestion(state.CurrentQuestion, len(state.AnsweredQuestions)+1),
		}}
	case state.Stage == store.StageAwaitingLocation:
		return reply(msgAskLocation)
	case state.Stage == store.StageAwaitingAvailability:
		return reply(msgAskWhen)
	default:
		return reply(msgHelp)
	}
}

// answerQuery runs retrieval and synthesis while the sidecar card renders
// alongside it.
func (cs *chatService) answerQuery(ctx context.Context, state *store.ConversationState, query string, hist []llm.Message) *turn {
	var (
		res     *retrieval.Result
		resp    *render.Response
		card    string
		failure error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = cs.retriever.Retrieve(gctx, query)
		if err != nil {
			failure = err
			return nil
		}
		resp = cs.composer.Compose(gctx, query, hist, res)
		return nil
	})
	if cs.sidecar != nil {
		g.Go(func() error {
			card = cs.sidecar.Render(gctx, query)
			return nil
		})
	}
	_ = g.Wait()

	if failure != nil {
		cs.logger.Error(chatModule, "Retrieval failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      failure.Error(),
		})
		t := reply(msgSearchDown)
		t.response.Sidecar = template.HTML(card)
		return t
	}

	cs.publish(ctx, events.ChatAnswered, map[string]interface{}{
		"passages":  len(res.Passages),
		"links":     len(res.Links),
		"citations": len(resp.Citations),
		"sidecar":   card != "",
	})

	if res.Empty() && card == "" {
		return &turn{plain: synth.RefusalMessage}
	}

	shown := make([]store.Link, 0, len(resp.Citations)+len(resp.Links))
	for _, c := range resp.Citations {
		shown = append(shown, store.Link{URL: c.URL, Title: c.Title})
	}
	for _, l := range resp.Links {
		shown = append(shown, store.Link{URL: l.URL, Title: l.Title})
	}
	if len(shown) > 0 {
		state.RememberLinks(shown)
	}

	resp.Sidecar = template.HTML(card)
	return &turn{response: resp}
}

func (cs *chatService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.publisher == nil {
		return
	}
	if err := cs.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		cs.logger.Warn(chatModule, "Failed to publish domain event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

// history converts every message before the latest user turn for the
// synthesizer, keeping only the most recent ones.
func history(msgs []dto.ChatMessage) []llm.Message {
	last := len(msgs) - 1
	for last >= 0 && msgs[last].Role != llm.RoleUser {
		last--
	}
	if last <= 0 {
		return nil
	}
	prior := msgs[:last]
	if len(prior) > maxHistoryMessages {
		prior = prior[len(prior)-maxHistoryMessages:]
	}
	out := make([]llm.Message, 0, len(prior))
	for _, m := range prior {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, llm.Message{Role: llm.NormalizeRole(m.Role), Content: m.Content})
	}
	return out
}

func (cs *chatService) renderQuestion(q *quiz.Question, step int) *render.Question {
	opts := make([]render.Option, len(q.Options))
	for i, o := range q.Options {
		opts[i] = render.Option{Number: i + 1, Label: o.Label}
	}
	return &render.Question{ID: q.ID, Text: q.Text, Options: opts, Step: step, Total: cs.maxSteps}
}

func renderCourses(matches []course.Match) []render.Course {
	out := make([]render.Course, len(matches))
	for i, m := range matches {
		out[i] = render.Course{
			Name:        m.Name,
			URL:         m.URL,
			Similarity:  m.Similarity,
			DistanceKm:  m.DistanceKm,
			HasDistance: m.HasDistance,
			Highlights:  highlights(m.Attributes),
		}
	}
	return out
}

// highlights reads the optional "highlights" list from course attributes.
func highlights(attrs map[string]any) []string {
	raw, ok := attrs["highlights"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, h := range raw {
		if s, ok := h.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
