package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golf-concierge-be/internal/dto"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/memory"
	"golf-concierge-be/pkg/course"
	"golf-concierge-be/pkg/events"
	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/preference"
	"golf-concierge-be/pkg/quiz"
	"golf-concierge-be/pkg/render"
	"golf-concierge-be/pkg/retrieval"
	"golf-concierge-be/pkg/store"
	"golf-concierge-be/pkg/synth"
)

type fakeRetriever struct {
	res *retrieval.Result
	err error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) (*retrieval.Result, error) {
	return f.res, f.err
}

type fakeComposer struct {
	history []llm.Message
}

func (f *fakeComposer) Compose(ctx context.Context, query string, history []llm.Message, res *retrieval.Result) *render.Response {
	f.history = history
	if res.Empty() {
		return render.Text(synth.RefusalMessage)
	}
	links := make([]render.Link, len(res.Links))
	for i, l := range res.Links {
		links[i] = render.Link{URL: l.URL, Title: l.Title}
	}
	return &render.Response{Answer: "<p>Answer</p>", LinksHeading: "Sources:", Links: links}
}

type fakeMatcher struct {
	geo     *course.GeoFilter
	vec     preference.Vector
	matches []course.Match
}

func (f *fakeMatcher) Match(ctx context.Context, vec preference.Vector, geo *course.GeoFilter) []course.Match {
	f.vec, f.geo = vec, geo
	return f.matches
}

type fakeGeocoder struct {
	calls int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, place string) (*store.Location, error) {
	f.calls++
	return &store.Location{Name: place + " (resolved)", Latitude: 35.19, Longitude: -79.47, HasCoords: true}, nil
}

type fakeSidecar struct {
	html string
}

func (f *fakeSidecar) Render(ctx context.Context, query string) string { return f.html }

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.types = append(p.types, event.EventType())
	return nil
}

type failingQuiz struct{}

func (failingQuiz) Start(ctx context.Context, req quiz.StartRequest) (*quiz.StartResponse, error) {
	return nil, quiz.ErrUnavailable
}

func (failingQuiz) SubmitAnswer(ctx context.Context, req quiz.AnswerRequest) (*quiz.AnswerResponse, error) {
	return nil, quiz.ErrUnavailable
}

func (failingQuiz) Question(ctx context.Context, id string) (*quiz.Question, error) {
	return nil, quiz.ErrUnavailable
}

type chatFixture struct {
	svc       IChatService
	sessions  *memory.SessionRepository
	retriever *fakeRetriever
	composer  *fakeComposer
	matcher   *fakeMatcher
	geocoder  *fakeGeocoder
	sidecar   *fakeSidecar
	events    *recordingPublisher
	ctx       context.Context
}

func newChatFixture(t *testing.T, quizClient quiz.Client) *chatFixture {
	t.Helper()
	if quizClient == nil {
		bank, err := quiz.DefaultBank()
		require.NoError(t, err)
		quizClient = quiz.NewEngine(bank, time.Hour)
	}
	f := &chatFixture{
		sessions:  memory.NewSessionRepository(time.Hour),
		retriever: &fakeRetriever{res: &retrieval.Result{}},
		composer:  &fakeComposer{},
		matcher:   &fakeMatcher{},
		geocoder:  &fakeGeocoder{},
		sidecar:   &fakeSidecar{},
		events:    &recordingPublisher{},
		ctx:       store.WithSessionID(context.Background(), "sid-1"),
	}
	f.svc = NewChatService(f.sessions, quizClient, f.retriever, f.composer, f.matcher, f.geocoder, f.sidecar, f.events, logger.NewNopLogger())
	return f
}

func (f *chatFixture) say(t *testing.T, text string) *dto.ChatResponse {
	t.Helper()
	res, err := f.svc.Chat(f.ctx, &dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: text}}})
	require.NoError(t, err)
	return res
}

func (f *chatFixture) state(t *testing.T) *store.ConversationState {
	t.Helper()
	st, found, err := f.sessions.Get(f.ctx, "sid-1")
	require.NoError(t, err)
	require.True(t, found)
	return st
}

func TestChatRefusesWhenNothingFound(t *testing.T) {
	f := newChatFixture(t, nil)

	res := f.say(t, "do you sell left handed putters?")

	assert.Equal(t, synth.RefusalMessage, res.HTML)
	assert.Nil(t, res.Profile)
	assert.Equal(t, []string{events.ChatAnswered}, f.events.types)
}

func TestChatAnswerWithSidecarAndLinks(t *testing.T) {
	f := newChatFixture(t, nil)
	f.retriever.res = &retrieval.Result{
		Passages: []retrieval.Passage{{SourceURL: "https://golf.example/pinehurst", Title: "Pinehurst", Text: "..."}},
		Links:    []retrieval.Link{{URL: "https://golf.example/pinehurst", Title: "Pinehurst"}},
	}
	f.sidecar.html = `<div class="gc-weather">Sunny</div>`

	res := f.say(t, "golf courses near Pinehurst this weekend")

	assert.Contains(t, res.HTML, "<p>Answer</p>")
	assert.Contains(t, res.HTML, `<div class="gc-weather">Sunny</div>`)

	st := f.state(t)
	require.Len(t, st.LastShownLinks, 1)
	require.NotNil(t, st.CachedLocation)
	assert.Equal(t, "Pinehurst", st.CachedLocation.Name)
	assert.NotNil(t, st.CachedAvailability)

	res = f.say(t, "show links")
	assert.Contains(t, res.HTML, "https://golf.example/pinehurst")
}

func TestChatPassesPriorTurnsAsHistory(t *testing.T) {
	f := newChatFixture(t, nil)
	f.retriever.res = &retrieval.Result{Links: []retrieval.Link{{URL: "https://golf.example/a"}}}

	_, err := f.svc.Chat(f.ctx, &dto.ChatRequest{Messages: []dto.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "what are your green fees?"},
	}})
	require.NoError(t, err)

	require.Len(t, f.composer.history, 2)
	assert.Equal(t, llm.RoleAssistant, f.composer.history[1].Role)
}

func TestChatSearchUnavailable(t *testing.T) {
	f := newChatFixture(t, nil)
	f.retriever.err = retrieval.ErrUnavailable

	res := f.say(t, "what are your opening hours?")

	assert.Contains(t, res.HTML, "site search")
	assert.Empty(t, f.events.types)
}

func TestChatFullQuizFlow(t *testing.T) {
	f := newChatFixture(t, nil)
	f.matcher.matches = []course.Match{{Name: "Pinehurst No. 2", URL: "https://golf.example/no2", Similarity: 0.91, DistanceKm: 3, HasDistance: true}}

	res := f.say(t, "quiz")
	assert.Contains(t, res.HTML, "Where are you planning to play?")
	assert.Equal(t, store.StageAwaitingLocation, f.state(t).Stage)

	res = f.say(t, "Pinehurst")
	assert.Contains(t, res.HTML, "When would you like to play?")
	assert.Equal(t, store.StageAwaitingAvailability, f.state(t).Stage)

	res = f.say(t, "this weekend")
	assert.Contains(t, res.HTML, "gc-question")
	assert.Contains(t, res.HTML, "Question 1 of up to")
	require.True(t, f.state(t).AwaitingAnswer())

	var final *dto.ChatResponse
	for i := 0; i < 20; i++ {
		res = f.say(t, "1")
		if res.Profile != nil {
			final = res
			break
		}
		assert.Contains(t, res.HTML, "gc-question")
	}

	require.NotNil(t, final, "quiz never completed")
	assert.Len(t, final.Profile.Scores, len(preference.Dimensions))
	assert.Contains(t, final.HTML, "Pinehurst No. 2")
	assert.Contains(t, final.HTML, "91% match")

	require.NotNil(t, f.matcher.geo)
	assert.InDelta(t, 35.19, f.matcher.geo.Latitude, 1e-9)
	assert.Equal(t, 1, f.geocoder.calls)

	st := f.state(t)
	assert.Equal(t, store.StageIdle, st.Stage)
	assert.Nil(t, st.CurrentQuestion)
	assert.NotNil(t, st.LastProfile)
	assert.True(t, st.CachedLocation.HasCoords)

	assert.Equal(t, []string{events.QuizStarted, events.QuizCompleted, events.CoursesMatched}, f.events.types)
}

func TestChatQuizSkipsOnboardingWithCachedContext(t *testing.T) {
	f := newChatFixture(t, nil)
	f.say(t, "weather near Pinehurst tomorrow")

	res := f.say(t, "start the quiz")
	assert.Contains(t, res.HTML, "gc-question")

	res = f.say(t, "9")
	assert.Contains(t, res.HTML, "between 1 and")
	assert.True(t, f.state(t).AwaitingAnswer())

	res = f.say(t, "what about the weather?")
	assert.Contains(t, res.HTML, "gc-question")

	res = f.say(t, "cancel")
	assert.Contains(t, res.HTML, "stopped the quiz")
	st := f.state(t)
	assert.Equal(t, store.StageIdle, st.Stage)
	assert.Equal(t, "Pinehurst", st.CachedLocation.Name)
}

func TestChatQuizUnavailableLeavesStateUntouched(t *testing.T) {
	f := newChatFixture(t, failingQuiz{})

	res := f.say(t, "quiz me")

	assert.Contains(t, res.HTML, "course quiz")
	assert.Equal(t, store.StageIdle, f.state(t).Stage)
}

type flakyAnswers struct {
	*quiz.Engine
}

func (flakyAnswers) SubmitAnswer(ctx context.Context, req quiz.AnswerRequest) (*quiz.AnswerResponse, error) {
	return nil, quiz.ErrUnavailable
}

func TestChatExpiredQuizReturnsToIdle(t *testing.T) {
	bank, err := quiz.DefaultBank()
	require.NoError(t, err)
	f := newChatFixture(t, quiz.NewEngine(bank, 50*time.Millisecond))
	f.say(t, "weather near Pinehurst tomorrow")

	res := f.say(t, "start the quiz")
	require.Contains(t, res.HTML, "gc-question")

	time.Sleep(100 * time.Millisecond)

	res = f.say(t, "1")
	assert.Contains(t, res.HTML, "expired")
	st := f.state(t)
	assert.Equal(t, store.StageIdle, st.Stage)
	assert.False(t, st.AwaitingAnswer())
	assert.Empty(t, st.QuizSessionID)
	assert.Equal(t, "Pinehurst", st.CachedLocation.Name)

	res = f.say(t, "quiz")
	assert.Contains(t, res.HTML, "gc-question")
	assert.True(t, f.state(t).AwaitingAnswer())
}

func TestChatTransientAnswerFailureKeepsQuestion(t *testing.T) {
	bank, err := quiz.DefaultBank()
	require.NoError(t, err)
	f := newChatFixture(t, flakyAnswers{quiz.NewEngine(bank, time.Hour)})
	f.say(t, "weather near Pinehurst tomorrow")
	f.say(t, "start the quiz")

	res := f.say(t, "1")
	assert.Contains(t, res.HTML, "try again")
	st := f.state(t)
	assert.True(t, st.AwaitingAnswer())
	assert.NotEmpty(t, st.QuizSessionID)
}

func TestChatNumberWithoutQuestionIsAQuery(t *testing.T) {
	f := newChatFixture(t, nil)

	res := f.say(t, "2")

	assert.Equal(t, synth.RefusalMessage, res.HTML)
	assert.Nil(t, res.Profile)
	assert.Equal(t, store.StageIdle, f.state(t).Stage)
	assert.Equal(t, []string{events.ChatAnswered}, f.events.types)
}

func TestChatShowLinksWhenNoneShown(t *testing.T) {
	f := newChatFixture(t, nil)
	res := f.say(t, "show links")
	assert.Contains(t, res.HTML, "Ask me a question first")
}

func TestChatRequiresSession(t *testing.T) {
	f := newChatFixture(t, nil)

	_, err := f.svc.Chat(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}}})
	assert.True(t, errors.Is(err, ErrMissingSession))
	assert.ErrorIs(t, f.svc.Reset(context.Background()), ErrMissingSession)
}

func TestChatReset(t *testing.T) {
	f := newChatFixture(t, nil)
	f.say(t, "quiz")

	require.NoError(t, f.svc.Reset(f.ctx))

	_, found, err := f.sessions.Get(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHistoryKeepsPriorTurnsOnly(t *testing.T) {
	assert.Nil(t, history([]dto.ChatMessage{{Role: "user", Content: "only"}}))

	got := history([]dto.ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: ""},
		{Role: "model", Content: "b"},
		{Role: "user", Content: "c"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "b"}, got[1])
}
