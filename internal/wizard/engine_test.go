package wizard

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"condobot/core/logger"
)

func TestMain(m *testing.M) {
	// Component loggers used by the engine are wired on first init.
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// fakeContext implements the slice of tele.Context the engine touches.
// Unimplemented methods panic via the embedded nil interface, which is
// the desired behavior: a test reaching them is a test bug.
type fakeContext struct {
	tele.Context
	chat   *tele.Chat
	sender *tele.User
	text   string
	data   map[string]interface{}
	sent   []interface{}
}

func newFakeContext(chatID, userID int64, text string) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: chatID},
		sender: &tele.User{ID: userID},
		text:   text,
		data:   make(map[string]interface{}),
	}
}

func (f *fakeContext) Chat() *tele.Chat    { return f.chat }
func (f *fakeContext) Sender() *tele.User  { return f.sender }
func (f *fakeContext) Text() string        { return f.text }
func (f *fakeContext) Update() tele.Update { return tele.Update{} }

func (f *fakeContext) Get(key string) interface{} { return f.data[key] }
func (f *fakeContext) Set(key string, v interface{}) {
	f.data[key] = v
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

const (
	stepOne Step = "test_one"
	stepTwo Step = "test_two"
)

func TestEngineBeginAndAdvance(t *testing.T) {
	e := New(NewStore(0), nil)
	var seen []Step
	e.Register(KindMeterReading, stepOne, func(c tele.Context, s *Session) (Result, error) {
		seen = append(seen, s.Step)
		return ToStep(stepTwo), nil
	})
	e.Register(KindMeterReading, stepTwo, func(c tele.Context, s *Session) (Result, error) {
		seen = append(seen, s.Step)
		return Done(), nil
	})

	c := newFakeContext(10, 20, "hello")
	e.Begin(c, &Session{Kind: KindMeterReading}, stepOne)
	assert.True(t, e.InProgress(10, 20))
	assert.False(t, e.InProgress(10, 21))

	require.NoError(t, e.ManagerHandler(c))
	require.NoError(t, e.ManagerHandler(c))
	assert.Equal(t, []Step{stepOne, stepTwo}, seen)
	assert.False(t, e.InProgress(10, 20), "Done() must clear the session")
}

func TestEngineStayKeepsStep(t *testing.T) {
	e := New(NewStore(0), nil)
	calls := 0
	e.Register(KindPayout, stepOne, func(c tele.Context, s *Session) (Result, error) {
		calls++
		return Stay(), nil
	})

	c := newFakeContext(1, 2, "not a number")
	e.Begin(c, &Session{Kind: KindPayout}, stepOne)
	require.NoError(t, e.ManagerHandler(c))
	require.NoError(t, e.ManagerHandler(c))
	assert.Equal(t, 2, calls, "Stay() must re-dispatch the same step")
	assert.True(t, e.InProgress(1, 2))
}

func TestEngineStepErrorClearsSession(t *testing.T) {
	notified := 0
	e := New(NewStore(0), func(c tele.Context) error {
		notified++
		return nil
	})
	e.Register(KindMeterReading, stepOne, func(c tele.Context, s *Session) (Result, error) {
		return Result{}, errors.New("boom")
	})

	c := newFakeContext(1, 2, "x")
	e.Begin(c, &Session{Kind: KindMeterReading}, stepOne)

	// The update loop must survive a failing step.
	require.NoError(t, e.ManagerHandler(c))
	assert.Equal(t, 1, notified)
	assert.False(t, e.InProgress(1, 2), "failed step must not leave partial state")
}

func TestEngineUnboundStepFails(t *testing.T) {
	notified := 0
	e := New(NewStore(0), func(c tele.Context) error {
		notified++
		return nil
	})

	c := newFakeContext(1, 2, "x")
	e.Begin(c, &Session{Kind: KindMeterReading}, Step("never_registered"))
	require.NoError(t, e.ManagerHandler(c))
	assert.Equal(t, 1, notified)
	assert.False(t, e.InProgress(1, 2))
}

func TestEngineResumeWithoutSession(t *testing.T) {
	e := New(NewStore(0), nil)
	called := false
	e.Register(KindMeterReading, stepOne, func(c tele.Context, s *Session) (Result, error) {
		called = true
		return Stay(), nil
	})

	// Stale button press after the session ended.
	c := newFakeContext(1, 2, "")
	require.NoError(t, e.Resume(c))
	assert.False(t, called)
}

func TestEngineManagerHandlerWithoutSession(t *testing.T) {
	e := New(NewStore(0), nil)
	c := newFakeContext(5, 6, "stray text")
	require.NoError(t, e.ManagerHandler(c))
}

func TestEngineSessionIsolation(t *testing.T) {
	e := New(NewStore(0), nil)
	e.Register(KindMeterReading, stepOne, func(c tele.Context, s *Session) (Result, error) {
		return ToStep(stepTwo), nil
	})

	first := newFakeContext(1, 7, "a")
	second := newFakeContext(2, 7, "b")
	e.Begin(first, &Session{Kind: KindMeterReading}, stepOne)
	e.Begin(second, &Session{Kind: KindMeterReading}, stepOne)

	require.NoError(t, e.ManagerHandler(first))

	one, ok := e.Store().Get(Key{ChatID: 1, UserID: 7})
	require.True(t, ok)
	two, ok := e.Store().Get(Key{ChatID: 2, UserID: 7})
	require.True(t, ok)
	assert.Equal(t, stepTwo, one.Step)
	assert.Equal(t, stepOne, two.Step, "advancing one chat must not move the other")
}

func TestEngineRegisterDuplicateKeepsFirst(t *testing.T) {
	e := New(NewStore(0), nil)
	got := ""
	e.Register(KindPayout, stepOne, func(c tele.Context, s *Session) (Result, error) {
		got = "first"
		return Done(), nil
	})
	e.Register(KindPayout, stepOne, func(c tele.Context, s *Session) (Result, error) {
		got = "second"
		return Done(), nil
	})

	c := newFakeContext(1, 2, "x")
	e.Begin(c, &Session{Kind: KindPayout}, stepOne)
	require.NoError(t, e.ManagerHandler(c))
	assert.Equal(t, "first", got)
}

func TestSessionResetEntryKeepsActor(t *testing.T) {
	s := &Session{
		Kind:         KindMeterReading,
		ActorID:      42,
		PropertyID:   7,
		PropertyName: "Unit 3",
		Action:       ActionEdit,
		ReadingID:    9,
		Description:  "x",
	}
	s.ResetEntry()
	assert.EqualValues(t, 42, s.ActorID)
	assert.Equal(t, KindMeterReading, s.Kind)
	assert.Zero(t, s.PropertyID)
	assert.Empty(t, s.PropertyName)
	assert.Empty(t, s.Action)
	assert.Zero(t, s.ReadingID)
	assert.Empty(t, s.Description)
	assert.Nil(t, s.Baseline)
}
