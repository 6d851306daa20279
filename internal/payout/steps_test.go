package payout

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"condobot/core/logger"
	"condobot/internal/wizard"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeContext struct {
	tele.Context
	chat     *tele.Chat
	sender   *tele.User
	text     string
	callback *tele.Callback
	data     map[string]interface{}
	sent     []string
}

func textUpdate(text string) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: 100},
		sender: &tele.User{ID: 200},
		text:   text,
		data:   make(map[string]interface{}),
	}
}

func buttonPress(unique, payload string) *fakeContext {
	c := textUpdate("")
	c.callback = &tele.Callback{
		Unique: unique,
		Data:   fmt.Sprintf("\f%s|%s", unique, payload),
	}
	return c
}

func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Update() tele.Update      { return tele.Update{} }

func (f *fakeContext) Get(key string) interface{}    { return f.data[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.data[key] = v }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func newTestWorkflow() *Workflow {
	return New(nil, wizard.New(wizard.NewStore(0), nil), nil)
}

func baseSession() *wizard.Session {
	return &wizard.Session{
		Kind:            wizard.KindPayout,
		ActorID:         200,
		FromAccountID:   1,
		FromAccountName: "Unit 3 owner",
		ToAccountID:     2,
		ToAccountName:   "Association",
	}
}

func TestCancelEndsWorkflowAtEveryStep(t *testing.T) {
	w := newTestWorkflow()
	steps := []func(tele.Context, *wizard.Session) (wizard.Result, error){
		w.stepSelectFrom,
		w.stepSelectTo,
		w.stepEnterAmount,
		w.stepEnterDate,
		w.stepEnterDescription,
		w.stepConfirm,
	}
	for i, step := range steps {
		c := buttonPress(cbCancel, "cancel")
		res, err := step(c, baseSession())
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, wizard.Done(), res, "step %d: cancel must end, not loop back", i)
		assert.Equal(t, msgCancelled, c.lastSent())
	}
}

func TestStepEnterAmountRejectsGarbage(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate("a lot")
	res, err := w.stepEnterAmount(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgBadNumber, c.lastSent())
}

func TestStepEnterAmountRejectsNonPositive(t *testing.T) {
	w := newTestWorkflow()
	for _, in := range []string{"0", "0,00", "-250"} {
		s := baseSession()
		c := textUpdate(in)
		res, err := w.stepEnterAmount(c, s)
		require.NoError(t, err)
		assert.Equal(t, wizard.Stay(), res, "input %q", in)
		assert.Equal(t, msgAmountNotPositive, c.lastSent())
		assert.True(t, s.Amount.IsZero(), "rejected amount must not be stored")
	}
}

func TestStepEnterAmountAccepts(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate("1 250,50")
	res, err := w.stepEnterAmount(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepEnterDate), res)
	assert.True(t, s.Amount.Equal(decimal.RequireFromString("1250.5")))
}

func TestStepEnterAmountSuggestionButton(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()
	suggested := decimal.RequireFromString("980.25")
	s.SuggestedAmount = &suggested

	c := buttonPress(cbSuggAmount, "use")
	res, err := w.stepEnterAmount(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepEnterDate), res)
	assert.True(t, s.Amount.Equal(suggested))
}

func TestStepEnterDateRejectsGarbage(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate("yesterday")
	res, err := w.stepEnterDate(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgBadDate, c.lastSent())
}

func TestStepEnterDateTodayButton(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := buttonPress(cbSuggDate, "use")
	res, err := w.stepEnterDate(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepEnterDescription), res)

	now := time.Now()
	assert.Equal(t, now.Year(), s.Date.Year())
	assert.Equal(t, now.Month(), s.Date.Month())
	assert.Equal(t, now.Day(), s.Date.Day())
}

func TestStepEnterDescriptionRejectsEmpty(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate("   ")
	res, err := w.stepEnterDescription(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgEmptyDescription, c.lastSent())
}

func TestStepEnterDescriptionSuggestionButton(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()
	s.Amount = decimal.RequireFromString("1250.5")

	c := buttonPress(cbSuggDesc, "use")
	res, err := w.stepEnterDescription(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	assert.Equal(t, "Transfer Unit 3 owner -> Association, 1250.5", s.Description)
}

func TestStepEnterDescriptionTruncates(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate(strings.Repeat("ж", maxDescriptionLen+50))
	res, err := w.stepEnterDescription(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	assert.Len(t, []rune(s.Description), maxDescriptionLen)
}

func TestStepEnterDescriptionEscapedInConfirm(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()
	s.Amount = decimal.RequireFromString("100")
	s.Date = time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)

	c := textUpdate("august_2026 dues *and* repairs")
	res, err := w.stepEnterDescription(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	// The raw text is stored; only the rendered prompt is escaped, so an
	// unmatched underscore cannot make the Bot API reject the message.
	assert.Equal(t, "august_2026 dues *and* repairs", s.Description)
	assert.Contains(t, c.lastSent(), `august\_2026 dues \*and\* repairs`)
	assert.NotContains(t, c.lastSent(), "august_2026")
}

func TestStepSelectFromFreeTextReprompts(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()

	c := textUpdate("the association account")
	res, err := w.stepSelectFrom(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgUseButtons, c.lastSent())
}

func TestStepConfirmRepromptsOnFreeText(t *testing.T) {
	w := newTestWorkflow()
	s := baseSession()
	s.Amount = decimal.RequireFromString("100")
	s.Date = time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)
	s.Description = "August transfer"

	c := textUpdate("ok")
	res, err := w.stepConfirm(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Contains(t, c.lastSent(), "Unit 3 owner")
	assert.Contains(t, c.lastSent(), "Association")
}
