package meter

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

func TestStepEnterDateRejectsGarbage(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{Kind: wizard.KindMeterReading}

	c := textUpdate("not a date")
	res, err := w.stepEnterDate(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgBadDate, c.lastSent())
	assert.True(t, s.Date.IsZero())
}

func TestStepEnterDateAccepts(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{Kind: wizard.KindMeterReading}

	c := textUpdate("15.08.2026")
	res, err := w.stepEnterDate(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepEnterValue), res)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local), s.Date)
}

func TestStepEnterDateSuggestionButton(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{
		Kind:          wizard.KindMeterReading,
		SuggestedDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.Local),
	}

	c := buttonPress(cbSuggDate, "use")
	res, err := w.stepEnterDate(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepEnterValue), res)
	assert.True(t, s.Date.Equal(s.SuggestedDate))
}

func TestStepEnterValueRejectsGarbage(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{Kind: wizard.KindMeterReading}

	c := textUpdate("twelve")
	res, err := w.stepEnterValue(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgBadNumber, c.lastSent())
}

func TestStepEnterValueRejectsNonPositive(t *testing.T) {
	w := newTestWorkflow()
	for _, in := range []string{"0", "-5", "-0,5"} {
		s := &wizard.Session{Kind: wizard.KindMeterReading}
		c := textUpdate(in)
		res, err := w.stepEnterValue(c, s)
		require.NoError(t, err)
		assert.Equal(t, wizard.Stay(), res, "input %q", in)
		assert.Equal(t, msgValueNotPositive, c.lastSent())
	}
}

func TestStepEnterValueRejectsBelowBaseline(t *testing.T) {
	w := newTestWorkflow()
	baseline := decimal.RequireFromString("1500.5")
	s := &wizard.Session{
		Kind:     wizard.KindMeterReading,
		Baseline: &baseline,
		Date:     time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local),
	}

	c := textUpdate("1200")
	res, err := w.stepEnterValue(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)

	// The rejection names both values and keeps the entered date.
	assert.Contains(t, c.lastSent(), "1200")
	assert.Contains(t, c.lastSent(), "1500.5")
	assert.False(t, s.Date.IsZero())
}

func TestStepEnterValueAcceptsEqualToBaseline(t *testing.T) {
	w := newTestWorkflow()
	baseline := decimal.RequireFromString("1500")
	s := &wizard.Session{
		Kind:         wizard.KindMeterReading,
		PropertyName: "Unit 3",
		Baseline:     &baseline,
		Date:         time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local),
	}

	c := textUpdate("1500")
	res, err := w.stepEnterValue(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	assert.True(t, s.Value.Equal(baseline))
}

func TestStepEnterValueLocaleInput(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{
		Kind:         wizard.KindMeterReading,
		PropertyName: "Unit 3",
		Date:         time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local),
	}

	c := textUpdate("1 500,75")
	res, err := w.stepEnterValue(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	assert.True(t, s.Value.Equal(decimal.RequireFromString("1500.75")))
}

func TestStepEnterValueSuggestionButton(t *testing.T) {
	w := newTestWorkflow()
	suggested := decimal.RequireFromString("1500.5")
	s := &wizard.Session{
		Kind:           wizard.KindMeterReading,
		PropertyName:   "Unit 3",
		SuggestedValue: &suggested,
		Date:           time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local),
	}

	c := buttonPress(cbSuggValue, "use")
	res, err := w.stepEnterValue(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.ToStep(StepConfirm), res)
	assert.True(t, s.Value.Equal(suggested))
}

func TestStepSelectPropertyFreeTextReprompts(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{Kind: wizard.KindMeterReading}

	c := textUpdate("Unit 3")
	res, err := w.stepSelectProperty(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.Equal(t, msgUseButtons, c.lastSent())
}

func TestStepConfirmRepromptsOnFreeText(t *testing.T) {
	w := newTestWorkflow()
	s := &wizard.Session{
		Kind:         wizard.KindMeterReading,
		PropertyName: "Unit 3",
		Action:       wizard.ActionNew,
		Value:        decimal.RequireFromString("1500"),
		Date:         time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local),
	}

	c := textUpdate("yes please")
	res, err := w.stepConfirm(c, s)
	require.NoError(t, err)
	assert.Equal(t, wizard.Stay(), res)
	assert.True(t, strings.Contains(c.lastSent(), "Unit 3"))
}
