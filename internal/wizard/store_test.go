package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetClear(t *testing.T) {
	st := NewStore(time.Minute)
	k := Key{ChatID: 1, UserID: 2}

	_, ok := st.Get(k)
	assert.False(t, ok)

	st.Put(k, &Session{Kind: KindMeterReading})
	s, ok := st.Get(k)
	require.True(t, ok)
	assert.Equal(t, KindMeterReading, s.Kind)
	assert.Equal(t, 1, st.Len())

	st.Clear(k)
	_, ok = st.Get(k)
	assert.False(t, ok)

	// Clearing an absent session is a no-op.
	st.Clear(k)
	assert.Equal(t, 0, st.Len())
}

func TestStorePutReplaces(t *testing.T) {
	st := NewStore(time.Minute)
	k := Key{ChatID: 1, UserID: 2}

	st.Put(k, &Session{Kind: KindMeterReading, PropertyID: 7})
	st.Put(k, &Session{Kind: KindPayout})

	s, ok := st.Get(k)
	require.True(t, ok)
	assert.Equal(t, KindPayout, s.Kind)
	assert.Zero(t, s.PropertyID)
	assert.Equal(t, 1, st.Len())
}

func TestStoreKeyIsolation(t *testing.T) {
	st := NewStore(time.Minute)
	st.Put(Key{ChatID: 1, UserID: 2}, &Session{Kind: KindMeterReading})
	st.Put(Key{ChatID: 3, UserID: 2}, &Session{Kind: KindPayout})

	a, ok := st.Get(Key{ChatID: 1, UserID: 2})
	require.True(t, ok)
	b, ok := st.Get(Key{ChatID: 3, UserID: 2})
	require.True(t, ok)
	assert.Equal(t, KindMeterReading, a.Kind)
	assert.Equal(t, KindPayout, b.Kind)
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(10 * time.Millisecond)
	k := Key{ChatID: 1, UserID: 2}
	st.Put(k, &Session{Kind: KindMeterReading})

	time.Sleep(25 * time.Millisecond)
	_, ok := st.Get(k)
	assert.False(t, ok, "expired session should be evicted on access")
	assert.Equal(t, 0, st.Len())
}

func TestStoreTouchExtends(t *testing.T) {
	st := NewStore(40 * time.Millisecond)
	k := Key{ChatID: 1, UserID: 2}
	st.Put(k, &Session{Kind: KindMeterReading})

	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		st.Touch(k)
	}
	_, ok := st.Get(k)
	assert.True(t, ok, "touched session should stay alive past the base TTL")
}

func TestStoreSweep(t *testing.T) {
	st := NewStore(10 * time.Millisecond)
	st.Put(Key{ChatID: 1, UserID: 1}, &Session{})
	st.Put(Key{ChatID: 2, UserID: 2}, &Session{})

	time.Sleep(25 * time.Millisecond)
	st.Put(Key{ChatID: 3, UserID: 3}, &Session{})

	assert.Equal(t, 2, st.sweep())
	assert.Equal(t, 1, st.Len())
}

func TestNewStoreDefaultTTL(t *testing.T) {
	st := NewStore(0)
	assert.Equal(t, DefaultTTL, st.ttl)
}
