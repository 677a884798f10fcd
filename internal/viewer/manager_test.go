package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(baseDeps(), Options{Width: 640, Height: 480, DPR: 2})
	defer m.CloseAll()

	s := m.Create(Options{MapID: "m1"})
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 640, st.Width)
	assert.Equal(t, 480, st.Height)
	assert.Equal(t, 2.0, st.DPR)

	require.NoError(t, m.Close(s.ID()))
	<-s.Done()
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), ErrSessionNotFound)
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(baseDeps(), Options{Width: 100, Height: 100, DPR: 1})
	a := m.Create(Options{MapID: "m1"})
	b := m.Create(Options{MapID: "m2", Width: 50})
	assert.NotEqual(t, a.ID(), b.ID())

	m.CloseAll()
	assert.Zero(t, m.Len())
	<-a.Done()
	<-b.Done()
}
