package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Parlor/internal/app"
	"github.com/dkeye/Parlor/internal/domain"
)

func TestSessionTable(t *testing.T) {
	table := app.NewSessionTable()
	conn := &fakeConn{}
	canceled := false
	require.True(t, table.Attach("sid-a", conn, func() { canceled = true }))

	sess, ok := table.Get("sid-a")
	require.True(t, ok)
	assert.False(t, sess.Bound())

	t.Run("second attach under the same sid is refused", func(t *testing.T) {
		other := &fakeConn{}
		assert.False(t, table.Attach("sid-a", other, func() {}))

		// The original record stays: a later disconnect of the refused
		// transport must not detach the live session.
		got, ok := table.Get("sid-a")
		require.True(t, ok)
		assert.Same(t, conn, got.Conn.(*fakeConn))
	})

	member, err := domain.NewMember("Alice", domain.RoleOwner)
	require.NoError(t, err)

	t.Run("bind then unbind", func(t *testing.T) {
		assert.True(t, table.BindRoom("sid-a", "4242", member))

		sess, ok := table.Get("sid-a")
		require.True(t, ok)
		assert.True(t, sess.Bound())
		assert.Equal(t, domain.Pin("4242"), sess.Pin)

		// A bound session cannot bind again without passing through unbound.
		assert.False(t, table.BindRoom("sid-a", "5555", member))

		table.UnbindRoom("sid-a")
		sess, _ = table.Get("sid-a")
		assert.False(t, sess.Bound())
	})

	t.Run("cancel fires the connection teardown", func(t *testing.T) {
		assert.True(t, table.CancelSession("sid-a"))
		assert.True(t, canceled)
		assert.False(t, table.CancelSession("sid-ghost"))
	})

	t.Run("detach removes the record", func(t *testing.T) {
		table.Detach("sid-a")
		_, ok := table.Get("sid-a")
		assert.False(t, ok)
	})
}
