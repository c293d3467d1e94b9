package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioThreadWithReplyDeleted(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Register(f.ctx, "alice", "alice@example.com", "pw123456")
	require.NoError(t, err)
	_, err = f.users.Register(f.ctx, "bob", "bob@example.com", "pw123456")
	require.NoError(t, err)

	th, err := f.forum.CreateThread(f.ctx, "software", "Hello World", "This is a test thread.", "alice", nil)
	require.NoError(t, err)
	reply, err := f.forum.CreateReply(f.ctx, th.ID, "Nice post!", "bob", nil, nil)
	require.NoError(t, err)

	got := f.reload(t, th.ID)
	assert.Equal(t, 1, got.ReplyCount)
	assert.False(t, got.LastReplyAt.Before(th.LastReplyAt))

	ok, err := f.forum.DeleteThread(f.ctx, th.ID, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	gone, err := f.forum.GetThread(f.ctx, th.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	orphan, err := f.forum.GetReply(f.ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func TestScenarioMessageReadAndDeleted(t *testing.T) {
	f := newFixture(t)
	msg, err := f.messages.SendMessage(f.ctx, "alice", "bob", "Hello", "Hi Bob")
	require.NoError(t, err)

	n, err := f.messages.GetUnreadCount(f.ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.messages.MarkRead(f.ctx, msg.ID)
	require.NoError(t, err)
	n, err = f.messages.GetUnreadCount(f.ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.messages.Delete(f.ctx, msg.ID, "bob")
	require.NoError(t, err)
	inbox, err := f.messages.GetInbox(f.ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, inbox)
	sent, err := f.messages.GetSent(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, msg.ID, sent[0].ID)
}
