package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateNewSession(t *testing.T) {
	s := NewStore(6, nil)

	sess := s.GetOrCreate("thread-1")
	assert.Equal(t, DefaultName, sess.Name)
	assert.Empty(t, sess.Messages)
	assert.NotEqual(t, sess.ID.String(), "00000000-0000-0000-0000-000000000000")

	again := s.GetOrCreate("thread-1")
	assert.Equal(t, sess.ID, again.ID)
}

func TestFirstMessageNamesThread(t *testing.T) {
	tests := []struct {
		name       string
		titleWords int
		want       string
	}{
		{"ui channel takes six words", 6, "Explain the refund policy please now"},
		{"webhook channel takes three words", 3, "Explain the refund"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.titleWords, nil)
			sess := s.Append("k", RoleUser, "Explain the refund policy please now")
			assert.Equal(t, tt.want, sess.Name)
		})
	}
}

func TestTitleNotRewrittenOnSecondMessage(t *testing.T) {
	s := NewStore(3, nil)
	s.Append("k", RoleUser, "First question about things")
	sess := s.Append("k", RoleUser, "Totally different follow up")
	assert.Equal(t, "First question about", sess.Name)
}

func TestAssistantMessageDoesNotNameThread(t *testing.T) {
	s := NewStore(3, nil)
	sess := s.Append("k", RoleAssistant, "Hello there, how can I help?")
	assert.Equal(t, DefaultName, sess.Name)
}

func TestShortFirstMessageTitle(t *testing.T) {
	s := NewStore(6, nil)
	sess := s.Append("k", RoleUser, "hi")
	assert.Equal(t, "hi", sess.Name)
}

func TestBlankFirstMessageKeepsSentinel(t *testing.T) {
	s := NewStore(6, nil)
	sess := s.Append("k", RoleUser, "   ")
	assert.Equal(t, DefaultName, sess.Name)
}

func TestExplicitRename(t *testing.T) {
	s := NewStore(6, nil)
	s.GetOrCreate("k")
	require.True(t, s.Rename("k", "Refund questions"))

	sess, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "Refund questions", sess.Name)

	assert.False(t, s.Rename("missing", "x"))
}

func TestMessageOrderingIsArrivalOrder(t *testing.T) {
	s := NewStore(6, nil)
	s.Append("k", RoleUser, "one")
	s.Append("k", RoleAssistant, "two")
	sess := s.Append("k", RoleUser, "three")

	require.Len(t, sess.Messages, 3)
	assert.Equal(t, "one", sess.Messages[0].Content)
	assert.Equal(t, "two", sess.Messages[1].Content)
	assert.Equal(t, "three", sess.Messages[2].Content)
}

func TestDeleteActiveSelectsFirstRemaining(t *testing.T) {
	s := NewStore(6, nil)
	s.GetOrCreate("a")
	s.GetOrCreate("b")
	s.GetOrCreate("c")
	s.SetActive("b")

	s.Delete("b")
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "a", active)
}

func TestDeleteLastSessionLeavesNoActive(t *testing.T) {
	s := NewStore(6, nil)
	s.GetOrCreate("only")
	s.Delete("only")

	_, ok := s.Active()
	assert.False(t, ok)
	assert.Empty(t, s.List())
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	s := NewStore(6, nil)
	s.GetOrCreate("a")
	s.GetOrCreate("b")
	s.SetActive("a")

	s.Delete("b")
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "a", active)
}

func TestDeletedKeyRecreatesFreshSession(t *testing.T) {
	s := NewStore(6, nil)
	first := s.Append("k", RoleUser, "hello world")
	s.Delete("k")

	fresh := s.GetOrCreate("k")
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.Equal(t, DefaultName, fresh.Name)
	assert.Empty(t, fresh.Messages)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := NewStore(6, nil)
	for i := 0; i < 5; i++ {
		s.GetOrCreate(fmt.Sprintf("k%d", i))
	}
	keys := s.Keys()
	assert.Equal(t, []string{"k0", "k1", "k2", "k3", "k4"}, keys)
}

func TestConcurrentSendersAreIsolated(t *testing.T) {
	s := NewStore(3, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("sender-%d", i)
			for j := 0; j < 10; j++ {
				s.Append(key, RoleUser, fmt.Sprintf("message %d from %d", j, i))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.List(), 20)
	for i := 0; i < 20; i++ {
		sess, ok := s.Get(fmt.Sprintf("sender-%d", i))
		require.True(t, ok)
		assert.Len(t, sess.Messages, 10)
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s := NewStore(6, nil)
	snap := s.Append("k", RoleUser, "hello")
	snap.Messages[0].Content = "mutated"

	sess, _ := s.Get("k")
	assert.Equal(t, "hello", sess.Messages[0].Content)
}
