package appstate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaults(t *testing.T) {
	s := NewStore("", testLogger())
	assert.Equal(t, DefaultUser(), s.User())
	assert.Equal(t, ThemeLight, s.Theme())
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
}

func TestAddNotificationPrependsAndStamps(t *testing.T) {
	s := NewStore("", testLogger())

	first := s.AddNotification(Notification{Title: "first", Type: NotifyInfo})
	second := s.AddNotification(Notification{Title: "second", Type: NotifyWarning})
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.CreatedAt)
	assert.NotEqual(t, first.ID, second.ID)

	notes := s.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Title)
	assert.Equal(t, "first", notes[1].Title)
	assert.Equal(t, 2, s.UnreadCount())
}

func TestNotificationRetentionCap(t *testing.T) {
	s := NewStore("", testLogger())
	for i := 0; i < 60; i++ {
		s.AddNotification(Notification{Title: fmt.Sprintf("note-%d", i)})
	}
	notes := s.Notifications()
	require.Len(t, notes, 50)
	// Newest survive; the ten oldest were evicted.
	assert.Equal(t, "note-59", notes[0].Title)
	assert.Equal(t, "note-10", notes[49].Title)
}

func TestMarkReadAndClear(t *testing.T) {
	s := NewStore("", testLogger())
	n := s.AddNotification(Notification{Title: "ack me"})
	s.AddNotification(Notification{Title: "other"})

	assert.True(t, s.MarkRead(n.ID))
	assert.False(t, s.MarkRead("nope"))
	assert.Equal(t, 1, s.UnreadCount())

	s.ClearNotifications()
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
}

func TestToggleTheme(t *testing.T) {
	s := NewStore("", testLogger())
	assert.Equal(t, ThemeDark, s.ToggleTheme())
	assert.Equal(t, ThemeLight, s.ToggleTheme())

	s.SetTheme("sepia")
	assert.Equal(t, ThemeLight, s.Theme())
	s.SetTheme(ThemeDark)
	assert.Equal(t, ThemeDark, s.Theme())
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	s := NewStore(path, testLogger())
	s.SetTheme(ThemeDark)
	s.SetUser(User{ID: "u-2", Email: "sre@resilicore.local", Name: "SRE", Role: "admin"})
	s.AddNotification(Notification{Title: "transient"})

	restored := NewStore(path, testLogger())
	require.NoError(t, restored.Load())
	assert.Equal(t, ThemeDark, restored.Theme())
	assert.Equal(t, "u-2", restored.User().ID)
	assert.Equal(t, "admin", restored.User().Role)
	// Notifications are session-scoped and never written to disk.
	assert.Empty(t, restored.Notifications())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "transient")
}

func TestLoadMissingFileIsNoError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	require.NoError(t, s.Load())
	assert.Equal(t, DefaultUser(), s.User())
}

func TestLoadIgnoresInvalidTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: neon\n"), 0o644))

	s := NewStore(path, testLogger())
	require.NoError(t, s.Load())
	assert.Equal(t, ThemeLight, s.Theme())
}
