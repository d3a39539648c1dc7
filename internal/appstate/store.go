package appstate

import (
	"errors"
	"os"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type NotificationType string

const (
	NotifyInfo    NotificationType = "INFO"
	NotifyWarning NotificationType = "WARNING"
	NotifyError   NotificationType = "ERROR"
	NotifySuccess NotificationType = "SUCCESS"
)

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt string           `json:"createdAt"`
	ActionURL string           `json:"actionUrl,omitempty"`
}

type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
}

// DefaultUser is the fixed identity the application auto-assigns; there
// is no authentication model.
func DefaultUser() User {
	return User{
		ID:    "operator",
		Email: "operator@resilicore.local",
		Name:  "Operations",
		Role:  "operator",
	}
}

// maxNotifications caps the retained list; the oldest entries are
// evicted first.
const maxNotifications = 50

// persistedState is the whitelisted subset written to disk. The
// notification log is deliberately excluded.
type persistedState struct {
	User  User  `yaml:"user"`
	Theme Theme `yaml:"theme"`
}

// Store is the explicitly-owned application state: current user, theme
// and the transient notification list.
type Store struct {
	mu            sync.Mutex
	path          string
	logger        *slog.Logger
	user          User
	theme         Theme
	notifications []Notification
	nowFn         func() time.Time
}

func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		user:   DefaultUser(),
		theme:  ThemeLight,
		nowFn:  time.Now,
	}
}

// Load restores the persisted user/theme subset. A missing state file
// is not an error; defaults apply.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var ps persistedState
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps.User.ID != "" {
		s.user = ps.User
	}
	if ps.Theme == ThemeLight || ps.Theme == ThemeDark {
		s.theme = ps.Theme
	}
	return nil
}

func (s *Store) save() {
	if s.path == "" {
		return
	}
	data, err := yaml.Marshal(persistedState{User: s.user, Theme: s.theme})
	if err == nil {
		err = os.WriteFile(s.path, data, 0o644)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("persist app state", "err", err)
	}
}

func (s *Store) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) SetUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.save()
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) SetTheme(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != ThemeLight && t != ThemeDark {
		return
	}
	s.theme = t
	s.save()
}

func (s *Store) ToggleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeLight {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	s.save()
	return s.theme
}

// AddNotification stamps an ID and creation time, prepends the entry
// and evicts beyond the retention cap. The stored copy is returned.
func (s *Store) AddNotification(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = s.nowFn().UTC().Format(time.RFC3339)
	s.notifications = append([]Notification{n}, s.notifications...)
	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[:maxNotifications]
	}
	return n
}

// MarkRead flips a notification to read; it reports whether the ID was
// found.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return true
		}
	}
	return false
}

func (s *Store) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

// Notifications returns a copy, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
