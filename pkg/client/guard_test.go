package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// guardSession builds a session in a given resolved state without a server
func guardSession(state State, loaded bool, user *User) *Session {
	s := NewSession(New("http://localhost"))
	s.state = state
	s.loaded = loaded
	s.user = user
	return s
}

func TestGuard(t *testing.T) {
	researcher := &User{ID: 1, Username: "alice", Role: "RESEARCHER"}
	admin := &User{ID: 2, Username: "boss", Role: "ADMIN"}

	tests := []struct {
		name    string
		session *Session
		roles   []string
		want    Decision
	}{
		{
			name:    "unresolved session shows loading, never a redirect",
			session: guardSession(StateUninitialized, false, nil),
			want:    ShowLoading,
		},
		{
			name:    "session loading mid-restore still shows loading",
			session: guardSession(StateLoading, false, nil),
			want:    ShowLoading,
		},
		{
			name:    "anonymous goes to login",
			session: guardSession(StateAnonymous, true, nil),
			want:    RedirectLogin,
		},
		{
			name:    "authenticated with no role restriction renders",
			session: guardSession(StateAuthenticated, true, researcher),
			want:    Render,
		},
		{
			name:    "matching role renders",
			session: guardSession(StateAuthenticated, true, admin),
			roles:   []string{"ADMIN"},
			want:    Render,
		},
		{
			name:    "any of several roles renders",
			session: guardSession(StateAuthenticated, true, researcher),
			roles:   []string{"ADMIN", "RESEARCHER"},
			want:    Render,
		},
		{
			name:    "role mismatch goes to unauthorized, not login",
			session: guardSession(StateAuthenticated, true, researcher),
			roles:   []string{"ADMIN"},
			want:    RedirectUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.session, tt.roles...))
		})
	}
}
