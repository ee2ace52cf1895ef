package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventRendering(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{Joined{Name: "alice"}, "A new user @alice Joined"},
		{Left{Name: "alice"}, "*** User @alice Left the chat"},
		{System{Text: "3 users online"}, "[:: System ::] 3 users online"},
		{Chat{Name: "bob", Text: "hello"}, "[bob]=> hello"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, tc.event.String())
	}
}

func TestEventRenderingIsPure(t *testing.T) {
	evt := Chat{Name: "bob", Text: "hello"}
	require.Equal(t, evt.String(), evt.String())
	require.Equal(t, evt.String(), Chat{Name: "bob", Text: "hello"}.String())
}
