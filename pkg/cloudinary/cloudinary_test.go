package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicIDKeepsReadableSlug(t *testing.T) {
	id := publicID("Week 1 Notes.pdf")
	require.Regexp(t, `^week-1-notes-[0-9a-f]{8}$`, id)
	require.NotEqual(t, id, publicID("Week 1 Notes.pdf"))
}

func TestPublicIDFallsBackForSymbolOnlyNames(t *testing.T) {
	require.Regexp(t, `^course-file-[0-9a-f]{8}$`, publicID("###.txt"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.ErrorIs(t, err, ErrMissingCredentials)
}
