package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := audio.Blob{Data: []byte("opus bytes"), ContentType: audio.MIMEWebM}
	require.NoError(t, s.Save(ctx, 7, in))

	out, err := s.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.Delete(ctx, 7))
	_, err = s.Load(ctx, 7)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 7), utils.ErrNotFound)
}

func TestFSStoreOverwrite(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, 1, audio.Blob{Data: []byte("v1"), ContentType: audio.MIMEWebM}))
	require.NoError(t, s.Save(ctx, 1, audio.Blob{Data: []byte("v2"), ContentType: audio.MIMEMpeg}))

	out, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), out.Data)
	assert.Equal(t, audio.MIMEMpeg, out.ContentType)
}
