package infra

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDigestCollectsErrorsOnly(t *testing.T) {
	var digest Digest
	log := zerolog.New(zerolog.MultiLevelWriter(&digest)).Level(zerolog.DebugLevel)

	log.Debug().Msg("noise")
	log.Info().Msg("progress")
	log.Warn().Msg("funding not yet matched")
	log.Error().Msg("assignment matched no donation")
	log.Error().Str("key", "Smith-John-20190315-500.00-WF").Msg("second problem")

	require.False(t, digest.Empty())
	body := digest.String()
	require.Contains(t, body, "assignment matched no donation")
	require.Contains(t, body, "second problem")
	require.NotContains(t, body, "progress")
	require.NotContains(t, body, "funding not yet matched")
}

func TestDigestEmptyRun(t *testing.T) {
	var digest Digest
	log := zerolog.New(zerolog.MultiLevelWriter(&digest))
	log.Info().Msg("all good")
	require.True(t, digest.Empty())
	require.Equal(t, "", digest.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.WarnLevel},
		{"bogus", zerolog.WarnLevel},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseLevel(tc.in))
		})
	}
}
