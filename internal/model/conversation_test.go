package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParticipantKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	require.Equal(t, ParticipantKey(a, b), ParticipantKey(b, a))
	require.NotEqual(t, ParticipantKey(a, b), ParticipantKey(a, primitive.NewObjectID()))
}

func TestDeriveChatTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"empty falls back to default", "", DefaultChatTitle},
		{"short message kept whole", "mild fever", "mild fever"},
		{"long message truncated", "I have been feeling dizzy every morning this week", "I have been feeling dizzy ever..."},
		{"exactly at the limit", "123456789012345678901234567890", "123456789012345678901234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeriveChatTitle(tt.message))
		})
	}
}
