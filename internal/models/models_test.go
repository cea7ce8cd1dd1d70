package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusValid(t *testing.T) {
	assert.True(t, StatusAwaitingAssignment.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, SessionStatus("transcribing").Valid())
}

func TestSessionSpeakers(t *testing.T) {
	var s Session
	assert.Empty(t, s.Speakers())

	s.SetSpeakers([]string{"SPEAKER_01", "SPEAKER_00"})
	assert.Equal(t, []string{"SPEAKER_00", "SPEAKER_01"}, s.Speakers())
	assert.JSONEq(t, `["SPEAKER_00","SPEAKER_01"]`, string(s.SpeakersDetected))
}

func TestSessionMapping(t *testing.T) {
	var s Session
	assert.Nil(t, s.Mapping())

	s.SetMapping(map[string]string{"SPEAKER_00": "Alex"})
	assert.Equal(t, map[string]string{"SPEAKER_00": "Alex"}, s.Mapping())

	s.SetMapping(nil)
	assert.Nil(t, s.Mapping())
}
