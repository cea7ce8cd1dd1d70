package ffmpeg

// DefaultSampleRate is used when a caller needs a fixed rate and none is configured.
const DefaultSampleRate = 16000

// AudioMetadata represents metadata extracted from an audio file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (wav, mp3, mov,mp4,... )
	Codec      string  `json:"codec"`       // Audio codec
	Size       int64   `json:"size"`        // File size in bytes
	HasVideo   bool    `json:"has_video"`
}

// SampleIndex converts seconds to a sample offset at the file's rate.
func (m *AudioMetadata) SampleIndex(seconds float64) int64 {
	return int64(seconds * float64(m.SampleRate))
}
