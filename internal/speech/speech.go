// Package speech handles the voice-note path: transcribing inbound
// audio and synthesizing spoken replies.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
)

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer renders text to an audio file under the media directory
// and returns the file's path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// OpenAISpeech implements both directions with Whisper and TTS.
type OpenAISpeech struct {
	client   openai.Client
	mediaDir string
}

func NewOpenAISpeech(apiKey, mediaDir string) *OpenAISpeech {
	return &OpenAISpeech{
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		mediaDir: mediaDir,
	}
}

func (s *OpenAISpeech) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: open audio %s: %v", apperrors.ErrFilesystem, audioPath, err)
	}
	defer file.Close()

	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  file,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTranscription, err)
	}
	return resp.Text, nil
}

// Synthesize writes an MP3 voice note and returns its path. The caller
// owns the file and removes it after delivery.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice("nova"),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: speech synthesis: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create media dir: %v", apperrors.ErrFilesystem, err)
	}
	path := filepath.Join(s.mediaDir, "tts-"+uuid.NewString()+".mp3")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", apperrors.ErrFilesystem, path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %v", apperrors.ErrFilesystem, path, err)
	}
	return path, nil
}
