package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
)

// Downloader fetches inbound media to a local file for transcription.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// TwilioMediaDownloader fetches Twilio-hosted media, which requires
// account-SID basic auth.
type TwilioMediaDownloader struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	dir        string
}

func NewTwilioMediaDownloader(accountSID, authToken, dir string) *TwilioMediaDownloader {
	return &TwilioMediaDownloader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		dir:        dir,
	}
}

// Download saves the media to a temp file and returns its path. The
// caller removes the file when done.
func (d *TwilioMediaDownloader) Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build media request: %v", apperrors.ErrExternalService, err)
	}
	req.SetBasicAuth(d.accountSID, d.authToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch media: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch media: status %d", apperrors.ErrExternalService, resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create media dir: %v", apperrors.ErrFilesystem, err)
	}
	path := filepath.Join(d.dir, "inbound-"+uuid.NewString()+".ogg")
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
