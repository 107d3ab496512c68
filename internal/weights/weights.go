// Package weights guarantees that model weight files are present locally,
// fetching them from their release URLs on first use.
package weights

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ahmad66-rgb/upscaler/internal/logging"
)

// Error codes for weight provisioning.
const (
	ErrCodeUnknownModel   = "UNKNOWN_MODEL"
	ErrCodeDownloadFailed = "DOWNLOAD_FAILED"
)

// Error represents a provisioning failure with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// defaultRegistry maps weight file names to their remote locations.
// Extending this mapping is a deployment-time change.
var defaultRegistry = map[string]string{
	"RealESRGAN_x4plus.pth":    "https://github.com/xinntao/Real-ESRGAN/releases/download/v0.1.0/RealESRGAN_x4plus.pth",
	"realesr-animevideov3.pth": "https://github.com/xinntao/Real-ESRGAN/releases/download/v0.2.5.0/realesr-animevideov3.pth",
}

// Provisioner ensures weight files exist locally.
type Provisioner struct {
	client   *http.Client
	registry map[string]string
	logger   *slog.Logger
}

// NewProvisioner creates a provisioner over the built-in registry.
func NewProvisioner() *Provisioner {
	return newProvisioner(http.DefaultClient, defaultRegistry)
}

func newProvisioner(client *http.Client, registry map[string]string) *Provisioner {
	return &Provisioner{
		client:   client,
		registry: registry,
		logger:   logging.GetLogger("weights"),
	}
}

// Registered reports whether name is in the registry.
func (p *Provisioner) Registered(name string) bool {
	_, ok := p.registry[name]
	return ok
}

// Ensure guarantees that targetDir/name exists and returns its path. An
// already-present file is returned immediately with no re-fetch and no
// integrity check against the remote. Blocking for the duration of the
// transfer; not cancellable mid-download.
func (p *Provisioner) Ensure(name, targetDir string) (string, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", newError(ErrCodeDownloadFailed, "create weights directory", err)
	}

	targetPath := filepath.Join(targetDir, name)
	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, nil
	}

	url, ok := p.registry[name]
	if !ok {
		return "", newError(ErrCodeUnknownModel,
			fmt.Sprintf("no download URL configured for %s", name), nil)
	}

	p.logger.Info("downloading model weight", "name", name, "url", url)
	if err := p.download(url, targetPath); err != nil {
		return "", newError(ErrCodeDownloadFailed,
			fmt.Sprintf("model download failed for %s", name), err)
	}

	// Re-verify: covers silent truncation or failure of the transport.
	if _, err := os.Stat(targetPath); err != nil {
		return "", newError(ErrCodeDownloadFailed,
			fmt.Sprintf("model download failed for %s", name), err)
	}
	return targetPath, nil
}

func (p *Provisioner) download(url, targetPath string) error {
	resp, err := p.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), ".weight-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, targetPath)
}
