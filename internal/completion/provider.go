package completion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

// Request is a single-turn generation request. Either field may be empty,
// but not both.
type Request struct {
	Prompt string
	Image  *domain.Image
}

func (r Request) validate() error {
	if r.Prompt == "" && (r.Image == nil || len(r.Image.Data) == 0) {
		return errors.New("request has neither prompt nor image")
	}
	return nil
}

// Provider generates text from a prompt and an optional image.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Kind tells the retry loop whether an error is worth another attempt.
type Kind int

const (
	KindPermanent Kind = iota
	KindRateLimited
)

func (k Kind) String() string {
	if k == KindRateLimited {
		return "rate_limited"
	}
	return "permanent"
}

// Error is returned by providers so callers can branch on Kind instead of the
// message text.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("completion failed with status %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the Kind of err. Errors that did not come from a provider
// are permanent.
func Classify(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindPermanent
}

func dataURL(img *domain.Image) string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
