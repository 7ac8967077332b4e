package shared

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"
)

var ErrInvalidJSON = errors.New("invalid JSON payload")

// DecodeJSON reads the request body into dst. Body size is bounded by the
// BodyLimit middleware.
func DecodeJSON(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
