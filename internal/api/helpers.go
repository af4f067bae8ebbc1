package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/mostaks/kwr-dashboard-server/internal/errors"
)

// maxBodySize caps request bodies. Dashboard imports carry thousands of
// keyword rows, so this is deliberately roomy.
const maxBodySize = 16 << 20 // 16 MiB

// decodeJSON reads and validates a JSON request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return errors.Validation("invalid JSON body").WithCause(err)
	}
	if err := s.validator.Validate(dst); err != nil {
		return err
	}
	return nil
}
