package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/fault"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// statusOf maps a failure to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	}

	switch fault.KindOf(err) {
	case fault.KindShapeMismatch, fault.KindTypeTagMismatch, fault.KindInvalidParameter, fault.KindNotFound:
		return http.StatusUnprocessableEntity
	case fault.KindExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before touching w, so an unencodable value can still
// be reported as an error response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error(), Kind: string(fault.KindOf(err))}

	var wiring *chain.WiringError
	if errors.As(err, &wiring) {
		resp.Kind = "wiring"
		for _, issue := range wiring.Issues {
			resp.Issues = append(resp.Issues, issue.Error())
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "error", err)
	}
	if werr := writeJSON(w, status, resp); werr != nil {
		s.logger.Error("error response encode failed", "error", werr)
	}
}
