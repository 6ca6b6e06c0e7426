package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/serialmux"
)

// AttachDevice exposes the pen digitiser behind m. status may be nil.
func (s *Server) AttachDevice(m serialmux.SerialMuxInterface, status *serialmux.DeviceStatus) {
	s.m = m
	s.status = status
}

type deviceResponse struct {
	Attached bool           `json:"attached"`
	Status   map[string]any `json:"status"`
}

func (s *Server) showDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := deviceResponse{Attached: serialmux.Attached(s.m), Status: map[string]any{}}
	if s.status != nil {
		resp.Status = s.status.Snapshot()
	}
	httputil.WriteJSONOK(w, resp)
}

// sendCommandHandler handles POST /api/device/command with a "command" form
// value.
func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.m == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no digitiser attached")
		return
	}

	command := strings.TrimSpace(r.FormValue("command"))
	if command == "" {
		httputil.BadRequest(w, "missing command")
		return
	}
	if err := s.m.SendCommand(command); err != nil {
		if errors.Is(err, serialmux.ErrNoDigitiser) {
			httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no digitiser attached")
			return
		}
		monitoring.Opsf("Error sending command %q: %v", command, err)
		httputil.InternalServerError(w, "failed to send command")
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"sent": command})
}
