package handler

import (
	"encoding/json"
	"net/http"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Envelope is the JSON wrapper of every dispatcher response. Extra keys
// sit at the top level next to status and data.
type Envelope struct {
	Status       string
	Data         any
	ErrorMessage string
	Extra        map[string]any
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["status"] = e.Status
	if e.Status == statusOK {
		out["data"] = e.Data
	} else {
		out["error_message"] = e.ErrorMessage
	}
	return json.Marshal(out)
}

func okEnvelope(data any, extra map[string]any) Envelope {
	return Envelope{Status: statusOK, Data: data, Extra: extra}
}

func errorEnvelope(msg string) Envelope {
	return Envelope{Status: statusError, ErrorMessage: msg}
}

// WriteError sends an error envelope outside of a dispatch, e.g. from a
// pre-request hook or the fallback route.
func WriteError(w http.ResponseWriter, status int, msg string) {
	write(w, render(status, errorEnvelope(msg), ""))
}
