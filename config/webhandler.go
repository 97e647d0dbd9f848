package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// apiResponse is the body of every /api/config reply that is not the
// runtime config itself.
type apiResponse struct {
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

// ConfigHandler serves GET and POST on /api/config for the config file
// cfile. GET returns the runtime settings, POST replaces them. A successful
// POST rewrites the file, which the watcher turns into a reload.
func ConfigHandler(cfile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getRuntimeConfig(w, cfile)
		case http.MethodPost:
			setRuntimeConfig(w, r, cfile)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Message: "Method not allowed"})
		}
	}
}

func getRuntimeConfig(w http.ResponseWriter, cfile string) {
	// The file is read on every request, it may have been edited by hand.
	conf, err := ReadConfig(cfile, false)
	if err != nil {
		slog.Error("Can't read config for API", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Failed to read configuration", Problems: problems(err)})
		return
	}
	writeJSON(w, http.StatusOK, conf.Runtime())
}

func setRuntimeConfig(w http.ResponseWriter, r *http.Request, cfile string) {
	defer r.Body.Close()

	var rc RuntimeConfig
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rc); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid request body", Problems: []string{err.Error()}})
		return
	}

	conf, err := ReadConfig(cfile, false)
	if err != nil {
		slog.Error("Can't read config for update", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Failed to read configuration", Problems: problems(err)})
		return
	}

	conf.Merge(rc)
	if err := conf.Validate(); err != nil {
		slog.Warn("Rejected runtime config update", "error", err)
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid configuration", Problems: problems(err)})
		return
	}

	out, err := yaml.Marshal(conf)
	if err != nil {
		slog.Error("Can't encode config", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Failed to encode configuration"})
		return
	}
	if err := os.WriteFile(cfile, out, 0o644); err != nil {
		slog.Error("Can't write config file", "file", cfile, "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Failed to save configuration"})
		return
	}

	slog.Info("Runtime config updated by API", "file", cfile,
		"low", rc.Levels.LowThreshold, "empty", rc.Levels.EmptyThreshold, "dispense", rc.Dispense.Duration)
	writeJSON(w, http.StatusOK, conf.Runtime())
}

// problems splits a joined validation error into its single messages.
func problems(err error) []string {
	top := err
	for {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			var out []string
			for _, e := range joined.Unwrap() {
				out = append(out, e.Error())
			}
			return out
		}
		next := errors.Unwrap(err)
		if next == nil {
			return []string{top.Error()}
		}
		err = next
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Can't encode API response", "error", err)
	}
}
