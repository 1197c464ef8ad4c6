package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unabiz/wisol-go/wisol"
)

// Server handles incoming HTTP requests for interacting with the
// configured Wisol module
type Server struct {
	Logger *slog.Logger
	Driver *wisol.Driver
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// handleMessage processes incoming HTTP POST requests to send Sigfox
// messages
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	type MessageRequest struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch {
	case req.Payload != "":
		err = s.Driver.SendMessage(r.Context(), req.Payload)
	case req.Text != "":
		err = s.Driver.SendString(r.Context(), req.Text)
	default:
		s.sendError(w, "payload or text is required", http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, wisol.ErrRateLimited):
		s.sendError(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, wisol.ErrBusy):
		s.sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wisol.ErrInvalidPayload):
		s.sendError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		s.Logger.Error("Send failed", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

// handleStatus reports the module's temperature and supply voltage
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	temp, err := s.Driver.Temperature(r.Context())
	if err != nil {
		s.Logger.Error("Temperature read failed", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	volt, err := s.Driver.Voltage(r.Context())
	if err != nil {
		s.Logger.Error("Voltage read failed", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	type StatusResponse struct {
		Temperature float64 `json:"temperature_c"`
		Voltage     float64 `json:"voltage_v"`
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Temperature: temp, Voltage: volt})
}
