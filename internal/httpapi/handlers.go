package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/hub"
	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"github.com/DoyleJ11/football-auction-backend/internal/types"
	"github.com/DoyleJ11/football-auction-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength  = 6
)

func GenerateCode() (string, error) {
	const charset = codeCharset

	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ValidCode reports whether code could have come from GenerateCode.
func ValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeCharset, rune(code[i])) {
			return false
		}
	}
	return true
}

type LobbyResponse struct {
	Code       string      `json:"code"`
	Version    int         `json:"version"`
	NumClients int         `json:"num_clients"`
	State      engine.View `json:"state"`
}

func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			if getLobby(h, c) == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("lobby", c))
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.EnsureLobby{Code: code, Reply: reply}
		if <-reply == nil {
			writeError(w, http.StatusInternalServerError, "failed to create lobby")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"code": code})
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		h.Inbox() <- hub.ListLobbies{Reply: reply}
		writeJSON(w, http.StatusOK, map[string]any{"lobbies": <-reply})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := getLobby(h, chi.URLParam(r, "code"))
		if lb == nil {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		writeLobby(r.Context(), w, lb, http.StatusOK)
	}
}

func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if getLobby(h, code) == nil {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Inbox() <- hub.RemoveLobby{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LobbyCommand applies one client message, the same ones the socket accepts.
func LobbyCommand(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := getLobby(h, chi.URLParam(r, "code"))
		if lb == nil {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}

		var in types.ClientMessage
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		cmd, err := ws.ToEngineCommand(in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := lb.Submit(ctx, "http:"+middleware.GetReqID(r.Context()), cmd); err != nil {
			writeDomainError(w, err)
			return
		}
		writeLobby(ctx, w, lb, http.StatusOK)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func getLobby(h *hub.Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
	return <-reply
}

func writeLobby(ctx context.Context, w http.ResponseWriter, lb *lobby.Lobby, status int) {
	v, err := lb.State(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, status, LobbyResponse{
		Code:       lb.Code(),
		Version:    v.Version,
		NumClients: v.NumClients,
		State:      v.State,
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": strings.TrimSpace(err.Error()), "code": engine.ErrorCode(err)}
	switch {
	case errors.Is(err, engine.ErrValidation):
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrSupplyExhausted):
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, engine.ErrNoBids), errors.Is(err, engine.ErrInsufficientFunds), errors.Is(err, engine.ErrNoEmptySlot):
		writeJSON(w, http.StatusConflict, body)
	case errors.Is(err, engine.ErrUnsupportedCommand):
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, lobby.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
