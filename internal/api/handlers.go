package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/shadowchat/shadowchat/internal/server"
)

type CreateRoomResponse struct {
	RoomId string `json:"room_id"`
}

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *App) createRoom(w http.ResponseWriter, r *http.Request) {
	token, err := s.gateway.CreateRoom(r.Context())
	if err != nil {
		s.log.Println("create room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, CreateRoomResponse{RoomId: token})
}

func (s *App) serveWs(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("room_id")
	if token == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(token, conn, s.gateway, s.log, s.stats)

	// The connection is accepted before the room is validated so a terminal
	// room can be reported over the socket itself, then closed.
	if err := s.gateway.Join(r.Context(), token, client); err != nil {
		if !errors.Is(err, server.ErrRoomNotFound) {
			s.log.Println("join room:", err)
		}
		client.Reject(server.ErrRoomGone())
		return
	}

	client.Start()
}
