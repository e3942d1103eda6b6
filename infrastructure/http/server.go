// Package http exposes the thin CRUD surface of the service: user
// registration, the room directory, message history and search, plus the
// WebSocket endpoint handing off to the transport package.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"chat-hub/domain"
	cherr "chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/services"
)

const defaultSearchLimit = 10

type Server struct {
	directory services.IDirectoryService
	chat      services.IChatService
	ws        http.Handler
	log       *slog.Logger
}

func NewServer(directory services.IDirectoryService, chat services.IChatService,
	ws http.Handler, log *slog.Logger) *Server {
	return &Server{directory: directory, chat: chat, ws: ws, log: log.With("component", "http")}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/users", s.registerUser)
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms", s.listRooms)
	api.GET("/rooms/:id/messages", s.roomMessages)
	api.GET("/rooms/:id/search", s.searchMessages)

	router.GET("/ws", gin.WrapH(s.ws))
	return router
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Online    bool   `json:"online"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username is required"})
		return
	}

	user, err := s.directory.Register(req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

type roomResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ActiveUsers []domain.Member `json:"activeUsers"`
	CreatedAt   string          `json:"createdAt"`
}

func (s *Server) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room name is required"})
		return
	}

	room, err := s.directory.CreateRoom(req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (s *Server) listRooms(c *gin.Context) {
	rooms, err := s.directory.ListRooms()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(rooms, func(room domain.Room, _ int) roomResponse {
		return toRoomResponse(room)
	}))
}

type messageResponse struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Sender    string `json:"senderName"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) roomMessages(c *gin.Context) {
	var cursor *string
	if raw, ok := c.GetQuery("cursor"); ok && raw != "" {
		cursor = &raw
	}

	messages, next, err := s.chat.History(domain.RoomID(c.Param("id")), cursor)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": lo.Map(messages, func(msg domain.Message, _ int) messageResponse {
			return messageResponse{
				ID:        msg.ID.String(),
				SenderID:  string(msg.SenderID),
				Sender:    msg.SenderName,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt.Format(timeLayout),
			}
		}),
		"cursor": next,
	})
}

func (s *Server) searchMessages(c *gin.Context) {
	terms := c.Query("q")
	if terms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Query parameter q is required"})
		return
	}
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid limit"})
			return
		}
		limit = parsed
	}

	hits, err := s.chat.Search(c.Request.Context(), domain.RoomID(c.Param("id")), terms, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(hits, func(hit repositories.SearchHit, _ int) gin.H {
		return gin.H{
			"id":        hit.MessageID,
			"senderId":  string(hit.SenderID),
			"content":   hit.Content,
			"createdAt": hit.CreatedAt.Format(timeLayout),
		}
	}))
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, cherr.ErrUserExists), errors.Is(err, cherr.ErrRoomExists):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, cherr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	default:
		s.log.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        string(user.ID),
		Username:  user.Username,
		Online:    user.Online,
		CreatedAt: user.CreatedAt.Format(timeLayout),
	}
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{
		ID:          string(room.ID),
		Name:        room.Name,
		ActiveUsers: room.ActiveUsers,
		CreatedAt:   room.CreatedAt.Format(timeLayout),
	}
}
