package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/middleware"
	"github.com/Hun425/CS-Quiz-sub001/internal/session"
	"github.com/Hun425/CS-Quiz-sub001/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsError is delivered only to the session whose intent failed.
type wsError struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type BattleWSHandler struct {
	engine    *battle.Engine
	hub       *ws.Hub
	binder    *session.Binder
	jwtSecret string
	log       zerolog.Logger
}

func NewBattleWSHandler(engine *battle.Engine, hub *ws.Hub, binder *session.Binder, jwtSecret string, log zerolog.Logger) *BattleWSHandler {
	return &BattleWSHandler{
		engine:    engine,
		hub:       hub,
		binder:    binder,
		jwtSecret: jwtSecret,
		log:       log.With().Str("component", "battle_ws").Logger(),
	}
}

// HandleBattleWebSocket godoc
// @Summary      WebSocket connection for a battle room
// @Description  Connects to a room's event stream and accepts join/ready/answer/leave messages
// @Tags         websocket
// @Param        id path string true "Room ID"
// @Param        token query string true "JWT access token"
// @Router       /ws/battle/{id} [get]
func (h *BattleWSHandler) HandleBattleWebSocket(c *gin.Context) {
	roomID := c.Param("id")

	userID, err := h.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}

	// Reject before upgrading so a bad room id is a plain HTTP error.
	if _, err := h.engine.Snapshot(c.Request.Context(), roomID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
		return
	}

	sessionID := uuid.NewString()
	client := h.hub.Register(sessionID, conn)
	h.hub.Subscribe(roomID, client)
	defer func() {
		h.hub.Unsubscribe(roomID, client)
		h.hub.Remove(client)
	}()

	h.log.Debug().Str("room_id", roomID).Str("user_id", userID).Str("session_id", sessionID).Msg("session connected")

	// On disconnect the binding is left to its TTL: a reconnect within the
	// grace window rebinds the participant, a lapse turns into a leave.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.binder.Refresh(sessionID)

		in, err := parseIntent(data, roomID)
		if err != nil {
			h.hub.PublishToSession(sessionID, wsError{Type: "error", Kind: battle.KindConflict, Message: err.Error()})
			continue
		}
		h.dispatch(c.Request.Context(), sessionID, roomID, userID, in)
	}

	h.log.Debug().Str("room_id", roomID).Str("session_id", sessionID).Msg("session disconnected")
}

func (h *BattleWSHandler) authenticate(c *gin.Context) (string, error) {
	if id, ok := c.Get(middleware.UserIDKey); ok {
		if userID, ok := id.(string); ok && userID != "" {
			return userID, nil
		}
	}
	token := c.Query("token")
	if token == "" {
		return "", errors.New("token query parameter required")
	}
	return middleware.ValidateToken(token, h.jwtSecret)
}

func (h *BattleWSHandler) dispatch(ctx context.Context, sessionID, roomID, userID string, in intent) {
	var err error
	switch v := in.(type) {
	case joinIntent:
		err = h.handleJoin(ctx, sessionID, roomID, userID, v)
	case readyIntent:
		err = h.handleReady(ctx, sessionID, roomID, userID, v)
	case answerIntent:
		err = h.handleAnswer(ctx, sessionID, roomID, userID, v)
	case leaveIntent:
		err = h.handleLeave(ctx, sessionID, roomID, userID)
	}
	if err != nil {
		h.hub.PublishToSession(sessionID, wsError{Type: "error", Kind: battle.Kind(err), Message: err.Error()})
	}
}

func (h *BattleWSHandler) handleJoin(ctx context.Context, sessionID, roomID, userID string, in joinIntent) error {
	view, snap, err := h.engine.Join(ctx, roomID, userID, in.displayName)
	if errors.Is(err, battle.ErrAlreadyJoined) {
		// Reconnect: rebind the existing participant instead of failing.
		view, snap, err = h.existingParticipant(ctx, roomID, userID)
	}
	if err != nil {
		return err
	}

	h.binder.Bind(sessionID, roomID, view.ID)
	h.hub.PublishToSession(sessionID, battle.JoinReply{
		Type:          "joined",
		RoomID:        roomID,
		ParticipantID: view.ID,
		Snapshot:      snap,
	})
	return nil
}

func (h *BattleWSHandler) existingParticipant(ctx context.Context, roomID, userID string) (battle.ParticipantView, battle.RoomSnapshot, error) {
	snap, err := h.engine.Snapshot(ctx, roomID)
	if err != nil {
		return battle.ParticipantView{}, battle.RoomSnapshot{}, err
	}
	for _, p := range snap.Participants {
		if p.UserID == userID {
			return p, snap, nil
		}
	}
	return battle.ParticipantView{}, battle.RoomSnapshot{}, battle.ErrParticipantNotFound
}

// resolve maps the session to its participant, falling back to a roster scan
// when the binding lapsed while the connection stayed open.
func (h *BattleWSHandler) resolve(ctx context.Context, sessionID, roomID, userID string) (string, error) {
	if b, err := h.binder.Resolve(sessionID); err == nil {
		return b.ParticipantID, nil
	}
	view, _, err := h.existingParticipant(ctx, roomID, userID)
	if err != nil {
		return "", err
	}
	h.binder.Bind(sessionID, roomID, view.ID)
	return view.ID, nil
}

func (h *BattleWSHandler) handleReady(ctx context.Context, sessionID, roomID, userID string, in readyIntent) error {
	participantID, err := h.resolve(ctx, sessionID, roomID, userID)
	if err != nil {
		return err
	}
	_, err = h.engine.SetReady(ctx, roomID, participantID, in.ready)
	return err
}

func (h *BattleWSHandler) handleAnswer(ctx context.Context, sessionID, roomID, userID string, in answerIntent) error {
	participantID, err := h.resolve(ctx, sessionID, roomID, userID)
	if err != nil {
		return err
	}

	res, err := h.engine.SubmitAnswer(ctx, roomID, participantID, in.questionIndex, in.value)
	if err != nil && !errors.Is(err, battle.ErrDuplicateAnswer) {
		return err
	}

	// A duplicate submission gets the original verdict back, unchanged.
	h.hub.PublishToSession(sessionID, battle.AnswerReply{
		Type:          "answer_result",
		RoomID:        roomID,
		QuestionIndex: res.Answer.QuestionIndex,
		IsCorrect:     res.Answer.IsCorrect,
		PointsAwarded: res.Answer.PointsAwarded,
		CorrectAnswer: res.CorrectAnswer,
		TotalScore:    res.TotalScore,
	})
	return nil
}

func (h *BattleWSHandler) handleLeave(ctx context.Context, sessionID, roomID, userID string) error {
	participantID, err := h.resolve(ctx, sessionID, roomID, userID)
	if err != nil {
		return err
	}

	snap, err := h.engine.Leave(ctx, roomID, participantID)
	if err != nil {
		return err
	}

	h.binder.Unbind(sessionID)
	h.hub.PublishToSession(sessionID, battle.JoinReply{
		Type:     "left",
		RoomID:   roomID,
		Snapshot: snap,
	})
	return nil
}
