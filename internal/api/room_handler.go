package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/game"
	"go.uber.org/zap"
)

// defaultPlayerName 请求未提供名字时使用
const defaultPlayerName = "player"

// RoomHandler 房间处理器
type RoomHandler struct {
	engine *game.Engine
	logger *zap.Logger
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(engine *game.Engine, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{
		engine: engine,
		logger: logger,
	}
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	Name *string `json:"name"`
}

// JoinRoomRequest 加入房间请求
type JoinRoomRequest struct {
	RoomID string  `json:"room_id"`
	Name   *string `json:"name"`
}

// GuessRequest 猜测请求
type GuessRequest struct {
	PlayerID  string `json:"player_id"`
	GuessedID string `json:"guessed_id"`
}

// CreateRoom 创建房间
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.engine.CreateRoom(c.Request.Context(), nameOrDefault(req.Name))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// JoinRoom 加入房间
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.engine.JoinRoom(c.Request.Context(), req.RoomID, nameOrDefault(req.Name))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListPlayers 玩家名单
func (h *RoomHandler) ListPlayers(c *gin.Context) {
	players, err := h.engine.ListPlayers(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

// AssignRoles 分配角色
func (h *RoomHandler) AssignRoles(c *gin.Context) {
	status, err := h.engine.AssignRoles(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": status})
}

// GetMyRole 查看自己的角色
func (h *RoomHandler) GetMyRole(c *gin.Context) {
	view, err := h.engine.GetMyRole(c.Request.Context(), c.Param("room_id"), c.Param("player_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitGuess 大臣提交猜测
func (h *RoomHandler) SubmitGuess(c *gin.Context) {
	var req GuessRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.engine.SubmitGuess(c.Request.Context(), c.Param("room_id"), req.PlayerID, req.GuessedID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetResult 房间结算
func (h *RoomHandler) GetResult(c *gin.Context) {
	res, err := h.engine.GetResult(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetLeaderboard 排行榜
func (h *RoomHandler) GetLeaderboard(c *gin.Context) {
	board, err := h.engine.GetLeaderboard(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

// bind 解析JSON请求体，空请求体视为空对象
func (h *RoomHandler) bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || stderrors.Is(err, io.EOF) {
		return true
	}
	h.fail(c, errors.Wrap(err, errors.ErrInvalidParam, err.Error()))
	return false
}

// fail 按错误类型渲染响应
func (h *RoomHandler) fail(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("请求失败", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, errors.NewErrorResponse(appErr))
}

func nameOrDefault(name *string) string {
	if name == nil {
		return defaultPlayerName
	}
	return *name
}
