package game

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/logger"
	"go.uber.org/zap"
)

// maxIDAttempts 生成不冲突ID的最大尝试次数
const maxIDAttempts = 16

// errAlreadyAssigned 角色已分配，Update 不提交
var errAlreadyAssigned = stderrors.New("already assigned")

// EngineConfig 引擎配置
type EngineConfig struct {
	Registry   Registry
	Rand       RandSource
	RolePoints map[Role]int
	MaxGuesses int // 每个房间最多结算的猜测次数，0 表示不限制
	Logger     *zap.Logger
}

// Engine 房间引擎，负责房间生命周期、角色分配和猜测结算
type Engine struct {
	registry   Registry
	rand       RandSource
	rolePoints map[Role]int
	maxGuesses int
	logger     *zap.Logger
}

// NewEngine 创建房间引擎
func NewEngine(cfg *EngineConfig) *Engine {
	e := &Engine{
		registry:   cfg.Registry,
		rand:       cfg.Rand,
		rolePoints: cfg.RolePoints,
		maxGuesses: cfg.MaxGuesses,
		logger:     cfg.Logger,
	}
	if e.rand == nil {
		e.rand = DefaultRandSource()
	}
	if e.rolePoints == nil {
		e.rolePoints = DefaultRolePoints
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// CreateRoom 创建房间，创建者成为第一个玩家
func (e *Engine) CreateRoom(ctx context.Context, name string) (*JoinResult, error) {
	player := &Player{ID: newID(), Name: name}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		room := NewRoom(newID(), e.rolePoints)
		room.Players = append(room.Players, player)

		err := e.registry.Create(ctx, room)
		if stderrors.Is(err, ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		logger.LogGameEvent(e.logger, "room_created", room.ID, zap.String("player_id", player.ID))
		return &JoinResult{RoomID: room.ID, Player: viewOf(player)}, nil
	}
	return nil, errors.New(errors.ErrUnknown, "无法生成唯一的房间ID")
}

// JoinRoom 加入房间
func (e *Engine) JoinRoom(ctx context.Context, roomID, name string) (*JoinResult, error) {
	var player *Player
	err := e.registry.Update(ctx, roomID, func(room *Room) error {
		if room.IsFull() {
			return errors.New(errors.ErrRoomFull, "room "+roomID)
		}

		id := newID()
		for room.FindPlayer(id) != nil {
			id = newID()
		}
		player = &Player{ID: id, Name: name}
		room.Players = append(room.Players, player)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGameEvent(e.logger, "player_joined", roomID, zap.String("player_id", player.ID))
	return &JoinResult{RoomID: roomID, Player: viewOf(player)}, nil
}

// ListPlayers 公开名单
func (e *Engine) ListPlayers(ctx context.Context, roomID string) ([]PlayerIdentity, error) {
	var players []PlayerIdentity
	err := e.registry.View(ctx, roomID, func(room *Room) error {
		players = make([]PlayerIdentity, len(room.Players))
		for i, p := range room.Players {
			players[i] = PlayerIdentity{ID: p.ID, Name: p.Name}
		}
		return nil
	})
	return players, err
}

// AssignRoles 随机分配角色，只执行一次；重复调用返回 StatusAlreadyAssigned
func (e *Engine) AssignRoles(ctx context.Context, roomID string) (string, error) {
	err := e.registry.Update(ctx, roomID, func(room *Room) error {
		if room.Assigned {
			return errAlreadyAssigned
		}
		if len(room.Players) < MaxPlayers {
			return errors.Newf(errors.ErrInsufficientPlayers, "room %s has %d players", roomID, len(room.Players))
		}

		perm := e.rand.Perm(MaxPlayers)
		for i, p := range room.Players {
			role := AllRoles[perm[i]]
			p.Role = role
			p.Points = room.BasePoints(role)
		}
		room.Assigned = true
		return nil
	})
	if stderrors.Is(err, errAlreadyAssigned) {
		return StatusAlreadyAssigned, nil
	}
	if err != nil {
		return "", err
	}

	logger.LogGameEvent(e.logger, "roles_assigned", roomID)
	return StatusRolesAssigned, nil
}

// GetMyRole 玩家自己的完整视图
func (e *Engine) GetMyRole(ctx context.Context, roomID, playerID string) (*PlayerView, error) {
	var view PlayerView
	err := e.registry.View(ctx, roomID, func(room *Room) error {
		p := room.FindPlayer(playerID)
		if p == nil {
			return errors.New(errors.ErrPlayerNotFound)
		}
		view = viewOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// SubmitGuess 大臣猜测小偷并结算分数
//
// 同一局可以重复猜测，每次都会重新结算并追加记录，除非配置了 MaxGuesses。
// guessedID 不要求是房间成员，非成员视为猜错。
func (e *Engine) SubmitGuess(ctx context.Context, roomID, playerID, guessedID string) (*GuessResult, error) {
	var result GuessResult
	err := e.registry.Update(ctx, roomID, func(room *Room) error {
		mantri := room.FindPlayer(playerID)
		if mantri == nil {
			return errors.New(errors.ErrPlayerNotFound)
		}
		if mantri.Role != RoleMantri {
			return errors.New(errors.ErrForbidden)
		}
		chor := room.PlayerWithRole(RoleChor)
		if chor == nil {
			return errors.New(errors.ErrInvariantViolation, "room "+roomID)
		}
		if e.maxGuesses > 0 && len(room.Rounds) >= e.maxGuesses {
			return errors.Newf(errors.ErrGuessLimitReached, "limit %d", e.maxGuesses)
		}

		correct := chor.ID == guessedID
		if correct {
			mantri.Points += CorrectGuessBonus
			if sipahi := room.PlayerWithRole(RoleSipahi); sipahi != nil {
				sipahi.Points += CorrectGuessBonus
			}
			chor.Points -= CaughtPenalty
			result.Result = GuessCorrect
		} else {
			chor.Points += EscapeBonus
			result.Result = GuessWrong
		}
		result.CorrectChorID = chor.ID

		room.Rounds = append(room.Rounds, RoundRecord{
			Guesser: mantri.ID,
			Guessed: guessedID,
			Correct: correct,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGameEvent(e.logger, "guess_resolved", roomID,
		zap.String("guesser", playerID),
		zap.String("guessed", guessedID),
		zap.String("result", result.Result),
	)
	return &result, nil
}

// GetResult 全部玩家视图和猜测历史
func (e *Engine) GetResult(ctx context.Context, roomID string) (*RoomResult, error) {
	var result RoomResult
	err := e.registry.View(ctx, roomID, func(room *Room) error {
		result.Players = make([]PlayerView, len(room.Players))
		for i, p := range room.Players {
			result.Players[i] = viewOf(p)
		}
		result.Rounds = make([]RoundRecord, len(room.Rounds))
		copy(result.Rounds, room.Rounds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLeaderboard 按分数降序排列，同分保持加入顺序
func (e *Engine) GetLeaderboard(ctx context.Context, roomID string) ([]LeaderboardEntry, error) {
	var board []LeaderboardEntry
	err := e.registry.View(ctx, roomID, func(room *Room) error {
		board = make([]LeaderboardEntry, len(room.Players))
		for i, p := range room.Players {
			board[i] = LeaderboardEntry{Name: p.Name, Points: p.Points}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Points > board[j].Points
	})
	return board, nil
}

// RoomCount 当前房间数量
func (e *Engine) RoomCount() int {
	return e.registry.Len()
}
