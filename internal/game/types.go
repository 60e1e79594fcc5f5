package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role 玩家角色
type Role string

// 四个固定角色：国王、大臣、士兵、小偷
const (
	RoleRaja   Role = "Raja"
	RoleMantri Role = "Mantri"
	RoleSipahi Role = "Sipahi"
	RoleChor   Role = "Chor"
)

// MaxPlayers 每个房间的玩家数量上限（也是分配角色所需人数）
const MaxPlayers = 4

// AllRoles 参与洗牌的角色顺序
var AllRoles = [MaxPlayers]Role{RoleRaja, RoleMantri, RoleSipahi, RoleChor}

// DefaultRolePoints 角色基础分
var DefaultRolePoints = map[Role]int{
	RoleRaja:   1000,
	RoleMantri: 800,
	RoleSipahi: 500,
	RoleChor:   0,
}

// 猜测结算分值
const (
	CorrectGuessBonus = 50  // 猜中时大臣、士兵各加分
	CaughtPenalty     = 100 // 猜中时小偷扣分
	EscapeBonus       = 150 // 猜错时小偷加分
)

// 猜测结果
const (
	GuessCorrect = "correct"
	GuessWrong   = "wrong"
)

// 分配角色结果
const (
	StatusRolesAssigned   = "roles assigned"
	StatusAlreadyAssigned = "already assigned"
)

// ParseRole 解析角色名（大小写不敏感）
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("未知角色: %q", s)
}

// RolePointsFromConfig 将配置中的角色分值转换为角色表，缺失的角色使用默认值
func RolePointsFromConfig(raw map[string]int) (map[Role]int, error) {
	points := make(map[Role]int, len(DefaultRolePoints))
	for r, p := range DefaultRolePoints {
		points[r] = p
	}
	for name, p := range raw {
		r, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		points[r] = p
	}
	return points, nil
}

// MarshalJSON 未分配的角色序列化为 null
func (r Role) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON null 解析为未分配
func (r *Role) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Role(s)
	return nil
}

// Player 玩家
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Points int    `json:"points"`
}

// RoundRecord 一次猜测的结算记录，写入后不再修改
type RoundRecord struct {
	Guesser string `json:"guesser"`
	Guessed string `json:"guessed"`
	Correct bool   `json:"correct"`
}

// Room 房间
type Room struct {
	ID         string        `json:"id"`
	Players    []*Player     `json:"players"`
	Assigned   bool          `json:"assigned"`
	Rounds     []RoundRecord `json:"rounds"`
	RolePoints map[Role]int  `json:"default_points"`
}

// NewRoom 创建房间，角色分值在此刻固定
func NewRoom(id string, rolePoints map[Role]int) *Room {
	points := make(map[Role]int, len(rolePoints))
	for r, p := range rolePoints {
		points[r] = p
	}
	return &Room{
		ID:         id,
		Players:    make([]*Player, 0, MaxPlayers),
		Rounds:     make([]RoundRecord, 0),
		RolePoints: points,
	}
}

// Clone 深拷贝
func (r *Room) Clone() *Room {
	c := &Room{
		ID:         r.ID,
		Players:    make([]*Player, len(r.Players), max(len(r.Players), MaxPlayers)),
		Assigned:   r.Assigned,
		Rounds:     make([]RoundRecord, len(r.Rounds)),
		RolePoints: make(map[Role]int, len(r.RolePoints)),
	}
	for i, p := range r.Players {
		cp := *p
		c.Players[i] = &cp
	}
	copy(c.Rounds, r.Rounds)
	for role, p := range r.RolePoints {
		c.RolePoints[role] = p
	}
	return c
}

// IsFull 房间是否已满
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// FindPlayer 按ID查找玩家
func (r *Room) FindPlayer(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// PlayerWithRole 查找持有某角色的玩家
func (r *Room) PlayerWithRole(role Role) *Player {
	for _, p := range r.Players {
		if p.Role == role {
			return p
		}
	}
	return nil
}

// BasePoints 角色基础分；旧数据缺少分值表时回退到默认值
func (r *Room) BasePoints(role Role) int {
	if p, ok := r.RolePoints[role]; ok {
		return p
	}
	return DefaultRolePoints[role]
}

// normalize 修正反序列化后的房间：ID 以存储键为准，丢弃空玩家，补齐空切片/空表
func (r *Room) normalize(key string) {
	r.ID = key

	players := make([]*Player, 0, max(len(r.Players), MaxPlayers))
	for _, p := range r.Players {
		if p != nil {
			players = append(players, p)
		}
	}
	r.Players = players

	if r.Rounds == nil {
		r.Rounds = make([]RoundRecord, 0)
	}
	if r.RolePoints == nil {
		r.RolePoints = make(map[Role]int, len(DefaultRolePoints))
		for role, p := range DefaultRolePoints {
			r.RolePoints[role] = p
		}
	}
}

// PlayerIdentity 公开名单视图（不包含角色和分数）
type PlayerIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerView 玩家完整视图
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Points int    `json:"points"`
}

func viewOf(p *Player) PlayerView {
	return PlayerView{ID: p.ID, Name: p.Name, Role: p.Role, Points: p.Points}
}

// JoinResult 创建/加入房间结果
type JoinResult struct {
	RoomID string     `json:"room_id"`
	Player PlayerView `json:"player"`
}

// GuessResult 猜测结果
type GuessResult struct {
	Result        string `json:"result"`
	CorrectChorID string `json:"correct_chor_id"`
}

// RoomResult 房间结算视图
type RoomResult struct {
	Players []PlayerView  `json:"players"`
	Rounds  []RoundRecord `json:"rounds"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}
