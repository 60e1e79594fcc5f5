package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// idLength 房间/玩家ID长度
const idLength = 8

// RandSource 洗牌随机源
type RandSource interface {
	// Perm 返回 [0,n) 的一个均匀随机排列
	Perm(n int) []int
}

// globalSource 使用运行时自动播种的全局生成器，并发安全
type globalSource struct{}

func (globalSource) Perm(n int) []int {
	return rand.Perm(n)
}

// DefaultRandSource 默认随机源
func DefaultRandSource() RandSource {
	return globalSource{}
}

// NewSeededRandSource 可复现的随机源（非并发安全，仅在注册表写锁内使用）
func NewSeededRandSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// newID 生成短ID
func newID() string {
	return uuid.NewString()[:idLength]
}
