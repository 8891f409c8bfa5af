package types

import (
	"math"
	"time"
)

// DurationInfinite "无限等待"超时哨兵
//
// 计算绝对截止时刻时，now + timeout 溢出的情况一律饱和为无界等待，
// 绝不回绕成已过期的时刻。
const DurationInfinite = time.Duration(math.MaxInt64)
