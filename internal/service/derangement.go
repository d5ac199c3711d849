package service

import (
	"crypto/rand"
	"math/big"
)

// MaxDerangementAttempts 是拒絕取樣的重試上限
const MaxDerangementAttempts = 5000

// randIndex 回傳 [0, n) 內的均勻隨機整數，測試時可替換
var randIndex = func(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// Derange 回傳 ids 的一個排列 receivers，使得每個 i 都有 receivers[i] != ids[i]。
// 作法是反覆以 Fisher-Yates 產生均勻排列，遇到固定點就整個丟棄重來。
// ids 必須互不相同；輸入切片不會被修改。
func Derange(ids []string) ([]string, error) {
	if len(ids) < 2 {
		return nil, newError(ErrDerangement, "need at least 2 participants, got %d", len(ids))
	}

	receivers := make([]string, len(ids))
	for attempt := 0; attempt < MaxDerangementAttempts; attempt++ {
		copy(receivers, ids)
		shuffle(receivers)
		if !hasFixedPoint(ids, receivers) {
			return receivers, nil
		}
	}

	return nil, newError(ErrDerangement, "could not generate derangement after %d attempts", MaxDerangementAttempts)
}

func shuffle(a []string) {
	for i := len(a) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

func hasFixedPoint(ids, receivers []string) bool {
	for i := range ids {
		if ids[i] == receivers[i] {
			return true
		}
	}
	return false
}
