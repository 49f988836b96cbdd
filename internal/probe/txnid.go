package probe

import (
	"strconv"
	"sync/atomic"
)

// TxnIDs hands out transaction ids to workers at spawn time.
// The zero value is ready to use.
type TxnIDs struct {
	n atomic.Uint64
}

func (t *TxnIDs) Next() string {
	return strconv.FormatUint(t.n.Add(1), 10)
}
