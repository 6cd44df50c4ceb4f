package brackets

import (
	"errors"
	"fmt"
)

// Ошибки движка. Все они восстановимые: отказ никогда не оставляет
// частично применённого результата.
var (
	ErrInvalidEntryCount = errors.New("not enough participants for this format")
	// ErrOddEntryCount уточняет ErrInvalidEntryCount: errors.Is ловит
	// швейцарское нечётное поле и по общему, и по узкому стражу.
	ErrOddEntryCount      = fmt.Errorf("%w: swiss format requires an even participant count", ErrInvalidEntryCount)
	ErrInvalidRoundConfig = errors.New("swiss round count outside allowed bounds")
	ErrInvalidState       = errors.New("bracket node is not ready for a result")
	ErrInvalidResult      = errors.New("invalid match result")
	ErrNodeNotFound       = errors.New("bracket node not found")
	ErrMalformedBracket   = errors.New("bracket node list is malformed")
)
