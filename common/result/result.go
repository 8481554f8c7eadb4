package result

import "fmt"

// NoBlock is the BlockIndex of results not tied to a single block.
const NoBlock = -1

// Result is the outcome of a chain check. A failed result names the first
// offending block.
type Result struct {
	Code       ErrorCode
	Message    string
	BlockIndex int
}

// IsOK indicates if the check passed
func (res Result) IsOK() bool {
	return res.Code == CodeOK
}

// IsError indicates if the check failed
func (res Result) IsError() bool {
	return res.Code != CodeOK
}

func (res Result) String() string {
	if res.BlockIndex == NoBlock {
		return fmt.Sprintf("Result{code:%v, message:%v}", res.Code, res.Message)
	}
	return fmt.Sprintf("Result{code:%v, block:%v, message:%v}", res.Code, res.BlockIndex, res.Message)
}

// AtBlock attaches the position of the offending block.
func (res Result) AtBlock(index int) Result {
	res.BlockIndex = index
	return res
}

// OK represents the success result
var OK = Result{Code: CodeOK, BlockIndex: NoBlock}

// Failure returns a failed result with the given code.
func Failure(code ErrorCode, msgFormat string, a ...interface{}) Result {
	return Result{
		Code:       code,
		Message:    fmt.Sprintf(msgFormat, a...),
		BlockIndex: NoBlock,
	}
}
