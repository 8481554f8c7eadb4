package result

type ErrorCode int

const (
	CodeOK ErrorCode = 0

	CodeHashMismatch ErrorCode = 10001
	CodeBrokenLink   ErrorCode = 10002
	CodeEmptyChain   ErrorCode = 10003
	CodeMissingBlock ErrorCode = 10004
)
