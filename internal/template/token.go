package template

// TokenType identifies the kind of a lexed template token.
type TokenType int

const (
	TokenText TokenType = iota
	TokenIfStatement
	TokenElseIfStatement
	TokenElseStatement
	TokenForStatement
	TokenSwitchStatement
	TokenSwitchCaseStatement
	TokenSwitchDefaultStatement
	TokenOpenStatementBlock
	TokenCloseStatementBlock
	TokenOpenInterpolation
	TokenCloseInterpolation
	TokenExpression
)

// String returns a stable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenIfStatement:
		return "IF_STATEMENT"
	case TokenElseIfStatement:
		return "ELSE_IF_STATEMENT"
	case TokenElseStatement:
		return "ELSE_STATEMENT"
	case TokenForStatement:
		return "FOR_STATEMENT"
	case TokenSwitchStatement:
		return "SWITCH_STATEMENT"
	case TokenSwitchCaseStatement:
		return "SWITCH_CASE_STATEMENT"
	case TokenSwitchDefaultStatement:
		return "SWITCH_DEFAULT_STATEMENT"
	case TokenOpenStatementBlock:
		return "OPEN_STATEMENT_BLOCK"
	case TokenCloseStatementBlock:
		return "CLOSE_STATEMENT_BLOCK"
	case TokenOpenInterpolation:
		return "OPEN_INTERPOLATION"
	case TokenCloseInterpolation:
		return "CLOSE_INTERPOLATION"
	case TokenExpression:
		return "EXPRESSION"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexed span of the template. StartIndex and EndIndex are byte
// offsets into the original template string and are monotonically
// non-decreasing across the token sequence. Substring is never empty.
type Token struct {
	Type       TokenType
	StartIndex int
	EndIndex   int
	Substring  string
}
