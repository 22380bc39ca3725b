package runner

// discardLogger drops everything; the MCP server reports through tool results.
type discardLogger struct{}

func (discardLogger) Info(string, ...interface{})    {}
func (discardLogger) Verbose(string, ...interface{}) {}
func (discardLogger) Error(string, ...interface{})   {}
func (discardLogger) Success(string, ...interface{}) {}
func (discardLogger) Failure(string, ...interface{}) {}

// Discard returns a Logger that prints nothing.
func Discard() Logger {
	return discardLogger{}
}
