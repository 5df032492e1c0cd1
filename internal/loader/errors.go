package loader

import "fmt"

// Error code constants, unified across problem and plan loading.
const (
	ErrCodeRead      = "E001" // file read error
	ErrCodeParse     = "E002" // YAML parse error
	ErrCodeSchema    = "E003" // schema validation failed
	ErrCodeValue     = "E004" // malformed value or rational
	ErrCodeStructure = "E005" // document structure error
)

// LoadError is a structured loading failure with a stable code.
type LoadError struct {
	Code    string
	Path    string // source file, when known
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func loadErrf(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withPath stamps the source path onto a LoadError bubbling up from parsing;
// other errors pass through untouched.
func withPath(err error, path string) error {
	if le, ok := err.(*LoadError); ok && le.Path == "" {
		le.Path = path
	}
	return err
}
