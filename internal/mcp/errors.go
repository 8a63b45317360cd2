package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/fairy/internal/domain/project"
)

// Error codes reported in tool error results.
const (
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidCSV        = "INVALID_CSV"
	CodeInvalidRepository = "INVALID_REPOSITORY"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. It returns nil for errors
// that are not the caller's fault.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: CodeProjectNotFound, Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrInvalidCSV):
		return &APIError{Code: CodeInvalidCSV, Message: err.Error(), RecoveryHint: "Send comma-separated text with a header row"}
	case errors.Is(err, project.ErrInvalidRepository):
		return &APIError{Code: CodeInvalidRepository, Message: err.Error(), Details: project.Repositories, RecoveryHint: "Pick one of the listed repositories or an empty choice"}
	case errors.Is(err, project.ErrInvalidAnswer):
		return &APIError{Code: CodeInvalidInput, Message: err.Error(), Details: []string{project.AnswerUnknown, project.AnswerNo, project.AnswerYes}}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error(), RecoveryHint: "Required fields must not be blank"}
	default:
		return nil
	}
}

// errorResult converts a domain error into a tool result flagged as an error,
// or passes unmapped errors through for the SDK to report.
func errorResult(err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	if apiErr == nil {
		return nil, nil, err
	}
	data, marshalErr := json.Marshal(apiErr)
	if marshalErr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
