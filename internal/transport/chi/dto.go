package chi

import (
	"github.com/kailas-cloud/docgate/internal/domain"
	chatuc "github.com/kailas-cloud/docgate/internal/usecase/chat"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeNotImplemented   = "not_implemented"
	codeInternalError    = "internal_error"
)

// Required strings are pointers so that an absent field fails "required" while "" is accepted.

type addDocumentRequest struct {
	Content  *string        `json:"content" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

type addDocumentResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type queryRequest struct {
	Question *string `json:"question" validate:"required"`
	TopK     *int    `json:"top_k"`
}

type queryResponse struct {
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
	Distances []float64        `json:"distances"`
}

type chatRequest struct {
	Message    *string `json:"message" validate:"required"`
	UseContext *bool   `json:"use_context"`
}

type chatResponse struct {
	Response    string  `json:"response"`
	ContextUsed *string `json:"context_used"`
}

type extractMessage struct {
	Role    *string `json:"role" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

type extractSchemaRequest struct {
	Messages []extractMessage `json:"messages" validate:"required,min=1,dive"`
}

type healthStatusResponse struct {
	Status         string `json:"status"`
	DocumentsCount int    `json:"documents_count"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (r addDocumentRequest) toDomain() domain.Document {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return domain.Document{Content: *r.Content, Metadata: meta}
}

func queryResultToResponse(res domain.QueryResult) queryResponse {
	resp := queryResponse{
		Documents: res.Documents,
		Metadatas: res.Metadatas,
		Distances: res.Distances,
	}
	if resp.Documents == nil {
		resp.Documents = []string{}
	}
	if resp.Metadatas == nil {
		resp.Metadatas = []map[string]any{}
	}
	if resp.Distances == nil {
		resp.Distances = []float64{}
	}
	return resp
}

func replyToResponse(r chatuc.Reply) chatResponse {
	return chatResponse{Response: r.Response, ContextUsed: r.ContextUsed}
}
