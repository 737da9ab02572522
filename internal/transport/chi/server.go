package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/domain"
	"github.com/kailas-cloud/docgate/internal/logger"
	healthuc "github.com/kailas-cloud/docgate/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers of the gateway.
type Server struct {
	documents     DocumentService
	chat          ChatService
	health        HealthService
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(documents DocumentService, chat ChatService, health HealthService) *Server {
	return &Server{
		documents: documents,
		chat:      chat,
		health:    health,
		validate:  newValidator(),
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrInvalidRequest, http.StatusUnprocessableEntity, codeValidationFailed),
			sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented),
		},
	}
}

// AddDocument handles POST /documents/add.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.documents.Add(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addDocumentResponse{Status: "success", ID: id})
}

// QueryDocuments handles POST /documents/query.
func (s *Server) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}

	topK := domain.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	res, err := s.documents.Query(r.Context(), *req.Question, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResultToResponse(res))
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	useContext := true
	if req.UseContext != nil {
		useContext = *req.UseContext
	}

	reply, err := s.chat.Chat(r.Context(), *req.Message, useContext)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, replyToResponse(reply))
}

// HealthStatus handles GET /health_status.
func (s *Server) HealthStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := s.health.Status(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, healthStatusResponse{
		Status:         summary.Status,
		DocumentsCount: summary.DocumentsCount,
	})
}

// ExtractSchema handles POST /extract/schema. The body is validated, then rejected as not implemented.
func (s *Server) ExtractSchema(w http.ResponseWriter, r *http.Request) {
	var req extractSchemaRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.handleDomainError(w, r, domain.ErrNotImplemented)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.StatusOK {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{Status: report.Status, Checks: report.Checks})
}

// decode reads a JSON body into dst and validates it. Writes the error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, validationDetail(err))
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetail renders validator errors as "field is required; ..." using JSON field names.
func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Code: code, Detail: detail})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// handleDomainError maps err to a response. Unmatched errors become 500 with the error text as detail.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, err.Error())
}
