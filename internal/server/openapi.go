package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Times Board API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the competition times board.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Official login")
	postLogin.SetDescription("Authenticate with email and password. Sets board_session cookie.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Official logout")
	postLogout.SetDescription("Clears the session, its cookie, and any uncommitted edits.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	getMe.SetSummary("Current official")
	getMe.SetDescription("Returns the currently authenticated official. Requires board_session cookie.")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/competitions/{competitionID}/board
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/competitions/{competitionID}/board")
	getBoard.SetSummary("Competition board")
	getBoard.SetDescription("Returns every competitor's derived times, usable with an optional name filter via the q query parameter.")
	getBoard.AddRespStructure(BoardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(getBoard)

	// GET /api/competitions/{competitionID}/persons/{personID}
	getCard, _ := r.NewOperationContext(http.MethodGet, "/api/competitions/{competitionID}/persons/{personID}")
	getCard.SetSummary("Competitor card")
	getCard.SetDescription("Returns one competitor's reconciled card, including pending edits for the viewer's session.")
	getCard.AddRespStructure(CardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getCard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(getCard)

	// PUT /api/competitions/{competitionID}/persons/{personID}/edits
	putEdit, _ := r.NewOperationContext(http.MethodPut, "/api/competitions/{competitionID}/persons/{personID}/edits")
	putEdit.SetSummary("Stage an edit")
	putEdit.SetDescription("Stages a correction for one attempt on the competitor's card. Only attempts that originally ended in DNF are correctable. Requires board_session cookie with edit permission.")
	putEdit.AddReqStructure(EditRequest{})
	putEdit.AddRespStructure(EditResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putEdit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putEdit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	putEdit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	putEdit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	putEdit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(putEdit)

	// DELETE /api/competitions/{competitionID}/persons/{personID}/edits
	deleteEdits, _ := r.NewOperationContext(http.MethodDelete, "/api/competitions/{competitionID}/persons/{personID}/edits")
	deleteEdits.SetSummary("Discard staged edits")
	deleteEdits.SetDescription("Drops all uncommitted edits for the competitor's card in the viewer's session.")
	deleteEdits.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteEdits.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteEdits)

	// POST /api/competitions/{competitionID}/persons/{personID}/commit
	postCommit, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{competitionID}/persons/{personID}/commit")
	postCommit.SetSummary("Commit staged edits")
	postCommit.SetDescription("Writes the card's staged edits to the upstream registry as a person extension. Requires board_session cookie with edit permission.")
	postCommit.AddRespStructure(CommitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postCommit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postCommit)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
