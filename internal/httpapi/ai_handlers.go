package httpapi

import (
	"encoding/json"
	"net/http"

	"jobtrack.dev/internal/auth"
)

type analyzeResumeRequest struct {
	ResumeText string `json:"resume_text"`
}

type matchJobRequest struct {
	JobDescription string          `json:"job_description"`
	ResumeAnalysis json.RawMessage `json:"resume_analysis"`
}

type coverLetterRequest struct {
	JobDescription string          `json:"job_description"`
	ResumeAnalysis json.RawMessage `json:"resume_analysis"`
	CompanyName    string          `json:"company_name"`
}

type suggestImprovementsRequest struct {
	ApplicationMaterials json.RawMessage `json:"application_materials"`
}

func (a *API) handleAnalyzeResume(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req analyzeResumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.assistant.AnalyzeResume(r.Context(), req.ResumeText)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleMatchJob(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req matchJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.assistant.MatchJob(r.Context(), req.JobDescription, req.ResumeAnalysis)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCoverLetter(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req coverLetterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	letter, err := a.assistant.GenerateCoverLetter(r.Context(), req.JobDescription, req.ResumeAnalysis, req.CompanyName)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cover_letter": letter})
}

func (a *API) handleSuggestImprovements(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req suggestImprovementsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.assistant.SuggestImprovements(r.Context(), req.ApplicationMaterials)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
