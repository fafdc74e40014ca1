package httpapi

import (
	"net/http"
	"strings"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/jobs"
)

func (a *API) handleJobsCollection(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	switch r.Method {
	case http.MethodPost:
		a.createJob(w, r, sess)
	case http.MethodGet:
		a.listJobs(w, r, sess)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleJobResource serves /jobs/stats, /jobs/{id},
// /jobs/{id}/interactions and /jobs/{id}/interactions/{iid}.
func (a *API) handleJobResource(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] == "stats":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.jobStats(w, r, sess)
	case len(parts) == 1:
		a.handleJob(w, r, sess, parts[0])
	case len(parts) == 2 && parts[1] == "interactions":
		a.handleInteractions(w, r, sess, parts[0])
	case len(parts) == 3 && parts[1] == "interactions":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteInteraction(w, r, sess, parts[0], parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleJob(w http.ResponseWriter, r *http.Request, sess auth.Session, id string) {
	switch r.Method {
	case http.MethodGet:
		job, err := a.jobs.Get(r.Context(), sess, id)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	case http.MethodPatch, http.MethodPut:
		var req jobs.JobUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		job, err := a.jobs.Update(r.Context(), sess, id, req)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := a.jobs.Delete(r.Context(), sess, id); err != nil {
			a.handleError(w, r, err)
			return
		}
		a.audit(r.Context(), "jobs.delete", map[string]any{"job_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createJob(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req jobs.JobInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	job, err := a.jobs.Create(r.Context(), sess, req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	writeJSON(w, http.StatusCreated, job)
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	q := r.URL.Query()
	skip, err := parseNonNegativeInt(q.Get("skip"), "skip", 0)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	limit, err := parseNonNegativeInt(q.Get("limit"), "limit", 0)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	list, err := a.jobs.List(r.Context(), sess, skip, limit)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) jobStats(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	stats, err := a.jobs.Stats(r.Context(), sess)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleInteractions(w http.ResponseWriter, r *http.Request, sess auth.Session, jobID string) {
	switch r.Method {
	case http.MethodPost:
		var req jobs.InteractionInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		in, err := a.jobs.AddInteraction(r.Context(), sess, jobID, req)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, in)
	case http.MethodGet:
		list, err := a.jobs.ListInteractions(r.Context(), sess, jobID)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) deleteInteraction(w http.ResponseWriter, r *http.Request, sess auth.Session, jobID, interactionID string) {
	if err := a.jobs.DeleteInteraction(r.Context(), sess, jobID, interactionID); err != nil {
		a.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
