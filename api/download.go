package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/craftista/godownload/downloads"
	"github.com/craftista/godownload/models"
)

// DownloadValidateParams is the body of a capability validation request.
type DownloadValidateParams struct {
	Token string `json:"token"`
}

// DownloadCompleteParams reports how a transfer ended.
type DownloadCompleteParams struct {
	Success          bool  `json:"success"`
	BytesTransferred int64 `json:"bytes_transferred"`
}

// DownloadStartResponse hands the caller the deliverable description
// alongside the updated session.
type DownloadStartResponse struct {
	File    *downloads.FileInfo     `json:"file"`
	Session *models.DownloadSession `json:"session"`
}

// SessionDetail is the admin view of a session with its audit trail.
type SessionDetail struct {
	Session *models.DownloadSession `json:"session"`
	Audit   []models.AuditEntry     `json:"audit"`
}

// DownloadCreate opens a download session for the authenticated user on
// the requested project.
func (a *API) DownloadCreate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userClaims := getClaims(ctx)
	projectID := chi.URLParam(r, "project_id")

	result, err := a.orchestrator.CreateSession(userClaims.ID, projectID, isAdmin(ctx), clientContext(r))
	if err != nil {
		return err
	}

	logEntrySetField(r, "session_id", result.SessionID)
	sendJSON(w, http.StatusCreated, result)
	return nil
}

// DownloadValidate checks a capability token. The endpoint always
// answers 200: an invalid or expired token yields a negative result
// with a reason, not an error status.
func (a *API) DownloadValidate(w http.ResponseWriter, r *http.Request) error {
	params := &DownloadValidateParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read validation params: %v", err)
	}
	if params.Token == "" {
		return badRequestError("A token is required")
	}

	result, err := a.orchestrator.ValidateAccess(params.Token, isAdmin(r.Context()), clientContext(r))
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, result)
	return nil
}

// DownloadStart moves the caller's session into the transfer phase and
// returns the deliverable's location and metadata.
func (a *API) DownloadStart(w http.ResponseWriter, r *http.Request) error {
	session, err := a.ownedSession(r)
	if err != nil {
		return err
	}

	info, session, err := a.orchestrator.StartDownload(session.ID, clientContext(r))
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, &DownloadStartResponse{File: info, Session: session})
	return nil
}

// DownloadComplete finalizes the caller's session. Bookkeeping failures
// are absorbed downstream, so this always answers 204 for an owned
// session.
func (a *API) DownloadComplete(w http.ResponseWriter, r *http.Request) error {
	session, err := a.ownedSession(r)
	if err != nil {
		return err
	}

	params := &DownloadCompleteParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read completion params: %v", err)
	}

	a.orchestrator.CompleteDownload(session.ID, params.Success, params.BytesTransferred)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DownloadList returns the caller's download history, newest first.
// Administrators may inspect another user with ?user_id=.
func (a *API) DownloadList(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID := getClaims(ctx).ID
	if requested := r.URL.Query().Get("user_id"); requested != "" {
		if !isAdmin(ctx) {
			return forbiddenError("Admin permissions required to list other users' downloads")
		}
		userID = requested
	}

	page, perPage, err := paginationParams(r)
	if err != nil {
		return badRequestError("%v", err)
	}

	offset := int((page - 1) * perPage)
	sessions, total, err := a.orchestrator.History(userID, offset, int(perPage))
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}

	addPaginationHeaders(w, r, page, perPage, total)
	sendJSON(w, http.StatusOK, sessions)
	return nil
}

// DownloadAnalytics aggregates a project's download activity for its
// owner or an administrator.
func (a *API) DownloadAnalytics(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	stats, err := a.orchestrator.Analytics(projectID, getClaims(ctx).ID, isAdmin(ctx))
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, stats)
	return nil
}

// SessionView exposes a single session and its audit trail to
// administrators.
func (a *API) SessionView(w http.ResponseWriter, r *http.Request) error {
	sessionID := chi.URLParam(r, "session_id")

	session, err := a.orchestrator.Sessions().Get(sessionID)
	if err != nil {
		return err
	}

	trail, err := a.orchestrator.AuditTrail(sessionID)
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}

	sendJSON(w, http.StatusOK, &SessionDetail{Session: session, Audit: trail})
	return nil
}

// ownedSession loads the session addressed by the route and verifies it
// belongs to the caller. Sessions owned by others are reported as
// missing rather than forbidden, so session IDs cannot be probed.
func (a *API) ownedSession(r *http.Request) (*models.DownloadSession, error) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "session_id")

	session, err := a.orchestrator.Sessions().Get(sessionID)
	if err != nil {
		return nil, err
	}

	if session.UserID != getClaims(ctx).ID && !isAdmin(ctx) {
		return nil, notFoundError("Download session not found")
	}

	return session, nil
}
