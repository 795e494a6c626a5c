package handler

import (
	"net/http"

	"classledger/internal/folders"
	"classledger/internal/httputil"
)

// FolderHandler serves the folder registry
type FolderHandler struct {
	reg *folders.Registry
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(reg *folders.Registry) *FolderHandler {
	return &FolderHandler{reg: reg}
}

// ListFolders returns all configured record categories
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.reg.List())
}
