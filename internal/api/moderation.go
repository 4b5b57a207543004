package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

type ReportRequest struct {
	ReportedUserId int    `json:"reported_user_id"`
	MessageContent string `json:"message_content,omitempty"`
	Reason         string `json:"reason"`
}

func (s *GoChatApp) reportUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if req.ReportedUserId <= 0 || req.ReportedUserId == userId || reason == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	err := s.db.CreateReport(r.Context(), database.CreateReportParams{
		ReporterId:     userId,
		ReportedUserId: req.ReportedUserId,
		MessageContent: req.MessageContent,
		Reason:         reason,
	})
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.log.Printf("user %d reported user %d", userId, req.ReportedUserId)
	s.writeJson(w, http.StatusCreated, MessageResponse{Message: "report submitted"})
}

func (s *GoChatApp) getReports(w http.ResponseWriter, r *http.Request) {
	dbReports, err := s.db.ListPendingReports(r.Context())
	if err != nil {
		s.log.Println("list reports:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	reports := make([]types.Report, 0, len(dbReports))
	for _, report := range dbReports {
		reports = append(reports, report.Wire())
	}

	s.writeJson(w, http.StatusOK, reports)
}

// banUser marks the account banned and drops its live connections.
func (s *GoChatApp) banUser(w http.ResponseWriter, r *http.Request) {
	adminId, userId, ok := s.targetUser(w, r)
	if !ok {
		return
	}

	if err := s.db.BanAccount(r.Context(), userId); err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.DisconnectUser(userId)

	s.log.Printf("user %d banned by admin %d", userId, adminId)
	s.writeJson(w, http.StatusOK, MessageResponse{Message: "user banned"})
}
