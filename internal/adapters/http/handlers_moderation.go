package httpadapter

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/domain"
)

type itemResponse struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	ListingID   *string        `json:"listing_id,omitempty"`
	CompanyID   string         `json:"company_id"`
	SenderName  string         `json:"sender_name"`
	SenderEmail string         `json:"sender_email"`
	Body        string         `json:"body"`
	Rating      *int           `json:"rating,omitempty"`
	Status      string         `json:"status"`
	IsRead      bool           `json:"is_read"`
	IsUrgent    bool           `json:"is_urgent"`
	Reply       *replyResponse `json:"reply,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type replyResponse struct {
	Text      string    `json:"text"`
	RepliedAt time.Time `json:"replied_at"`
	RepliedBy string    `json:"replied_by"`
	ReplierID string    `json:"replier_id"`
}

func toItemResponse(item *domain.ModeratedItem) itemResponse {
	out := itemResponse{
		ID:          item.ID.String(),
		Kind:        string(item.Kind),
		CompanyID:   item.CompanyID.String(),
		SenderName:  item.SenderName,
		SenderEmail: item.SenderEmail,
		Body:        item.Body,
		Rating:      item.Rating,
		Status:      string(item.Status),
		IsRead:      item.IsRead,
		IsUrgent:    item.IsUrgent,
		CreatedAt:   item.CreatedAt,
	}
	if item.ListingID != nil {
		id := item.ListingID.String()
		out.ListingID = &id
	}
	if item.Reply != nil {
		out.Reply = &replyResponse{
			Text:      item.Reply.Text,
			RepliedAt: item.Reply.RepliedAt,
			RepliedBy: string(item.Reply.RepliedBy),
			ReplierID: item.Reply.ReplierID.String(),
		}
	}
	return out
}

func (s *Server) handleSubmitComment(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Body   string `json:"body"`
		Rating *int   `json:"rating"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := s.moderation.SubmitComment(r.Context(), principalFrom(r), listingID, req.Body, req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.moderation.ListApproved(r.Context(), listingID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Body   string `json:"body"`
		Urgent bool   `json:"urgent"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := s.moderation.SubmitInquiry(r.Context(), principalFrom(r), companyID, req.Body, req.Urgent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.moderation.Inbox(r.Context(), principalFrom(r), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.moderation.Transition(r.Context(), principalFrom(r), itemID, domain.ItemStatus(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := s.moderation.Reply(r.Context(), principalFrom(r), itemID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (s *Server) handleSetFlags(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		IsRead   *bool `json:"is_read"`
		IsUrgent *bool `json:"is_urgent"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.moderation.SetFlags(r.Context(), principalFrom(r), itemID, req.IsRead, req.IsUrgent); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.moderation.Delete(r.Context(), principalFrom(r), itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs    []string `json:"ids"`
		Status string   `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, domain.ErrValidation)
			return
		}
		ids = append(ids, id)
	}
	outcomes, changed, err := s.moderation.BulkTransition(r.Context(), principalFrom(r), ids, domain.ItemStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	type outcomeResponse struct {
		ID      string `json:"id"`
		Changed bool   `json:"changed"`
		Reason  string `json:"reason,omitempty"`
	}
	out := make([]outcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, outcomeResponse{ID: o.ID.String(), Changed: o.Changed, Reason: string(o.Reason)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "outcomes": out})
}
