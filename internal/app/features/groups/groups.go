// internal/app/features/groups/groups.go
package groups

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strings"

	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	groupstore "github.com/dalemusser/codetrackr/internal/app/store/groups"
	"github.com/dalemusser/codetrackr/internal/app/system/apperr"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/authutil"
	"github.com/dalemusser/codetrackr/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codetrackr/internal/app/system/inputval"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/normalize"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// createInput accepts both the current field names and the groupName /
// groupDescription names older dashboards send.
type createInput struct {
	Name             string `json:"name"`
	GroupName        string `json:"groupName"`
	Description      string `json:"description"`
	GroupDescription string `json:"groupDescription"`
	Visibility       string `json:"visibility"`
	Password         string `json:"password"`
}

func (in createInput) name() string {
	return htmlsanitize.PlainText(normalize.OrDefault(in.Name, in.GroupName))
}

func (in createInput) description() string {
	return htmlsanitize.PlainText(normalize.OrDefault(in.Description, in.GroupDescription))
}

// Create handles POST /create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in createInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Fail(w, err)
		return
	}

	name, desc := in.name(), in.description()
	visibility := strings.ToLower(strings.TrimSpace(in.Visibility))
	if name == "" || desc == "" || visibility == "" {
		jsonutil.BadRequest(w, "Name, description, and visibility are required")
		return
	}
	if visibility != models.GroupPublic && visibility != models.GroupPrivate {
		jsonutil.BadRequest(w, "Visibility must be public or private")
		return
	}
	if len(name) > maxNameLength || len(desc) > maxDescriptionLength {
		jsonutil.BadRequest(w, "Group name or description is too long")
		return
	}
	if visibility == models.GroupPrivate {
		if err := authutil.ValidateGroupPassword(in.Password); err != nil {
			jsonutil.BadRequest(w, err.Error())
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create group")
	defer cancel()

	g, err := h.Groups.Create(ctx, groupstore.CreateInput{
		Name:        name,
		Description: desc,
		Visibility:  visibility,
		Password:    in.Password,
		CreatedBy:   u.UserID(),
	})
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to create group", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error creating group")
		return
	}

	h.Log.Info("group created",
		zap.String("group_id", g.ID.Hex()),
		zap.String("user_id", u.ID),
		zap.String("visibility", g.Visibility))
	jsonutil.Created(w, map[string]any{
		"success": true,
		"message": "Group created successfully",
		"group":   g,
	})
}

// MyGroups handles GET /my-groups.
func (h *Handler) MyGroups(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "my groups")
	defer cancel()

	groups, err := h.Groups.MyGroups(ctx, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to list groups", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error fetching your groups")
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "groups": groups})
}

// Discover handles GET /discover?search=.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "discover groups")
	defer cancel()

	groups, err := h.Groups.Discover(ctx, u.UserID(), r.URL.Query().Get("search"))
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to discover groups", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error fetching groups")
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "groups": groups})
}

// LeaderboardEntry ranks one member of a group by coding time.
type LeaderboardEntry struct {
	UserID          string  `json:"userId"`
	UserName        string  `json:"userName"`
	Email           string  `json:"email"`
	CodingHours     float64 `json:"codingHours"`
	TotalLinesAdded int64   `json:"totalLinesAdded"`
	Rank            int     `json:"rank"`
}

// Details handles GET /{groupId}/details. Only members may see it.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group details")
	defer cancel()

	g, err := h.Groups.Get(ctx, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		jsonutil.NotFound(w, "Group not found")
		return
	}
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load group", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error fetching group details")
		return
	}

	member, err := h.Groups.IsMember(ctx, groupID, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to check membership", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error fetching group details")
		return
	}
	if !member {
		jsonutil.Forbidden(w, "You must be a member to view group details")
		return
	}

	members, err := h.Groups.Members(ctx, groupID)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to list members", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error fetching group details")
		return
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID.Hex()
	}
	totals, err := h.Activity.TotalsByUser(ctx, ids)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to aggregate group activity", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error fetching group details")
		return
	}

	jsonutil.OK(w, map[string]any{
		"success":     true,
		"group":       g,
		"members":     members,
		"leaderboard": leaderboard(members, totals),
	})
}

// leaderboard ranks every member, including those with no activity, by
// hours descending. Ties keep join order.
func leaderboard(members []groupstore.Member, totals map[string]activitystore.UserTotals) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(members))
	for i, m := range members {
		t := totals[m.ID.Hex()]
		out[i] = LeaderboardEntry{
			UserID:          m.ID.Hex(),
			UserName:        m.Name,
			Email:           m.Email,
			CodingHours:     round2(float64(t.Seconds) / 3600),
			TotalLinesAdded: t.LinesAdded,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CodingHours > out[j].CodingHours })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Join handles POST /{groupId}/join. Private groups need their password.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	var in struct {
		Password string `json:"password"`
	}
	// The body is optional for public groups.
	if r.ContentLength != 0 {
		if err := jsonutil.Decode(r, &in); err != nil {
			jsonutil.Fail(w, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "join group")
	defer cancel()

	g, err := h.Groups.Get(ctx, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		jsonutil.NotFound(w, "Group not found")
		return
	}
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load group", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error joining group")
		return
	}

	member, err := h.Groups.IsMember(ctx, groupID, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to check membership", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error joining group")
		return
	}
	if member {
		jsonutil.Fail(w, apperr.Conflict(groupstore.ErrAlreadyMember.Error()))
		return
	}

	if g.Visibility == models.GroupPrivate {
		if in.Password == "" {
			jsonutil.BadRequest(w, authutil.ErrGroupPasswordRequired.Error())
			return
		}
		if !groupstore.CheckPassword(g, in.Password) {
			h.Log.Info("group join rejected: wrong password",
				zap.String("group_id", groupID.Hex()),
				zap.String("user_id", u.ID))
			jsonutil.Unauthorized(w, "Incorrect password")
			return
		}
	}

	err = h.Groups.Join(ctx, groupID, u.UserID())
	if errors.Is(err, groupstore.ErrAlreadyMember) {
		jsonutil.Fail(w, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to join group", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error joining group")
		return
	}

	jsonutil.OK(w, map[string]any{
		"success": true,
		"message": "Successfully joined the group",
		"group":   g,
	})
}

// Leave handles POST /{groupId}/leave. The last member out deletes the group.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "leave group")
	defer cancel()

	deleted, err := h.Groups.Leave(ctx, groupID, u.UserID())
	if errors.Is(err, groupstore.ErrNotMember) {
		jsonutil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to leave group", err, zap.String("group_id", groupID.Hex()))
		jsonutil.InternalError(w, "Error leaving group")
		return
	}

	msg := "Successfully left the group"
	if deleted {
		msg = "Group left and deleted as there were no remaining members"
		h.Log.Info("group deleted after last member left", zap.String("group_id", groupID.Hex()))
	}
	jsonutil.OK(w, map[string]any{"success": true, "message": msg})
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := inputval.ObjectID(chi.URLParam(r, "groupId"), "Group ID")
	if err != nil {
		jsonutil.Fail(w, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
