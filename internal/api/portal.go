package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkredacao/portal-client/internal/gateway"
	"github.com/mkredacao/portal-client/internal/model"
)

// LoginRequest is the credential payload shared by the three login flows.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is what /auth/login answers on success.
type LoginResponse struct {
	Token string             `json:"token"`
	User  *model.UserProfile `json:"user"`
}

// Room is a professor's classroom.
type Room struct {
	ID   model.FlexID `json:"id"`
	Name string       `json:"name"`
}

// RoomOverviewRow is one line of the school dashboard listing.
type RoomOverviewRow struct {
	RoomName     string   `json:"roomName"`
	TeacherName  string   `json:"teacherName"`
	TeacherEmail string   `json:"teacherEmail"`
	AvgScore     *float64 `json:"avgScore"`
}

// Task is an essay assignment inside a room.
type Task struct {
	ID         model.FlexID `json:"id"`
	Title      string       `json:"title"`
	Guidelines string       `json:"guidelines,omitempty"`
}

// Essay is a student's submission (or draft) for a task.
type Essay struct {
	ID        model.FlexID `json:"id"`
	TaskID    model.FlexID `json:"taskId,omitempty"`
	StudentID model.FlexID `json:"studentId,omitempty"`
	Content   string       `json:"content"`
	Score     *float64     `json:"score,omitempty"`
	Feedback  string       `json:"feedback,omitempty"`
	Status    string       `json:"status,omitempty"`
}

// JoinResult carries the room id a successful enrollment resolves to.
// Backends answered this in three shapes over time.
type JoinResult struct {
	RoomID model.FlexID `json:"roomId"`
	ID     model.FlexID `json:"id"`
	Room   *Room        `json:"room"`
}

// ResolvedRoomID returns the room id regardless of response shape.
func (j *JoinResult) ResolvedRoomID() string {
	if j == nil {
		return ""
	}
	if j.RoomID != "" {
		return string(j.RoomID)
	}
	if j.ID != "" {
		return string(j.ID)
	}
	if j.Room != nil {
		return string(j.Room.ID)
	}
	return ""
}

// Login authenticates against /auth/login. It deliberately bypasses the
// gateway's auth classification: a wrong password answers 401, and that must
// surface as "credenciais inválidas" — not clear a session that does not
// exist yet and schedule a redirect off the login page.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GW.ResolveURL("/auth/login"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.GW.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &RequestError{
			Status:  res.StatusCode,
			Message: gateway.ReadErrorMessage(res, "Falha no login."),
		}
	}

	var out LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("login: resposta sem token/usuário")
	}
	return &out, nil
}

// FirstPassword sets the initial password of a school-managed professor and
// returns the refreshed profile.
func (c *Client) FirstPassword(ctx context.Context, password string) (*model.UserProfile, error) {
	var out struct {
		User *model.UserProfile `json:"user"`
	}
	err := c.Post(ctx, "/auth/first-password", map[string]string{"password": password}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// GetUser fetches a profile by id.
func (c *Client) GetUser(ctx context.Context, id string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := c.Get(ctx, "/users/"+url.PathEscape(id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser patches profile fields (email, name, password) by id.
func (c *Client) UpdateUser(ctx context.Context, id string, fields map[string]any) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := c.Patch(ctx, "/users/"+url.PathEscape(id), fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the account. The caller owns the follow-up session
// teardown.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+url.PathEscape(id), nil, nil)
}

// RoomsByProfessor lists a professor's rooms. The backend reads the
// professor from the token; the query param stays for compatibility with
// deployments that still require it.
func (c *Client) RoomsByProfessor(ctx context.Context, professorID string) ([]Room, error) {
	var rooms []Room
	err := c.Get(ctx, "/rooms/by-professor?professorId="+url.QueryEscape(professorID), &rooms)
	return rooms, err
}

// CreateRoom creates a classroom.
func (c *Client) CreateRoom(ctx context.Context, name, professorID string) (*Room, error) {
	var room Room
	err := c.Post(ctx, "/rooms", map[string]string{"name": name, "professorId": professorID}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes a classroom.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.Delete(ctx, "/rooms/"+url.PathEscape(roomID), nil, nil)
}

// RoomOverview returns the per-room aggregate the school dashboard shows.
func (c *Client) RoomOverview(ctx context.Context, roomID string) ([]RoomOverviewRow, error) {
	var rows []RoomOverviewRow
	err := c.Get(ctx, "/rooms/"+url.PathEscape(roomID)+"/overview", &rows)
	return rows, err
}

// JoinRoom enrolls a student into a room by invite code.
func (c *Client) JoinRoom(ctx context.Context, code, studentID string) (*JoinResult, error) {
	var out JoinResult
	err := c.Post(ctx, "/enrollments/join", map[string]string{"code": code, "studentId": studentID}, &out)
	if err != nil {
		return nil, err
	}
	if out.ResolvedRoomID() == "" {
		return nil, fmt.Errorf("resposta inválida do servidor (roomId ausente)")
	}
	return &out, nil
}

// LeaveRoom removes a student's enrollment.
func (c *Client) LeaveRoom(ctx context.Context, roomID, studentID string) error {
	return c.Post(ctx, "/enrollments/leave", map[string]string{"roomId": roomID, "studentId": studentID}, nil)
}

// TasksByRoom lists a room's assignments.
func (c *Client) TasksByRoom(ctx context.Context, roomID string) ([]Task, error) {
	var tasks []Task
	err := c.Get(ctx, "/tasks/by-room?roomId="+url.QueryEscape(roomID), &tasks)
	return tasks, err
}

// GetTask fetches one assignment.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var t Task
	if err := c.Get(ctx, "/tasks/"+url.PathEscape(taskID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// EssayByTask fetches the student's essay (draft or submitted) for a task.
// Returns (nil, nil) when the student has not written anything yet.
func (c *Client) EssayByTask(ctx context.Context, taskID, studentID string) (*Essay, error) {
	var e Essay
	path := "/essays/by-task/" + url.PathEscape(taskID) + "/by-student?studentId=" + url.QueryEscape(studentID)
	if err := c.Get(ctx, path, &e); err != nil {
		if NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// SaveDraft upserts the student's draft for a task.
func (c *Client) SaveDraft(ctx context.Context, taskID, studentID, content string) (*Essay, error) {
	var e Essay
	err := c.Post(ctx, "/essays/draft", map[string]string{
		"taskId":    taskID,
		"studentId": studentID,
		"content":   content,
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SubmitEssay turns the content into a final submission.
func (c *Client) SubmitEssay(ctx context.Context, taskID, studentID, content string) (*Essay, error) {
	var e Essay
	err := c.Post(ctx, "/essays", map[string]string{
		"taskId":    taskID,
		"studentId": studentID,
		"content":   content,
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEssay fetches a submission with its score and feedback.
func (c *Client) GetEssay(ctx context.Context, essayID string) (*Essay, error) {
	var e Essay
	if err := c.Get(ctx, "/essays/"+url.PathEscape(essayID), &e); err != nil {
		return nil, err
	}
	return &e, nil
}
