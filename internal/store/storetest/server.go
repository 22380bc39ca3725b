// Package storetest provides an in-memory fake of the social-feed REST API
// for tests.
package storetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/tuannvm/crowdseed/internal/types"
)

// Server is an httptest server backed by in-memory users, posts and comments.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int
	users     []types.User
	posts     []types.Post
	comments  []types.Comment
	usernames map[string]bool
	requests  []string

	// FailOps maps "METHOD /pattern" to a status the server answers with.
	FailOps map[string]int
}

// NewServer starts a fake store. Call Close when done.
func NewServer() *Server {
	s := &Server{
		usernames: map[string]bool{},
		FailOps:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /user", s.wrap("POST /user", s.createUser))
	mux.HandleFunc("POST /post", s.wrap("POST /post", s.createPost))
	mux.HandleFunc("GET /post/{id}", s.wrap("GET /post/{id}", s.getPost))
	mux.HandleFunc("POST /post/{id}/comment", s.wrap("POST /post/{id}/comment", s.createComment))
	mux.HandleFunc("GET /users", s.wrap("GET /users", s.listUsers))
	mux.HandleFunc("GET /userById/{id}", s.wrap("GET /userById/{id}", s.getUser))

	s.Server = httptest.NewServer(mux)
	return s
}

// AddUser seeds a user and returns it with its assigned id.
func (s *Server) AddUser(name, bio string) types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := types.User{ID: s.id("user"), Name: name, Username: name, Bio: bio}
	s.users = append(s.users, u)
	s.usernames[u.Username] = true
	return u
}

// AddPost seeds a post and returns it with its assigned id.
func (s *Server) AddPost(userID, text string) types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := types.Post{ID: s.id("post"), UserID: userID, Text: text}
	s.posts = append(s.posts, p)
	return p
}

// Users returns a copy of the stored users.
func (s *Server) Users() []types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.User(nil), s.users...)
}

// Posts returns a copy of the stored posts.
func (s *Server) Posts() []types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Post(nil), s.posts...)
}

// Comments returns a copy of the stored comments.
func (s *Server) Comments() []types.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Comment(nil), s.comments...)
}

// Requests returns the "METHOD /pattern" of every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Fail makes every request matching route answer with status.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailOps[route] = status
}

func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, route)
		status, fail := s.FailOps[route]
		s.mu.Unlock()

		if fail {
			http.Error(w, "injected failure", status)
			return
		}
		h(w, r)
	}
}

func (s *Server) id(kind string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", kind, s.nextID)
}

func reply(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func reject(w http.ResponseWriter, reason string) {
	reply(w, map[string]any{"success": false, "error": reason})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Bio      string `json:"bio"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernames[req.Username] {
		reject(w, "Username is already taken")
		return
	}
	u := types.User{ID: s.id("user"), Name: req.Name, Username: req.Username, Bio: req.Bio}
	s.users = append(s.users, u)
	s.usernames[u.Username] = true
	reply(w, map[string]any{"success": true, "user": u})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := types.Post{ID: s.id("post"), UserID: req.UserID, Text: req.Text}
	s.posts = append(s.posts, p)
	reply(w, map[string]any{"success": true, "post": p})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == r.PathValue("id") {
			reply(w, map[string]any{"success": true, "post": p})
			return
		}
	}
	reject(w, "Post not found")
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := types.Comment{ID: s.id("comment"), PostID: r.PathValue("id"), UserID: req.UserID, Text: req.Text}
	s.comments = append(s.comments, c)
	reply(w, map[string]any{"success": true, "comment": c})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]map[string]string, len(s.users))
	for i, u := range s.users {
		ids[i] = map[string]string{"id": u.ID}
	}
	reply(w, map[string]any{"success": true, "users": ids})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == r.PathValue("id") {
			reply(w, map[string]any{"success": true, "user": u})
			return
		}
	}
	reject(w, "User not found")
}
