// Package fakegithub emulates the subset of the GitHub contents API the
// github blob backend uses: GET and PUT on repos/{owner}/{repo}/contents/*.
package fakegithub

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Commit is one accepted PUT.
type Commit struct {
	Path    string
	Message string
	SHA     string
	Branch  string
}

type file struct {
	content []byte
	sha     string
}

// Server is an httptest server holding files in memory. Requests without
// "Authorization: token <Token>" get 401.
type Server struct {
	*httptest.Server

	Token string

	mu       sync.Mutex
	files    map[string]*file
	commits  []Commit
	requests int
	failures []int
}

func New(token string) *Server {
	s := &Server{Token: token, files: make(map[string]*file)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Seed stores content at "owner/repo/file" without recording a commit.
func (s *Server) Seed(path string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &file{content: append([]byte(nil), content...), sha: blobSHA(content)}
	s.files[strings.Trim(path, "/")] = f
	return f.sha
}

// File returns the raw content stored at "owner/repo/file".
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[strings.Trim(path, "/")]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.content...), true
}

func (s *Server) Commits() []Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Commit(nil), s.commits...)
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// FailNext makes the next len(statuses) requests answer with the given
// statuses before doing anything else.
func (s *Server) FailNext(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, statuses...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if len(s.failures) > 0 {
		status := s.failures[0]
		s.failures = s.failures[1:]
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	if r.Header.Get("Authorization") != "token "+s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	path, ok := contentsPath(r.URL.Path)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, path)
	case http.MethodPut:
		s.put(w, r, path)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	}
}

func (s *Server) get(w http.ResponseWriter, path string) {
	f, ok := s.files[path]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"type":     "file",
		"encoding": "base64",
		"sha":      f.sha,
		"content":  wrap(base64.StdEncoding.EncodeToString(f.content)),
	})
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, path string) {
	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
		return
	}

	f, exists := s.files[path]
	switch {
	case exists && req.SHA == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
		return
	case exists && req.SHA != f.sha:
		writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, req.SHA)})
		return
	case !exists && req.SHA != "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "sha does not match"})
		return
	}

	nf := &file{content: content, sha: blobSHA(content)}
	s.files[path] = nf
	s.commits = append(s.commits, Commit{Path: path, Message: req.Message, SHA: nf.sha, Branch: req.Branch})

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]string{"path": path, "sha": nf.sha},
		"commit":  map[string]string{"message": req.Message},
	})
}

// contentsPath maps /repos/{o}/{r}/contents/{path} to the "{o}/{r}/{path}"
// key used by Seed and File.
func contentsPath(urlPath string) (string, bool) {
	parts := strings.SplitN(strings.Trim(urlPath, "/"), "/", 5)
	if len(parts) != 5 || parts[0] != "repos" || parts[3] != "contents" || parts[4] == "" {
		return "", false
	}
	return strings.Join(parts[1:3], "/") + "/" + parts[4], true
}

// blobSHA is the git blob object id of content.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// wrap breaks b64 at 60 columns the way the contents API does.
func wrap(b64 string) string {
	var sb strings.Builder
	for len(b64) > 60 {
		sb.WriteString(b64[:60])
		sb.WriteByte('\n')
		b64 = b64[60:]
	}
	sb.WriteString(b64)
	sb.WriteByte('\n')
	return sb.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
