package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/config"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/logging"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// fakeBackend serves just enough of the meeting API for the commands
type fakeBackend struct {
	mu        sync.Mutex
	meetings  map[int64]types.Meeting
	nextID    int64
	deleted   []string
	summaries []types.SummarizeRequest
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON := func(status int, v any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/meetings":
		list := types.MeetingList{Meetings: []types.MeetingSummary{}, CurrentPage: 1, Pages: 1}
		search := strings.ToLower(r.URL.Query().Get("search"))
		for id := int64(1); id < b.nextID; id++ {
			m, ok := b.meetings[id]
			if !ok || !strings.Contains(strings.ToLower(m.Title+m.Transcript), search) {
				continue
			}
			list.Meetings = append(list.Meetings, types.MeetingSummary{ID: m.ID, Title: m.Title, Date: m.Date, Preview: types.Preview(m.Transcript)})
		}
		list.Total = len(list.Meetings)
		writeJSON(http.StatusOK, list)
	case r.Method == http.MethodPost && r.URL.Path == "/api/meetings":
		var in types.MeetingInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		m := types.Meeting{ID: b.nextID, Title: in.Title, Date: in.Date, Language: in.Language, Transcript: in.Transcript, Summary: in.Summary}
		b.nextID++
		b.meetings[m.ID] = m
		writeJSON(http.StatusCreated, types.MeetingResponse{Success: true, Meeting: &m})
	case r.Method == http.MethodPost && r.URL.Path == "/summarize":
		var req types.SummarizeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.summaries = append(b.summaries, req)
		writeJSON(http.StatusOK, types.SummarizeResponse{Summary: "- decided things", GeneratedTitle: "Planning", SavedToDatabase: true, MeetingID: 9})
	case r.URL.Path == "/health":
		writeJSON(http.StatusOK, map[string]string{"status": "healthy"})
	case strings.HasPrefix(r.URL.Path, "/api/meetings/"):
		idStr := strings.TrimPrefix(r.URL.Path, "/api/meetings/")
		id, _ := strconv.ParseInt(idStr, 10, 64)
		m, ok := b.meetings[id]
		if !ok {
			writeJSON(http.StatusNotFound, types.ErrorResponse{Error: "meeting not found"})
			return
		}
		if r.Method == http.MethodDelete {
			delete(b.meetings, id)
			b.deleted = append(b.deleted, idStr)
			writeJSON(http.StatusOK, map[string]any{"success": true})
			return
		}
		writeJSON(http.StatusOK, m)
	default:
		writeJSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
	}
}

type CLISuite struct {
	suite.Suite
	backend *fakeBackend
	server  *httptest.Server
	cfg     *config.Config
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.backend = &fakeBackend{meetings: map[int64]types.Meeting{}, nextID: 1}
	s.server = httptest.NewServer(s.backend)

	dir := s.T().TempDir()
	s.cfg = config.Default()
	s.cfg.Client.ServerURL = s.server.URL
	s.cfg.Client.ExportDir = filepath.Join(dir, "exports")
	s.cfg.Speech.Engine = "none"
	s.cfg.Speech.TempDir = filepath.Join(dir, "temp")
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

func (s *CLISuite) run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	deps := &Dependencies{
		Config: s.cfg,
		Log:    logging.Discard(),
		In:     strings.NewReader(stdin),
		Out:    &out,
		Err:    &out,
	}
	cmd := NewRootCmd(deps)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) seed(title, transcript string) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	id := s.backend.nextID
	s.backend.nextID++
	s.backend.meetings[id] = types.Meeting{ID: id, Title: title, Date: "2024-03-10", Language: "en-US", Transcript: transcript}
}

func (s *CLISuite) TestListEmptyAndSearch() {
	out, err := s.run("", "list")
	s.Require().NoError(err)
	s.Contains(out, "No meetings found")

	s.seed("Team sync", "roadmap")
	s.seed("Retro", "what went well")
	out, err = s.run("", "list", "--search", "team")
	s.Require().NoError(err)
	s.Contains(out, "Team sync")
	s.NotContains(out, "Retro")
}

func (s *CLISuite) TestShowMissingMeeting() {
	_, err := s.run("", "show", "4")
	s.Require().Error(err)
	s.Contains(err.Error(), "meeting not found")
}

func (s *CLISuite) TestDeleteAsksForConfirmation() {
	s.seed("Gone", "bye")

	_, err := s.run("n\n", "delete", "1")
	s.Require().Error(err)
	s.Empty(s.backend.deleted)

	out, err := s.run("y\n", "delete", "1")
	s.Require().NoError(err)
	s.Contains(out, "Meeting deleted successfully")
	s.Equal([]string{"1"}, s.backend.deleted)
}

func (s *CLISuite) TestSummarizeFromStdin() {
	out, err := s.run("  we agreed on the plan \n", "summarize", "--date", "2024-03-10")
	s.Require().NoError(err)

	s.Contains(out, "- decided things")
	s.Contains(out, "Meeting saved to database automatically (#9)")
	s.Require().Len(s.backend.summaries, 1)
	s.Equal("we agreed on the plan", s.backend.summaries[0].MeetingText)
	s.Equal("en-US", s.backend.summaries[0].MeetingLanguage)
}

func (s *CLISuite) TestSummarizeRejectsBlankText() {
	_, err := s.run(" \n\t", "summarize")
	s.Require().Error(err)
	s.Empty(s.backend.summaries)
}

func (s *CLISuite) TestSaveAndExport() {
	out, err := s.run("notes from the call", "save", "--title", "Team Sync", "--date", "2024-03-10")
	s.Require().NoError(err)
	s.Contains(out, "(#1)")

	out, err = s.run("", "export", "1")
	s.Require().NoError(err)
	path := filepath.Join(s.cfg.Client.ExportDir, "meeting_2024-03-10_team_sync.txt")
	s.Contains(out, path)

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Contains(string(data), "=== TRANSCRIPT ===\nnotes from the call")
}

func (s *CLISuite) TestSessionScript() {
	s.seed("Standup", "yesterday I fixed the build")

	script := strings.Join([]string{
		"start",
		"text hello team",
		"title Weekly",
		"load 1",
		"show",
		"quit",
	}, "\n")
	out, err := s.run(script, "session")
	s.Require().NoError(err)

	s.Contains(out, "Voice recording is not available")
	s.Contains(out, "Standup")
	s.Contains(out, "Meeting loaded successfully")
	s.Contains(out, "yesterday I fixed the build")
}

func TestParseID(t *testing.T) {
	id, err := parseID("#12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseID("0")
	assert.Error(t, err)
	_, err = parseID("abc")
	assert.Error(t, err)
}

func TestVersionCommandSkipsConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd(&Dependencies{Out: &out})
	cmd.SetArgs([]string{"version", "--config", "/does/not/exist.yaml"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "meeting dev")
}
