package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/esolhaug/aq/internal/queue"
)

func setupQueue(t *testing.T) (dir, logFile string) {
	t.Helper()
	dir = t.TempDir()
	for _, name := range []string{"q1.adql", "q2.adql", "DONE_q0.adql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	logFile = filepath.Join(dir, "query_log.txt")
	if err := queue.AppendLog(logFile, queue.LogEntry{
		File: "q0.adql", Action: "executed", Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local),
	}); err != nil {
		t.Fatal(err)
	}
	return dir, logFile
}

func TestStatusEndpoint(t *testing.T) {
	dir, logFile := setupQueue(t)
	router := newRouter(dir, logFile)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var st status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if st.Pending != 2 || st.Done != 1 || st.Total != 3 {
		t.Errorf("status = %+v", st)
	}
	if len(st.Recent) != 1 || st.Recent[0].File != "q0.adql" {
		t.Errorf("recent = %+v", st.Recent)
	}
}

func TestStatusEndpoint_NoLogYet(t *testing.T) {
	dir := t.TempDir()
	router := newRouter(dir, filepath.Join(dir, "query_log.txt"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Total != 0 || len(st.Recent) != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestStatusEndpoint_MissingQueryDir(t *testing.T) {
	router := newRouter(filepath.Join(t.TempDir(), "gone"), "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	dir, logFile := setupQueue(t)
	router := newRouter(dir, logFile)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "1 done / 3 total") {
		t.Errorf("page missing counts: %s", body)
	}
	if !strings.Contains(body, "q0.adql") {
		t.Errorf("page missing log entry: %s", body)
	}
}
