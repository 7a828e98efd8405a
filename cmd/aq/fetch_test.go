package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

func TestFetchCmd_Flags(t *testing.T) {
	cmd := newFetchCmd()
	for _, flag := range []string{"config", "vos-dir", "local-dir", "log-file", "watch", "schedule"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag", flag)
		}
	}
}

func TestFetchCmd_BadSchedule(t *testing.T) {
	// An invalid cron expression fails before the login prompt.
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"fetch", "--watch", "--schedule", "not a schedule"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for bad schedule")
	}
	if !strings.Contains(err.Error(), "bad --schedule") {
		t.Errorf("error = %v", err)
	}
}

func TestFetchCmd_DownloadsResults(t *testing.T) {
	files := map[string]string{
		"a.csv": "ra,dec\n1,2\n",
		"b.csv": "ra,dec\n3,4\n",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "tok123")
	})
	mux.HandleFunc("/auth/isValidToken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "true")
	})
	mux.HandleFunc("/storage/access", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "true")
	})
	mux.HandleFunc("/storage/ls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "survey/a.csv,survey/b.csv")
	})
	mux.HandleFunc("/storage/get", func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Query().Get("name"))
		body, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	localDir := filepath.Join(dir, "results")
	cfgPath := testConfig(t, dir, srv, "")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("alice\nsecret\n"))
	cmd.SetArgs([]string{
		"fetch", "--config", cfgPath,
		"--vos-dir", "survey", "--local-dir", localDir,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(localDir, name))
		if err != nil {
			t.Fatalf("%s not downloaded: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}
