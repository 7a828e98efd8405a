package dashboard

import (
	"net/http"
	"os"

	"github.com/esolhaug/aq/internal/queue"
	"github.com/gin-gonic/gin"
)

// recentEntries caps how many log lines the dashboard shows.
const recentEntries = 20

// status is the payload shared by the JSON API and the HTML page.
type status struct {
	Pending int              `json:"pending"`
	Done    int              `json:"done"`
	Total   int              `json:"total"`
	Recent  []recentLogEntry `json:"recent"`
}

type recentLogEntry struct {
	File   string `json:"file"`
	Action string `json:"action"`
	Time   string `json:"time"`
	JobID  string `json:"job_id,omitempty"`
	Phase  string `json:"phase,omitempty"`
}

func buildStatus(queryDir, logFile string) (*status, error) {
	pending, done, err := queue.Stats(queryDir)
	if err != nil {
		return nil, err
	}
	st := &status{Pending: pending, Done: done, Total: pending + done}

	// A log that does not exist yet is normal early in a run.
	if _, statErr := os.Stat(logFile); logFile != "" && statErr == nil {
		entries, err := queue.ReadLog(logFile)
		if err != nil {
			return nil, err
		}
		start := len(entries) - recentEntries
		if start < 0 {
			start = 0
		}
		for _, e := range entries[start:] {
			st.Recent = append(st.Recent, recentLogEntry{
				File:   e.File,
				Action: e.Action,
				Time:   e.Time.Format("2006-01-02 15:04:05"),
				JobID:  e.JobID,
				Phase:  e.Phase,
			})
		}
	}
	return st, nil
}

func handleStatus(queryDir, logFile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := buildStatus(queryDir, logFile)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func handleIndex(queryDir, logFile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := buildStatus(queryDir, logFile)
		if err != nil {
			c.String(http.StatusInternalServerError, "status unavailable: %v", err)
			return
		}
		c.HTML(http.StatusOK, "index.html", st)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>aq — query queue</title>
<style>
body { font-family: monospace; margin: 2rem; }
table { border-collapse: collapse; }
td, th { padding: 0.2rem 0.8rem; text-align: left; }
</style>
</head>
<body>
<h1>Query queue</h1>
<p>{{.Done}} done / {{.Total}} total ({{.Pending}} pending)</p>
<h2>Recent completions</h2>
<table>
<tr><th>file</th><th>action</th><th>time</th><th>job</th><th>phase</th></tr>
{{range .Recent}}<tr><td>{{.File}}</td><td>{{.Action}}</td><td>{{.Time}}</td><td>{{.JobID}}</td><td>{{.Phase}}</td></tr>
{{end}}
</table>
</body>
</html>
`
