package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "windrose server URL")
	dest := flag.String("dest", "", "destination city")
	start := flag.String("start", "", "start date (YYYY-MM-DD)")
	end := flag.String("end", "", "end date (YYYY-MM-DD)")
	budget := flag.String("budget", "mid", "budget tier: budget, mid or luxury")
	interests := flag.String("interests", "", "comma separated interests")
	group := flag.Int("group", 1, "group size")
	engine := flag.String("engine", "society", "planning engine: society or graph")
	listAgents := flag.Bool("agents", false, "list registered agents and exit")
	listTasks := flag.Bool("tasks", false, "list submitted tasks and exit")
	flag.Parse()

	if *listAgents {
		fetchAgents(*server)
		return
	}
	if *listTasks {
		fetchTasks(*server)
		return
	}
	if *dest == "" {
		fmt.Println("Usage: planctl -dest 杭州 -start 2026-05-01 -end 2026-05-03 [-budget mid] [-engine society]")
		fmt.Println("       planctl -agents | -tasks")
		os.Exit(2)
	}

	req := map[string]interface{}{
		"destination": *dest,
		"start_date":  *start,
		"end_date":    *end,
		"budget":      *budget,
		"group_size":  *group,
		"engine":      *engine,
	}
	if *interests != "" {
		req["interests"] = strings.Split(*interests, ",")
	}

	taskID := submitPlan(*server, req)
	fmt.Printf("Task submitted: %s\n", taskID)
	pollTask(*server, taskID)
}

func submitPlan(server string, req map[string]interface{}) string {
	body, _ := json.Marshal(req)
	resp, err := http.Post(server+"/api/plan", "application/json", bytes.NewReader(body))
	if err != nil {
		fatal("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		fatal("Server error (%d): %s", resp.StatusCode, string(data))
	}

	var accepted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		fatal("Failed to parse response: %v", err)
	}
	return accepted.TaskID
}

func pollTask(server, taskID string) {
	lastProgress := -1
	for {
		resp, err := http.Get(server + "/api/status/" + taskID)
		if err != nil {
			fatal("Status request failed: %v", err)
		}

		var status struct {
			Status       string `json:"status"`
			Progress     int    `json:"progress"`
			CurrentAgent string `json:"current_agent"`
			Message      string `json:"message"`
			Error        string `json:"error"`
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			fatal("Failed to parse status: %v", err)
		}

		if status.Progress != lastProgress {
			lastProgress = status.Progress
			agent := status.CurrentAgent
			if agent == "" {
				agent = "-"
			}
			fmt.Printf("\033[36m[%3d%%]\033[0m %-14s %s\n", status.Progress, agent, status.Message)
		}

		switch status.Status {
		case "done":
			downloadPlan(server, taskID)
			return
		case "failed":
			fatal("Planning failed: %s", status.Error)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func downloadPlan(server, taskID string) {
	resp, err := http.Get(server + "/api/download/" + taskID)
	if err != nil {
		fatal("Download failed: %v", err)
	}
	defer resp.Body.Close()

	name := fmt.Sprintf("plan-%s.json", taskID)
	out, err := os.Create(name)
	if err != nil {
		fatal("Cannot write %s: %v", name, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		fatal("Cannot write %s: %v", name, err)
	}
	fmt.Printf("\033[32mPlan saved to %s\033[0m\n", name)
}

func fetchAgents(server string) {
	resp, err := http.Get(server + "/api/agents")
	if err != nil {
		fatal("Failed to fetch agents: %v", err)
	}
	defer resp.Body.Close()

	var agents []struct {
		ID           string   `json:"id"`
		Role         string   `json:"role"`
		Capabilities []string `json:"capabilities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		fatal("Failed to parse agents: %v", err)
	}
	fmt.Println("Registered agents:")
	for _, a := range agents {
		fmt.Printf("  %-14s %-18s %s\n", a.ID, a.Role, strings.Join(a.Capabilities, ", "))
	}
}

func fetchTasks(server string) {
	resp, err := http.Get(server + "/api/tasks")
	if err != nil {
		fatal("Failed to fetch tasks: %v", err)
	}
	defer resp.Body.Close()

	var tasks []struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Request  struct {
			Destination string `json:"destination"`
		} `json:"request"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		fatal("Failed to parse tasks: %v", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks yet.")
		return
	}
	for _, t := range tasks {
		fmt.Printf("  %s  %-8s %3d%%  %s\n", t.ID, t.Status, t.Progress, t.Request.Destination)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
	os.Exit(1)
}
