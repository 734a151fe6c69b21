package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

// Smoke test against a running gateway. Requires the serverless backend
// (or a stub of it) to be reachable through the configured gateway URL.
func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Health check...")
	if !sendRequest("GET", "/health", nil) {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Search...")
	searchPayload := map[string]interface{}{
		"text":    "oak veneer panels",
		"surface": "smoke-test",
	}
	if !sendRequest("POST", "/api/search", searchPayload) {
		fmt.Println("FAILED: Search")
		os.Exit(1)
	}
	fmt.Println("PASSED: Search")

	fmt.Println("3. Chat session...")
	sessionID, ok := createSession()
	if !ok {
		fmt.Println("FAILED: Create session")
		os.Exit(1)
	}
	fmt.Println("PASSED: Create session")

	fmt.Println("4. Chat turn...")
	messagePayload := map[string]interface{}{
		"content": "What finishes pair well with oak?",
	}
	if !sendRequest("POST", "/api/chat/sessions/"+sessionID+"/messages", messagePayload) {
		fmt.Println("FAILED: Chat turn")
		os.Exit(1)
	}
	fmt.Println("PASSED: Chat turn")

	fmt.Println("5. Transcript...")
	if !sendRequest("GET", "/api/chat/sessions/"+sessionID+"/messages", nil) {
		fmt.Println("FAILED: Transcript")
		os.Exit(1)
	}
	fmt.Println("PASSED: Transcript")

	fmt.Println("6. Diagnostics...")
	if !sendRequest("GET", "/api/diagnostics/events", nil) {
		fmt.Println("FAILED: Diagnostics")
		os.Exit(1)
	}
	fmt.Println("PASSED: Diagnostics")
}

func createSession() (string, bool) {
	payload := map[string]interface{}{
		"workspace_id": fmt.Sprintf("smoke-%d", time.Now().Unix()),
		"enable_rag":   true,
	}
	jsonBytes, _ := json.Marshal(payload)

	resp, err := http.Post(baseURL+"/api/chat/sessions", "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		fmt.Printf("Error creating session: %v\n", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Session creation failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return "", false
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil || session.ID == "" {
		fmt.Printf("Could not decode session response: %v\n", err)
		return "", false
	}
	return session.ID, true
}

func sendRequest(method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
