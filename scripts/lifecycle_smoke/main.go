package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// tinySignature is a 1x1 PNG.
const tinySignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type step struct {
	Name     string
	Method   string
	Path     string
	Body     interface{}
	Expected int
	Public   bool
}

type outcome struct {
	Step     step
	Status   int
	Duration time.Duration
	Error    error
}

type client struct {
	http  *http.Client
	base  string
	token string
}

func main() {
	var (
		base    string
		secret  string
		orgID   string
		userID  string
		childID string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including the prefix")
	flag.StringVar(&secret, "jwt-secret", "dev_secret", "HS256 secret shared with the API")
	flag.StringVar(&orgID, "org", "", "Organization ID")
	flag.StringVar(&userID, "user", "", "Director staff ID used as the actor")
	flag.StringVar(&childID, "child", "", "Child ID the incident is filed for")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if orgID == "" || userID == "" || childID == "" {
		log.Fatal("-org, -user and -child are required")
	}

	token, err := mintToken(secret, orgID, userID)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	c := &client{http: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/"), token: token}

	var results []outcome
	run := func(s step) (json.RawMessage, bool) {
		data, res := c.do(s)
		results = append(results, res)
		return data, res.Error == nil
	}

	created, ok := run(step{Name: "create", Method: http.MethodPost, Path: "/incidents", Expected: http.StatusCreated, Body: map[string]interface{}{
		"child_id":      childID,
		"incident_type": models.IncidentTypeInjury,
		"severity":      models.SeverityMinor,
		"occurred_at":   time.Now().Add(-time.Hour).UTC(),
		"description":   "Smoke check: tripped on the playground",
		"action_taken":  "Cleaned and applied a bandage",
	}})
	if !ok {
		finish(results)
	}
	var incident models.Incident
	if err := json.Unmarshal(created, &incident); err != nil || incident.ID == "" {
		log.Fatalf("unexpected create payload: %s", created)
	}
	id := incident.ID

	steps := []step{
		{Name: "notify parent", Method: http.MethodPost, Path: "/incidents/" + id + "/notify-parent", Expected: http.StatusOK, Body: map[string]interface{}{"method": models.NotificationPhone}},
		{Name: "sign", Method: http.MethodPost, Path: "/incidents/" + id + "/signature", Expected: http.StatusOK, Body: map[string]interface{}{
			"signature_data":         tinySignature,
			"signed_by_name":         "Smoke Guardian",
			"signed_by_relationship": "Parent",
		}},
		{Name: "close", Method: http.MethodPost, Path: "/incidents/" + id + "/close", Expected: http.StatusOK, Body: map[string]interface{}{"notes": "smoke check"}},
		{Name: "close again", Method: http.MethodPost, Path: "/incidents/" + id + "/close", Expected: http.StatusConflict},
		{Name: "report html", Method: http.MethodGet, Path: "/incidents/" + id + "/report", Expected: http.StatusOK},
		{Name: "report pdf", Method: http.MethodGet, Path: "/incidents/" + id + "/report/download", Expected: http.StatusOK},
		{Name: "history", Method: http.MethodGet, Path: "/incidents/" + id + "/history", Expected: http.StatusOK},
	}
	for _, s := range steps {
		if _, ok := run(s); !ok {
			finish(results)
		}
	}

	shared, ok := run(step{Name: "share", Method: http.MethodPost, Path: "/incidents/" + id + "/report/share", Expected: http.StatusCreated})
	if ok {
		var link struct {
			DownloadURL string `json:"download_url"`
		}
		if err := json.Unmarshal(shared, &link); err == nil && link.DownloadURL != "" {
			if parsed, err := url.Parse(link.DownloadURL); err == nil {
				run(step{Name: "guardian download", Method: http.MethodGet, Path: "/reports/download?" + parsed.RawQuery, Expected: http.StatusOK, Public: true})
			}
		}
	}

	finish(results)
}

func mintToken(secret, orgID, userID string) (string, error) {
	now := time.Now()
	claims := models.JWTClaims{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           models.RoleDirector,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (c *client) do(s step) (json.RawMessage, outcome) {
	res := outcome{Step: s}
	var body io.Reader
	if s.Body != nil {
		payload, err := json.Marshal(s.Body)
		if err != nil {
			res.Error = err
			return nil, res
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(s.Method, c.base+s.Path, body)
	if err != nil {
		res.Error = err
		return nil, res
	}
	if s.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !s.Public {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return nil, res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return nil, res
	}
	if resp.StatusCode != s.Expected {
		res.Error = fmt.Errorf("expected %d: %s", s.Expected, strings.TrimSpace(string(raw)))
		return nil, res
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return nil, res
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		res.Error = errors.New("response is not an envelope")
		return nil, res
	}
	return envelope.Data, res
}

func finish(results []outcome) {
	fmt.Println("Incident Lifecycle Smoke Report")
	fmt.Println("===============================")
	failed := 0
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s %s %s\n", status, res.Step.Name, res.Step.Method, res.Step.Path)
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
	fmt.Printf("Failed steps: %d of %d\n", failed, len(results))
	if failed > 0 {
		os.Exit(1)
	}
	os.Exit(0)
}
