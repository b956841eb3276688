package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/workflow"
)

// session carries the three-step flow between tool calls. Calls are
// serialised; each step reads what the previous one stored.
type session struct {
	apiURL string
	apiKey string
	client *http.Client

	mu          sync.Mutex
	state       workflow.State
	predictions []models.PredictionRecord
	rows        []models.NormalizedRecipeRow
}

func newSession(apiURL, apiKey string) *session {
	return &session{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		// Bing scrapes scroll for minutes on large limits.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (s *session) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := request.RequireStringSlice("paths")
	if err != nil || len(paths) == 0 {
		return mcp.NewToolResultError("paths is required and must be a non-empty array of file paths"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.state.Apply(workflow.ActionClassify)

	body, contentType, err := imageForm(paths)
	if err != nil {
		s.state.Fail(workflow.ActionClassify)
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp models.ClassifyResponse
	if err := s.post(ctx, "/api/v1/classify", contentType, body, &resp); err != nil {
		s.state.Fail(workflow.ActionClassify)
		return mcp.NewToolResultError(fmt.Sprintf("classify request failed: %v", err)), nil
	}
	if !resp.Success {
		s.state.Fail(workflow.ActionClassify)
		return mcp.NewToolResultError(errorMessage(resp.Error, "classification failed")), nil
	}

	s.predictions = resp.Predictions
	s.rows = nil

	var sb strings.Builder
	sb.WriteString("Image classification successful!\n\n")
	sb.WriteString("| filename | prediction | probability | confidence |\n|---|---|---|---|\n")
	for _, p := range resp.Predictions {
		fmt.Fprintf(&sb, "| %s | %s | %.2f | %s |\n", p.Filename, p.Label, p.Probability, p.Confidence)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *session) handleScrape(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Apply(workflow.ActionScrape); err != nil {
		return mcp.NewToolResultError(workflowMessage(err)), nil
	}

	ignoreLow := request.GetBool("ignore_low", true)
	payload := models.SearchRequest{
		Predictions: s.predictions,
		IgnoreLow:   &ignoreLow,
		Cuisine:     request.GetString("cuisine", ""),
		Engine:      request.GetString("engine", ""),
		Limit:       request.GetInt("limit", 0),
		Sort:        request.GetString("sort", ""),
	}

	var resp models.SearchResponse
	if err := s.postJSON(ctx, "/api/v1/recipes/search", payload, &resp); err != nil {
		s.state.Fail(workflow.ActionScrape)
		return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
	}
	if !resp.Success {
		s.state.Fail(workflow.ActionScrape)
		return mcp.NewToolResultError(errorMessage(resp.Error, "recipe scraping failed")), nil
	}

	s.rows = resp.Rows

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recipe scraping successful! %d recipes for %q.\n", len(resp.Rows), resp.Query)
	if len(resp.Issues) > 0 {
		fmt.Fprintf(&sb, "%d values could not be read and are left blank.\n", len(resp.Issues))
	}
	sb.WriteString("Please proceed to Step 3 to display complete results.\n")
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *session) handleShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Apply(workflow.ActionShow); err != nil {
		return mcp.NewToolResultError(workflowMessage(err)), nil
	}

	if !request.GetBool("feeling_hungry", false) {
		return mcp.NewToolResultText("Done! Recipes produced successfully!\n\n" + recipeTable(s.rows)), nil
	}

	var resp models.RecipeResponse
	if err := s.postJSON(ctx, "/api/v1/recipes/random", models.RandomRequest{Rows: s.rows}, &resp); err != nil {
		s.state.Fail(workflow.ActionShow)
		return mcp.NewToolResultError(fmt.Sprintf("random recipe request failed: %v", err)), nil
	}
	if !resp.Success {
		s.state.Fail(workflow.ActionShow)
		return mcp.NewToolResultError(errorMessage(resp.Error, "Error parsing JSON-LD script, try another recipe.")), nil
	}
	return mcp.NewToolResultText("Done! Recipe produced successfully!\n\n" + resp.Markdown), nil
}

// imageForm builds a multipart body with every path under "images[]".
func imageForm(paths []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", p, err)
		}
		fw, err := mw.CreateFormFile("images[]", filepath.Base(p))
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, "", fmt.Errorf("write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (s *session) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return s.post(ctx, path, "application/json", bytes.NewReader(body), out)
}

// post sends a request to the REST API and decodes the JSON body into out,
// whatever the status code.
func (s *session) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorMessage(detail *models.ErrorDetail, fallback string) string {
	if detail == nil || detail.Message == "" {
		return fallback
	}
	return detail.Message
}

// workflowMessage returns the user-facing warning of an order error.
func workflowMessage(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// recipeTable renders the visible columns with the title linked.
func recipeTable(rows []models.NormalizedRecipeRow) string {
	if len(rows) == 0 {
		return "No recipes found."
	}
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(models.VisibleColumns, " | ") + " |\n")
	sb.WriteString(strings.Repeat("|---", len(models.VisibleColumns)) + "|\n")
	for _, r := range rows {
		title := cell(r.Title)
		if r.Link != "" {
			title = fmt.Sprintf("[%s](%s)", title, r.Link)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			title, cell(r.Source), intCell(r.TotalTimeMinutes), intCell(r.Calories), intCell(r.Reviews), floatCell(r.Ratings))
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
