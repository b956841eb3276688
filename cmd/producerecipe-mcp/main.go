package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/producerecipe/models"
)

func main() {
	apiURL := os.Getenv("PRODUCE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the REST server runs without auth by default.
	apiKey := os.Getenv("PRODUCE_API_KEY")

	s := server.NewMCPServer(
		"producerecipe",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	sess := newSession(apiURL, apiKey)

	classifyTool := mcp.NewTool("classify_images",
		mcp.WithDescription("Step 1. Classify photos of fruit and vegetables. Returns the predicted produce label, probability and confidence (Low/Medium/High) for each image."),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Local paths of JPEG or PNG images"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(classifyTool, sess.handleClassify)

	scrapeTool := mcp.NewTool("scrape_recipes",
		mcp.WithDescription("Step 2. Search the web for vegetarian recipes using the labels from classify_images and return the recipe table."),
		mcp.WithString("cuisine",
			mcp.Description("Cuisine added to the search: 'Any' (default), 'Indian', 'Mexican', 'Chinese' or 'Italian'"),
			mcp.Enum(cuisineNames()...),
		),
		mcp.WithString("engine",
			mcp.Description("Search engine: 'Google' (default) or 'Bing'"),
			mcp.Enum(string(models.EngineGoogle), string(models.EngineBing)),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of Bing results, 1 to 500 (default: 15). Ignored for Google."),
		),
		mcp.WithString("sort",
			mcp.Description("Table order: 'None' (default), 'Popularity' (most reviews first), 'Calories' or 'Time' (lowest first)"),
			mcp.Enum(string(models.SortNone), string(models.SortPopularity), string(models.SortCalories), string(models.SortTime)),
		),
		mcp.WithBoolean("ignore_low",
			mcp.Description("Skip Low-confidence predictions (default: true)"),
		),
	)
	s.AddTool(scrapeTool, sess.handleScrape)

	showTool := mcp.NewTool("show_recipes",
		mcp.WithDescription("Step 3. Show the scraped recipe table, or with feeling_hungry pick a random recipe from it and show its full ingredients and instructions."),
		mcp.WithBoolean("feeling_hungry",
			mcp.Description("Pick and display one random recipe instead of the table (default: false)"),
		),
	)
	s.AddTool(showTool, sess.handleShow)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func cuisineNames() []string {
	names := make([]string, len(models.Cuisines))
	for i, c := range models.Cuisines {
		names[i] = string(c)
	}
	return names
}
