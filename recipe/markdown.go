package recipe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/use-agent/producerecipe/models"
)

// Markdown renders a recipe for display, skipping empty fields.
func Markdown(rc models.RecipeContent) string {
	var b strings.Builder

	if rc.Name != "" {
		fmt.Fprintf(&b, "## %s\n\n", rc.Name)
	}
	if rc.Image != "" {
		fmt.Fprintf(&b, "![%s](%s)\n\n", rc.Name, rc.Image)
	}
	if rc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", rc.Description)
	}
	if rc.Author != "" {
		fmt.Fprintf(&b, "*By %s*\n\n", rc.Author)
	}
	if rc.Servings != "" {
		fmt.Fprintf(&b, "**Servings:** %s\n\n", rc.Servings)
	}
	if len(rc.Ingredients) > 0 {
		b.WriteString("### Ingredients\n\n")
		for _, ing := range rc.Ingredients {
			fmt.Fprintf(&b, "- %s\n", ing)
		}
		b.WriteString("\n")
	}
	if rc.Instructions != "" {
		fmt.Fprintf(&b, "### Instructions\n\n%s\n\n", rc.Instructions)
	}
	if len(rc.Nutrition) > 0 {
		b.WriteString("### Nutrition\n\n")
		keys := make([]string, 0, len(rc.Nutrition))
		for k := range rc.Nutrition {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, rc.Nutrition[k])
		}
		b.WriteString("\n")
	}
	if rc.URL != "" {
		fmt.Fprintf(&b, "[Original recipe](%s)\n", rc.URL)
	}

	return strings.TrimSpace(b.String())
}
