package recipe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/use-agent/producerecipe/cleaner"
	"github.com/use-agent/producerecipe/models"
)

// errShape reports a JSON-LD value that does not have the expected structure.
var errShape = errors.New("recipe: unexpected JSON-LD structure")

// Parse converts decoded JSON-LD into a RecipeContent. Two shapes are read:
//
//   - flat: the Recipe object itself. Each ingredient and each step replaces
//     the previous one, so only the last of each is kept.
//   - graph: an object whose "@graph" lists typed nodes. The first node typed
//     Recipe provides the fields; its ingredient list is kept whole and the
//     texts of its steps are joined with newlines.
//
// A top-level array is searched for its first Recipe object, read as flat.
// On a structural mismatch Parse returns false together with the fields
// filled before the mismatch.
func Parse(raw any) (models.RecipeContent, bool) {
	var rc models.RecipeContent
	var err error

	switch v := raw.(type) {
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			err = parseGraph(&rc, graph)
		} else {
			err = parseFlat(&rc, v)
		}
	case []any:
		err = errShape
		for _, item := range v {
			if node, ok := item.(map[string]any); ok && isRecipe(node["@type"]) {
				err = parseFlat(&rc, node)
				break
			}
		}
	default:
		err = errShape
	}
	return rc, err == nil
}

func parseFlat(rc *models.RecipeContent, m map[string]any) error {
	var err error
	if rc.Name, err = stringField(m, "name"); err != nil {
		return err
	}
	if rc.Description, err = stringField(m, "description"); err != nil {
		return err
	}
	rc.Description = cleaner.HTMLToText(rc.Description)
	if rc.Author, err = authorName(m["author"]); err != nil {
		return err
	}
	if rc.Image, err = imageURL(m["image"]); err != nil {
		return err
	}

	ingredients, err := listField(m, "recipeIngredient")
	if err != nil {
		return err
	}
	for _, item := range ingredients {
		s, ok := item.(string)
		if !ok {
			return fmt.Errorf("%w: ingredient is %T", errShape, item)
		}
		rc.Ingredients = []string{cleaner.CollapseSpace(s)}
	}

	steps, err := listField(m, "recipeInstructions")
	if err != nil {
		return err
	}
	for _, step := range steps {
		text, err := stepText(step)
		if err != nil {
			return err
		}
		rc.Instructions = cleaner.CollapseSpace(cleaner.HTMLToText(text))
	}
	return nil
}

func parseGraph(rc *models.RecipeContent, graph any) error {
	nodes, ok := graph.([]any)
	if !ok {
		return fmt.Errorf("%w: @graph is %T", errShape, graph)
	}
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: @graph node is %T", errShape, n)
		}
		if isRecipe(node["@type"]) {
			return parseGraphRecipe(rc, node)
		}
	}
	return fmt.Errorf("%w: no Recipe node in @graph", errShape)
}

func parseGraphRecipe(rc *models.RecipeContent, d map[string]any) error {
	var err error
	if rc.Name, err = stringField(d, "name"); err != nil {
		return err
	}
	if rc.Description, err = stringField(d, "description"); err != nil {
		return err
	}
	rc.Description = cleaner.HTMLToText(rc.Description)
	if rc.Author, err = authorName(d["author"]); err != nil {
		return err
	}
	if rc.Image, err = imageURL(d["image"]); err != nil {
		return err
	}
	if rc.Servings, err = firstScalar(d["recipeYield"]); err != nil {
		return err
	}

	ingredients, err := listField(d, "recipeIngredient")
	if err != nil {
		return err
	}
	rc.Ingredients = make([]string, 0, len(ingredients))
	for _, item := range ingredients {
		s, ok := item.(string)
		if !ok {
			return fmt.Errorf("%w: ingredient is %T", errShape, item)
		}
		rc.Ingredients = append(rc.Ingredients, s)
	}

	steps, err := listField(d, "recipeInstructions")
	if err != nil {
		return err
	}
	var texts []string
	collectStepTexts(steps, &texts)
	rc.Instructions = strings.Join(texts, "\n")

	rc.Nutrition, err = nutrition(d["nutrition"])
	return err
}

// collectStepTexts appends the text of every step that has one. Sections
// (HowToSection) contribute the texts of their own steps.
func collectStepTexts(steps []any, texts *[]string) {
	for _, s := range steps {
		step, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := step["text"].(string); ok {
			*texts = append(*texts, cleaner.HTMLToText(text))
			continue
		}
		if items, ok := step["itemListElement"].([]any); ok {
			collectStepTexts(items, texts)
		}
	}
}

func isRecipe(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.Contains(v, "Recipe")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", errShape, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T", errShape, key, v)
	}
	return strings.TrimSpace(s), nil
}

func listField(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", errShape, key)
	}
	switch l := v.(type) {
	case []any:
		return l, nil
	case string:
		return []any{l}, nil
	}
	return nil, fmt.Errorf("%w: %q is %T", errShape, key, v)
}

// authorName reads an author object, a list of them or a bare name.
func authorName(v any) (string, error) {
	switch a := v.(type) {
	case map[string]any:
		return stringField(a, "name")
	case []any:
		if len(a) > 0 {
			return authorName(a[0])
		}
	case string:
		return strings.TrimSpace(a), nil
	}
	return "", fmt.Errorf("%w: author is %T", errShape, v)
}

// imageURL reads a URL string, the first element of a list, or an
// ImageObject's url.
func imageURL(v any) (string, error) {
	switch img := v.(type) {
	case string:
		return img, nil
	case []any:
		if len(img) > 0 {
			return imageURL(img[0])
		}
	case map[string]any:
		return stringField(img, "url")
	}
	return "", fmt.Errorf("%w: image is %T", errShape, v)
}

// firstScalar reads a scalar or the first element of a list as text.
func firstScalar(v any) (string, error) {
	switch y := v.(type) {
	case string:
		return y, nil
	case float64:
		return strconv.FormatFloat(y, 'f', -1, 64), nil
	case []any:
		if len(y) > 0 {
			return firstScalar(y[0])
		}
	}
	return "", fmt.Errorf("%w: recipeYield is %T", errShape, v)
}

func stepText(step any) (string, error) {
	switch s := step.(type) {
	case string:
		return s, nil
	case map[string]any:
		return stringField(s, "text")
	}
	return "", fmt.Errorf("%w: step is %T", errShape, step)
}

// nutrition flattens a NutritionInformation object, skipping "@" keys.
func nutrition(v any) (map[string]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: nutrition is %T", errShape, v)
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		if strings.HasPrefix(k, "@") {
			continue
		}
		switch val := raw.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return out, nil
}
