// Package seed holds the sample question catalog and its YAML decoding.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quizsite-service/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is a set of categories with their questions.
type Catalog struct {
	Categories []CategorySeed `yaml:"categories"`
}

type CategorySeed struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Icon        string         `yaml:"icon"`
	ColorClass  string         `yaml:"color_class"`
	Questions   []QuestionSeed `yaml:"questions"`
}

type QuestionSeed struct {
	Text          string            `yaml:"text"`
	Options       map[string]string `yaml:"options"`
	CorrectAnswer string            `yaml:"correct_answer"`
	Explanation   string            `yaml:"explanation"`
	Explanations  map[string]string `yaml:"explanations"`
	ReferenceLink string            `yaml:"reference_link"`
	Difficulty    string            `yaml:"difficulty"`
}

// Default returns the embedded sample catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate enforces unique category names and well-formed questions.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return domain.InvalidInputf("category without a name")
		}
		if _, dup := seen[cat.Name]; dup {
			return domain.InvalidInputf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = struct{}{}
		for _, q := range cat.Questions {
			if err := q.Question(0, cat.Name).Validate(); err != nil {
				return fmt.Errorf("category %q: %w", cat.Name, err)
			}
		}
	}
	return nil
}

// Category converts the seed into a domain category.
func (c CategorySeed) Category() domain.Category {
	icon, color := c.Icon, c.ColorClass
	if icon == "" {
		icon = "📚"
	}
	if color == "" {
		color = "bg-blue-500"
	}
	return domain.Category{
		Name:          c.Name,
		Description:   c.Description,
		Icon:          icon,
		ColorClass:    color,
		QuestionCount: len(c.Questions),
	}
}

// Question converts the seed into a domain question of the given category.
func (q QuestionSeed) Question(categoryID int64, categoryName string) domain.Question {
	difficulty := domain.Difficulty(q.Difficulty)
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	return domain.Question{
		CategoryID:    categoryID,
		CategoryName:  categoryName,
		Text:          q.Text,
		Options:       optionMap(q.Options),
		CorrectAnswer: domain.Option(q.CorrectAnswer),
		Explanation:   q.Explanation,
		Explanations:  optionMap(q.Explanations),
		ReferenceLink: q.ReferenceLink,
		Difficulty:    difficulty,
	}
}

func optionMap(raw map[string]string) map[domain.Option]string {
	out := make(map[domain.Option]string, len(domain.Options))
	for _, opt := range domain.Options {
		out[opt] = raw[string(opt)]
	}
	return out
}

// Build assigns sequential ids to every category and question.
func (c Catalog) Build(now time.Time) ([]domain.Category, []domain.Question) {
	categories := make([]domain.Category, 0, len(c.Categories))
	var questions []domain.Question
	var questionID int64
	for i, cs := range c.Categories {
		category := cs.Category()
		category.ID = int64(i + 1)
		category.CreatedAt = now
		categories = append(categories, category)
		for _, qs := range cs.Questions {
			questionID++
			q := qs.Question(category.ID, category.Name)
			q.ID = questionID
			q.CreatedAt, q.UpdatedAt = now, now
			questions = append(questions, q)
		}
	}
	return categories, questions
}
