package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"ilm-quiz-service/internal/domain"
)

// questionDocument is the on-disk YAML shape of the question bank.
type questionDocument struct {
	Categories []domain.Category `yaml:"categories"`
	Questions  []domain.Question `yaml:"questions"`
}

// QuestionLoader reads the question bank and category catalog from one YAML file.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	doc, err := l.read()
	if err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

// Categories returns the catalog from the same document.
func (l *QuestionLoader) Categories() ([]domain.Category, error) {
	doc, err := l.read()
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (l *QuestionLoader) read() (questionDocument, error) {
	var doc questionDocument
	data, err := os.ReadFile(l.path)
	if err != nil {
		return doc, fmt.Errorf("read question file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode question file: %w", err)
	}
	return doc, nil
}
