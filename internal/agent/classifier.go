package agent

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// Classifier maps a free-text demand to a category, an
// urgency/impact/priority triple and a keyword set. The keyword
// implementation below is deliberately naive; a stronger model can be
// swapped in behind this interface without touching the decision engine.
type Classifier interface {
	Analyze(ctx context.Context, title, content string) (*domain.Analysis, error)
}

// KeywordClassifier suggests categories by matching domain keywords from
// the demand text against the category directory.
type KeywordClassifier struct {
	categories *glpi.CategoryDirectory
	logger     *zap.Logger
}

// NewKeywordClassifier constructs the classifier.
func NewKeywordClassifier(categories *glpi.CategoryDirectory, logger *zap.Logger) *KeywordClassifier {
	return &KeywordClassifier{categories: categories, logger: logger}
}

const neutralLevel = 3

// categoryBuckets map demand vocabulary to the category name fragments
// searched for in the directory. Order matters: first matching bucket
// wins.
var categoryBuckets = []struct {
	labels   []string
	triggers []string
}{
	{
		labels: []string{"hardware"},
		triggers: []string{
			"hardware", "impressora", "printer", "computador", "computer",
			"notebook", "monitor", "teclado", "mouse", "equipamento",
		},
	},
	{
		labels: []string{"software"},
		triggers: []string{
			"software", "sistema", "programa", "aplicativo", "application",
			"licenca", "licença", "instalacao", "instalação",
		},
	},
	{
		labels: []string{"rede", "network"},
		triggers: []string{
			"rede", "network", "internet", "wifi", "conexao", "conexão",
			"vpn", "servidor", "server",
		},
	},
}

var urgencyTerms = []string{
	"urgente", "urgent", "critico", "crítico", "critical",
	"emergencia", "emergência", "emergency", "parado", "down",
}

// Analyze extracts keywords, suggests a category and evaluates the
// urgency/impact/priority triple for a demand.
func (c *KeywordClassifier) Analyze(ctx context.Context, title, content string) (*domain.Analysis, error) {
	keywords := Tokenize(title + " " + content)

	categoryID, err := c.suggestCategory(ctx, keywords)
	if err != nil {
		return nil, err
	}

	urgency, impact, priority := evaluateLevels(title + " " + content)

	analysis := &domain.Analysis{
		Keywords:            keywords,
		SuggestedCategoryID: categoryID,
		Urgency:             urgency,
		Impact:              impact,
		Priority:            priority,
	}
	c.logger.Debug("demand analyzed",
		zap.Int("category_id", categoryID),
		zap.Int("priority", priority),
		zap.Int("keywords", len(keywords)))
	return analysis, nil
}

// suggestCategory always returns an id present in the directory, or
// NO_CATEGORIES_AVAILABLE when the directory is empty.
func (c *KeywordClassifier) suggestCategory(ctx context.Context, keywords []string) (int, error) {
	categories, err := c.categories.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(categories) == 0 {
		return 0, util.NewNoCategoriesAvailable()
	}

	ids := make([]int, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	keywordSet := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		keywordSet[keyword] = struct{}{}
	}

	for _, bucket := range categoryBuckets {
		if !bucketTriggered(bucket.triggers, keywordSet) {
			continue
		}
		for _, id := range ids {
			name := strings.ToLower(categories[id].Name)
			for _, label := range bucket.labels {
				if strings.Contains(name, label) {
					return id, nil
				}
			}
		}
	}

	// No bucket matched: fall back to the first-inserted category.
	return ids[0], nil
}

func bucketTriggered(triggers []string, keywords map[string]struct{}) bool {
	for _, trigger := range triggers {
		if _, ok := keywords[trigger]; ok {
			return true
		}
	}
	return false
}

func evaluateLevels(text string) (urgency, impact, priority int) {
	urgency, impact, priority = neutralLevel, neutralLevel, neutralLevel
	lowered := strings.ToLower(text)
	for _, term := range urgencyTerms {
		if strings.Contains(lowered, term) {
			return 1, 1, 1
		}
	}
	return urgency, impact, priority
}

var stopWords = map[string]struct{}{}

func init() {
	for _, word := range []string{
		// Portuguese
		"uma", "com", "sem", "que", "nao", "não", "para", "por", "dos",
		"das", "este", "esta", "esse", "essa", "isso", "mas", "meu",
		"minha", "seu", "sua", "foi", "ser", "tem", "são", "sao", "está",
		"estão", "estao", "pela", "pelo", "mais", "como", "quando",
		// English
		"the", "and", "for", "are", "was", "with", "this", "that", "from",
		"not", "has", "have", "its", "but", "can", "will", "you", "our",
	} {
		stopWords[word] = struct{}{}
	}
}

// Tokenize lowercases the text, splits it on non-letter runes and drops
// stop-words and tokens shorter than three runes. First occurrence order
// is preserved.
func Tokenize(text string) []string {
	parts := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(parts))
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if len([]rune(part)) < 3 {
			continue
		}
		if _, ok := stopWords[part]; ok {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		keywords = append(keywords, part)
	}
	return keywords
}
