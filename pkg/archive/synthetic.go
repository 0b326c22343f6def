package archive

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
)

const (
	syntheticPublisher = "The New York Times"
	syntheticLink      = "https://www.nytimes.com/"
	syntheticSpanDays  = 10
	syntheticMinDaily  = 3
	syntheticMaxDaily  = 5
)

type topicTemplate struct {
	category  string
	headlines [5]string
	abstracts [5]string
}

var topicTemplates = []topicTemplate{
	{
		category: "technology",
		headlines: [5]string{
			"Technology Revolution Transforms Healthcare Industry",
			"Quantum Computing Breakthrough Announced",
			"Tech Giants Face New Regulations",
			"Cryptocurrency Market Shows Volatility",
			"Space Technology Reaches New Milestones",
		},
		abstracts: [5]string{
			"Advanced systems are changing patient care and diagnostics, improving accuracy and efficiency in treatment.",
			"Researchers report a quantum computing milestone that brings hard optimization problems within reach.",
			"Regulators worldwide are increasing scrutiny of large technology companies over privacy and competition.",
			"Digital currencies keep swinging in price as investors weigh adoption against regulatory uncertainty.",
			"Private space companies are flying new missions and testing technologies at an unprecedented pace.",
		},
	},
	{
		category: "business",
		headlines: [5]string{
			"Global Markets React to Economic News",
			"Startup Funding Reaches Record Highs",
			"Supply Chain Innovations Drive Growth",
			"Green Energy Investments Surge",
			"Retail Giants Embrace Digital Transformation",
		},
		abstracts: [5]string{
			"Stock markets are responding to new economic indicators as investors watch inflation and growth forecasts.",
			"Venture firms are investing record amounts in automation and clean energy startups.",
			"Companies are rebuilding supply chains with technology that improves efficiency and cuts emissions.",
			"Investment in renewable energy projects hit new highs as governments and companies set climate targets.",
			"Major retailers are accelerating digital programs to keep up with how consumers now shop.",
		},
	},
	{
		category: "health",
		headlines: [5]string{
			"Medical Breakthrough Offers Hope",
			"Mental Health Awareness Grows",
			"Vaccine Development Shows Progress",
			"Nutrition Research Reveals Insights",
			"Healthcare Technology Advances",
		},
		abstracts: [5]string{
			"Researchers are developing treatments that could improve outcomes for patients with chronic conditions.",
			"Growing awareness of mental health is leading to better support systems and less stigma.",
			"New vaccine platforms could offer broader protection against emerging health threats.",
			"Nutrition studies are linking diet to long-term health outcomes across different populations.",
			"Medical technology is enabling more precise diagnoses and personalized treatment.",
		},
	},
	{
		category: "science",
		headlines: [5]string{
			"Climate Research Provides New Data",
			"Archaeological Discovery Stuns Experts",
			"Ocean Exploration Yields Surprises",
			"Genetic Research Makes Progress",
			"Environmental Studies Show Impact",
		},
		abstracts: [5]string{
			"Climate scientists have gathered new evidence that could inform policy and conservation decisions.",
			"Archaeological finds are offering fresh insight into ancient civilizations.",
			"Marine biologists have documented previously unknown species in the deep ocean.",
			"Genetic research is opening paths to treatments for inherited diseases.",
			"Environmental studies are measuring how human activity reshapes ecosystems.",
		},
	},
	{
		category: "sports",
		headlines: [5]string{
			"Championship Games Draw Millions",
			"Athletes Break Long-Standing Records",
			"New Training Methods Show Results",
			"Sports Technology Enhances Performance",
			"International Competitions Begin",
		},
		abstracts: [5]string{
			"Major sporting events are drawing record audiences in stadiums and online.",
			"Professional athletes are setting marks that test the limits of human performance.",
			"Data-driven training techniques are helping athletes perform better and avoid injuries.",
			"New equipment and analytics are giving athletes a competitive edge and better safety.",
			"Athletes from around the world are gathering to compete at the highest level.",
		},
	},
}

type syntheticGenerator struct {
	seed uint64
}

// NewSyntheticSource builds the offline generator. Equal seeds produce equal months.
func NewSyntheticSource(seed uint64) Source {
	return &syntheticGenerator{seed: seed}
}

func (s *syntheticGenerator) Name() string { return StrategySynthetic }

// FetchMonth fabricates 3-5 articles per day for the trailing days of the month, newest first.
func (s *syntheticGenerator) FetchMonth(_ context.Context, year, month int) ([]domain.Article, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(s.seed, uint64(year)*100+uint64(month)))
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	startDay := max(1, daysInMonth-syntheticSpanDays+1)

	articles := make([]domain.Article, 0, (daysInMonth-startDay+1)*syntheticMaxDaily)
	for day := startDay; day <= daysInMonth; day++ {
		perDay := syntheticMinDaily + rng.IntN(syntheticMaxDaily-syntheticMinDaily+1)
		for i := 0; i < perDay; i++ {
			tpl := topicTemplates[rng.IntN(len(topicTemplates))]
			published := time.Date(year, time.Month(month), day, rng.IntN(24), rng.IntN(60), 0, 0, time.UTC)
			articles = append(articles, syntheticArticle(tpl, day*10+i, published, 300+rng.IntN(500)))
		}
	}

	slices.SortStableFunc(articles, func(a, b domain.Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return articles, nil
}

func syntheticArticle(tpl topicTemplate, n int, published time.Time, words int) domain.Article {
	date := published.Format("2006-01-02")
	headline := tpl.headlines[n%len(tpl.headlines)]
	section := strings.ToUpper(tpl.category[:1]) + tpl.category[1:]

	return domain.Article{
		ID:          fmt.Sprintf("mock-%s-%d-%s", tpl.category, n, date),
		Headline:    headline,
		Summary:     tpl.abstracts[n%len(tpl.abstracts)],
		Link:        syntheticLink,
		PublishedAt: published,
		Source:      syntheticPublisher,
		Section:     section,
		Byline:      "By NY Times Staff",
		WordCount:   words,
		Multimedia: []domain.Media{{
			URL:     fmt.Sprintf("https://picsum.photos/400/300?random=%d", n),
			Type:    "image",
			Subtype: "mediumThreeByTwo210",
			Width:   400,
			Height:  300,
			Caption: tpl.category + " related image",
		}},
	}
}
