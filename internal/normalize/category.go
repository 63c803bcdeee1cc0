package normalize

import (
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// categoryKeywords maps provider rubric/keyword fragments to our fixed niche
// set. Lookup is substring-based over the lowercased hint; first hit wins in
// the order below.
var categoryKeywords = []struct {
	cat   domain.Category
	words []string
}{
	{domain.CategoryAutoService, []string{"автосервис", "шиномонтаж", "автомойка", "детейлинг", "сто", "auto"}},
	{domain.CategoryHandyman, []string{"мастер на час", "сантехник", "электрик", "мелкий ремонт", "handyman"}},
	{domain.CategoryCleaning, []string{"клининг", "уборка", "химчистка", "cleaning"}},
	{domain.CategoryMoving, []string{"грузоперевозки", "переезд", "грузчики", "moving"}},
	{domain.CategoryEducation, []string{"репетитор", "курсы", "обучение", "учебный центр", "education"}},
	{domain.CategoryFitness, []string{"фитнес", "тренажерный зал", "спортзал", "йога", "танцы", "fitness"}},
	{domain.CategoryPhotoVideo, []string{"фотограф", "фотостудия", "видеосъемка", "photo"}},
	{domain.CategoryLegal, []string{"юридическ", "нотариус", "адвокат", "legal"}},
	{domain.CategoryPsychology, []string{"психолог", "психотерапевт", "коуч", "psycholog"}},
	{domain.CategoryTattoo, []string{"тату", "татуировка", "пирсинг", "перманентный макияж", "tattoo"}},
}

// Category maps a provider category hint to the fixed enum. Exact enum names
// match first (that is what our own adapters pass through); anything else goes
// through the keyword table or falls into unknown.
func Category(hint string) domain.Category {
	h := strings.ToLower(CleanText(hint))
	if h == "" {
		return domain.CategoryUnknown
	}
	if c := domain.Category(h); c.Valid() && c != domain.CategoryUnknown {
		return c
	}
	for _, e := range categoryKeywords {
		for _, w := range e.words {
			if strings.Contains(h, w) {
				return e.cat
			}
		}
	}
	return domain.CategoryUnknown
}
